package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/nethttp"
	"github.com/sirosfoundation/go-httpmock/pkg/httpmock"
)

func TestAllBackends_RoundTrip(t *testing.T) {
	for name, cfg := range backendConfigs() {
		t.Run(name, func(t *testing.T) {
			h := NewTestHarness(t,
				WithBackend(cfg),
				WithHandler(func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
					return httpmock.Response(http.StatusOK, []byte("hello from "+req.Path)), nil
				}),
			)

			status, body := h.Get("/greeting")
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "hello from /greeting", string(body))
		})
	}
}

func TestAllBackends_HandlerError(t *testing.T) {
	for name, cfg := range backendConfigs() {
		t.Run(name, func(t *testing.T) {
			h := NewTestHarness(t,
				WithBackend(cfg),
				WithHandler(func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
					return nil, assert.AnError
				}),
			)

			status, _ := h.Get("/")
			assert.Equal(t, http.StatusInternalServerError, status)
		})
	}
}

func TestAllBackends_RecorderSeesRequests(t *testing.T) {
	for name, cfg := range backendConfigs() {
		t.Run(name, func(t *testing.T) {
			h := NewTestHarness(t, WithBackend(cfg))

			h.Get("/first")
			h.Get("/second")

			require.Equal(t, 2, h.Recorder.Count())
			reqs := h.Recorder.Requests()
			assert.Equal(t, "/first", reqs[0].Path)
			assert.Equal(t, "/second", reqs[1].Path)
		})
	}
}

func TestAllBackends_RequestIDHeader(t *testing.T) {
	for name, cfg := range backendConfigs() {
		t.Run(name, func(t *testing.T) {
			h := NewTestHarness(t, WithBackend(cfg))

			resp, err := h.Client.Get(h.Mock.URL("/"))
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
		})
	}
}

func TestAllBackends_EphemeralPortReported(t *testing.T) {
	for name, cfg := range backendConfigs() {
		t.Run(name, func(t *testing.T) {
			h := NewTestHarness(t, WithBackend(cfg))

			// Port 0 in the config; once started the base URL carries
			// the port that was actually bound.
			url := h.Mock.URL("")
			assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"), "url = %s", url)
			assert.NotEqual(t, "http://127.0.0.1:0", url)

			status, _ := h.Get("/")
			assert.Equal(t, http.StatusOK, status)
		})
	}
}

func TestAllBackends_StopRefusesTraffic(t *testing.T) {
	for name, cfg := range backendConfigs() {
		t.Run(name, func(t *testing.T) {
			mock, err := httpmock.New(httpmock.Config{Backend: cfg})
			require.NoError(t, err)

			ctx := context.Background()
			require.NoError(t, mock.Start(ctx, func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
				return httpmock.Response(http.StatusOK, nil), nil
			}))

			url := mock.URL("/")
			require.NoError(t, mock.Stop(ctx))

			client := &http.Client{Timeout: 2 * time.Second}
			_, err = client.Get(url)
			assert.Error(t, err)
		})
	}
}

func TestBaseURLOverride_WinsOverAdapter(t *testing.T) {
	mock, err := httpmock.New(httpmock.Config{
		Backend: backendConfigs()["nethttp"],
		BaseURL: "http://mock.local",
	})
	require.NoError(t, err)

	// Override applies with the server never started.
	assert.Equal(t, "http://mock.local/foo", mock.URL("/foo"))

	ctx := context.Background()
	require.NoError(t, mock.Start(ctx, func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
		return httpmock.Response(http.StatusOK, nil), nil
	}))
	defer func() { _ = mock.Stop(ctx) }()

	// And with it running.
	assert.Equal(t, "http://mock.local/foo", mock.URL("/foo"))
}

func TestRandomPort_RetryOnConflict(t *testing.T) {
	// A random pick can race another process; retrying with a fresh pick
	// is the documented recovery.
	ctx := context.Background()

	handler := func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
		return httpmock.Response(http.StatusOK, []byte("ok")), nil
	}

	var mock *httpmock.Mock
	for attempt := 0; attempt < 5 && mock == nil; attempt++ {
		m, err := httpmock.New(httpmock.Config{
			Backend: nethttp.DefaultConfig().WithRandomPort(),
		})
		require.NoError(t, err)

		if err := m.Start(ctx, handler); err != nil {
			continue
		}
		mock = m
	}
	require.NotNil(t, mock, "could not bind a random port in 5 attempts")
	defer func() { _ = mock.Stop(ctx) }()

	assert.True(t, strings.HasPrefix(mock.URL("/"), "http://127.0.0.1:"))

	resp, err := http.Get(mock.URL("/"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
