package nethttp

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
)

func echoHandler(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	return backend.NewResponse(http.StatusOK, []byte(req.Method+" "+req.Path)), nil
}

func TestServer_StartStop(t *testing.T) {
	srv := New(Config{Host: "127.0.0.1"})
	ctx := context.Background()

	require.NoError(t, srv.Start(ctx, echoHandler))

	resp, err := http.Get(srv.BaseURL() + "/foo")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET /foo", string(body))

	require.NoError(t, srv.Stop(ctx))
}

func TestServer_StopWithoutStart(t *testing.T) {
	srv := New(DefaultConfig())

	err := srv.Stop(context.Background())
	assert.ErrorIs(t, err, backend.ErrNotStarted)
}

func TestServer_DoubleStart(t *testing.T) {
	srv := New(Config{Host: "127.0.0.1"})
	ctx := context.Background()

	require.NoError(t, srv.Start(ctx, echoHandler))
	defer func() { _ = srv.Stop(ctx) }()

	err := srv.Start(ctx, echoHandler)
	assert.ErrorIs(t, err, backend.ErrAlreadyStarted)
}

func TestServer_BaseURL(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 9001}
	srv := New(cfg)

	// Before start the URL comes from the config.
	assert.Equal(t, "http://127.0.0.1:9001", srv.BaseURL())
	assert.Equal(t, "http://127.0.0.1:9001", cfg.GenURL())
}

func TestServer_EphemeralPortReported(t *testing.T) {
	srv := New(Config{Host: "127.0.0.1"})
	ctx := context.Background()

	require.NoError(t, srv.Start(ctx, echoHandler))
	defer func() { _ = srv.Stop(ctx) }()

	url := srv.BaseURL()
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"), "url = %s", url)
	assert.NotEqual(t, "http://127.0.0.1:0", url)
}

func TestServer_BindConflict(t *testing.T) {
	first := New(Config{Host: "127.0.0.1"})
	ctx := context.Background()
	require.NoError(t, first.Start(ctx, echoHandler))
	defer func() { _ = first.Stop(ctx) }()

	// Second bind on the port the first one took must fail.
	addr := strings.TrimPrefix(first.BaseURL(), "http://")
	parts := strings.Split(addr, ":")
	require.Len(t, parts, 2)

	port, err := strconv.Atoi(parts[1])
	require.NoError(t, err)

	second := New(Config{Host: "127.0.0.1", Port: port})
	err = second.Start(ctx, echoHandler)
	require.Error(t, err)
	assert.NotErrorIs(t, err, backend.ErrAlreadyStarted)
}

func TestConfig_WithRandomPort(t *testing.T) {
	cfg := DefaultConfig().WithRandomPort()
	assert.GreaterOrEqual(t, cfg.Port, 9000)
	assert.Less(t, cfg.Port, 65535)
}

func TestServer_StopWaitsForInflight(t *testing.T) {
	release := make(chan struct{})
	srv := New(Config{Host: "127.0.0.1"})
	ctx := context.Background()

	require.NoError(t, srv.Start(ctx, func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
		<-release
		return backend.NewResponse(http.StatusOK, []byte("slow")), nil
	}))

	done := make(chan error, 1)
	go func() {
		resp, err := http.Get(srv.BaseURL() + "/")
		if err == nil {
			_ = resp.Body.Close()
		}
		done <- err
	}()

	// Let the request reach the handler, then release and stop.
	time.Sleep(50 * time.Millisecond)
	close(release)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(stopCtx))
	require.NoError(t, <-done)
}
