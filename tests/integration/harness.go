package integration

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/chiserver"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/fastserver"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/ginserver"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/nethttp"
	"github.com/sirosfoundation/go-httpmock/pkg/httpmock"
	"github.com/sirosfoundation/go-httpmock/pkg/middleware"
)

// backendConfigs returns one ephemeral-port config per backend, keyed by
// name for subtests.
func backendConfigs() map[string]backend.Config {
	return map[string]backend.Config{
		"nethttp":  nethttp.Config{Host: "127.0.0.1"},
		"gin":      ginserver.Config{Host: "127.0.0.1"},
		"chi":      chiserver.Config{Host: "127.0.0.1"},
		"fasthttp": fastserver.Config{Host: "127.0.0.1"},
	}
}

// TestHarness wires a started mock with a recorder and an HTTP client.
type TestHarness struct {
	T        *testing.T
	Mock     *httpmock.Mock
	Recorder *middleware.Recorder
	Client   *http.Client
}

// TestHarnessOption configures the test harness
type TestHarnessOption func(*harnessConfig)

type harnessConfig struct {
	backend backend.Config
	handler backend.Handler
}

// WithBackend selects the backend config; defaults to nethttp on an
// ephemeral port.
func WithBackend(cfg backend.Config) TestHarnessOption {
	return func(h *harnessConfig) {
		h.backend = cfg
	}
}

// WithHandler sets the handler; defaults to a 200 "ok" response.
func WithHandler(h backend.Handler) TestHarnessOption {
	return func(c *harnessConfig) {
		c.handler = h
	}
}

// NewTestHarness starts a mock server and registers its teardown.
func NewTestHarness(t *testing.T, opts ...TestHarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		backend: nethttp.Config{Host: "127.0.0.1"},
		handler: func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
			return backend.NewResponse(http.StatusOK, []byte("ok")), nil
		},
	}
	for _, opt := range opts {
		opt(hc)
	}

	logger := zap.NewNop()
	recorder := middleware.NewRecorder()

	mock, err := httpmock.New(httpmock.Config{Backend: hc.backend},
		httpmock.WithLogger(logger),
		httpmock.WithMiddleware(
			middleware.Recover(logger),
			middleware.Logging(logger),
			recorder.Middleware(),
		),
	)
	if err != nil {
		t.Fatalf("failed to build mock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mock.Start(ctx, hc.handler); err != nil {
		t.Fatalf("failed to start mock: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mock.Stop(ctx)
	})

	return &TestHarness{
		T:        t,
		Mock:     mock,
		Recorder: recorder,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Get performs a GET against the mock and returns status and body.
func (h *TestHarness) Get(path string) (int, []byte) {
	h.T.Helper()

	resp, err := h.Client.Get(h.Mock.URL(path))
	if err != nil {
		h.T.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.T.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}
