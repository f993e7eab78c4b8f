// Package httpmock spins up a mock HTTP server for tests. The caller picks
// a backend, supplies a handler and gets back a base URL; pluggable backends
// (net/http, gin, chi, fasthttp) all sit behind the same lifecycle.
//
// Usage:
//
//	m, err := httpmock.New(httpmock.Config{
//	    Backend: nethttp.DefaultConfig().WithRandomPort(),
//	})
//	if err != nil { ... }
//	err = m.Start(ctx, func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
//	    return httpmock.Response(http.StatusOK, []byte("hello")), nil
//	})
//	defer m.Stop(ctx)
//
//	resp, err := http.Get(m.URL("/foo"))
package httpmock

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
	"github.com/sirosfoundation/go-httpmock/pkg/middleware"
)

// Config holds what the facade needs: the backend configuration and an
// optional base URL override. Immutable once handed to New.
type Config struct {
	// Backend is the server backend configuration. Required.
	Backend backend.Config

	// BaseURL, when set, is returned by URL instead of the backend's own
	// base URL. Useful when the mock sits behind a proxy or a DNS alias.
	BaseURL string
}

// Option configures a Mock at construction time.
type Option func(*Mock)

// WithLogger sets the logger used for lifecycle events. Defaults to a nop
// logger; request failures are never logged internally, they return to the
// caller.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Mock) {
		m.logger = logger
	}
}

// WithMiddleware wraps the handler passed to Start, first element outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(m *Mock) {
		m.middleware = append(m.middleware, mws...)
	}
}

// Mock owns one configuration and one server adapter for its lifetime.
type Mock struct {
	cfg        Config
	server     backend.ServerAdapter
	logger     *zap.Logger
	middleware []middleware.Middleware
}

// New constructs the backend adapter from the configuration and returns the
// facade around it.
func New(cfg Config, opts ...Option) (*Mock, error) {
	if cfg.Backend == nil {
		return nil, errors.New("httpmock: config has no backend")
	}
	m := &Mock{
		cfg:    cfg,
		server: cfg.Backend.NewServer(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// URL returns the base URL joined with path. The configuration's BaseURL
// override wins over the adapter's own base URL, regardless of whether the
// server is started.
func (m *Mock) URL(path string) string {
	if m.cfg.BaseURL != "" {
		return m.cfg.BaseURL + path
	}
	return m.server.BaseURL() + path
}

// Start begins serving requests through h. It returns once the backend's
// socket accepts connections; serving continues in the background until
// Stop.
func (m *Mock) Start(ctx context.Context, h backend.Handler) error {
	if len(m.middleware) > 0 {
		h = middleware.Chain(h, m.middleware...)
	}
	if err := m.server.Start(ctx, h); err != nil {
		return err
	}
	m.logger.Debug("Mock server started", zap.String("base_url", m.server.BaseURL()))
	return nil
}

// Stop gracefully shuts the server down.
func (m *Mock) Stop(ctx context.Context) error {
	if err := m.server.Stop(ctx); err != nil {
		return err
	}
	m.logger.Debug("Mock server stopped")
	return nil
}

// Response builds a response with the given status code and body.
func Response(status int, body []byte) *backend.Response {
	return backend.NewResponse(status, body)
}
