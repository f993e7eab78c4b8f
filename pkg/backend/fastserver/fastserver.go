// Package fastserver provides a fasthttp-based server backend. fasthttp
// keeps its own request representation, so this backend carries the
// translation both ways: RequestCtx into backend.Request before dispatch,
// backend.Response back onto the RequestCtx after.
package fastserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/valyala/fasthttp"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
)

// Config holds the listener settings for the fasthttp backend.
type Config struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
}

// DefaultConfig returns a config listening on the IPv4 loopback with an
// ephemeral port.
func DefaultConfig() Config {
	return Config{Host: "127.0.0.1"}
}

// WithRandomPort returns a copy of the config with the port replaced by a
// random pick in the ephemeral mock range.
func (c Config) WithRandomPort() Config {
	c.Port = backend.RandomPort()
	return c
}

// GenURL returns the base URL the configured listener would serve on.
func (c Config) GenURL() string {
	return backend.URL(c.Host, c.Port)
}

// NewServer constructs the adapter in a non-listening state.
func (c Config) NewServer() backend.ServerAdapter {
	return &Server{cfg: c}
}

// Server is the fasthttp backend adapter.
type Server struct {
	cfg Config

	mu      sync.Mutex
	ln      net.Listener
	srv     *fasthttp.Server
	started bool
}

var (
	_ backend.ServerAdapter    = (*Server)(nil)
	_ backend.Config           = Config{}
	_ backend.BaseURLGenerator = Config{}
)

// New constructs a Server from the config.
func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// BaseURL reports the server's base URL, reflecting the bound port once
// started.
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return "http://" + s.ln.Addr().String()
	}
	return s.cfg.GenURL()
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context, h backend.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return backend.ErrAlreadyStarted
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.ln = ln
	s.srv = &fasthttp.Server{Handler: adapt(h)}
	s.started = true

	go func(srv *fasthttp.Server, ln net.Listener) {
		_ = srv.Serve(ln)
	}(s.srv, ln)

	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests up
// to the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return backend.ErrNotStarted
	}

	if err := s.srv.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.started = false
	s.ln = nil
	s.srv = nil
	return nil
}

// adapt converts a backend.Handler into a fasthttp.RequestHandler.
func adapt(h backend.Handler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		hdr := make(http.Header)
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			key := string(k)
			hdr[key] = append(hdr[key], string(v))
		})

		query := make(url.Values)
		ctx.QueryArgs().VisitAll(func(k, v []byte) {
			key := string(k)
			query[key] = append(query[key], string(v))
		})

		// PostBody is reused by fasthttp once the handler returns; copy.
		var body []byte
		if b := ctx.PostBody(); len(b) > 0 {
			body = append([]byte(nil), b...)
		}

		req := &backend.Request{
			Method:     string(ctx.Method()),
			Path:       string(ctx.Path()),
			Query:      query,
			Header:     hdr,
			Body:       body,
			RemoteAddr: ctx.RemoteAddr().String(),
			Raw:        ctx,
		}

		resp, err := h(ctx, req)
		if err != nil || resp == nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			return
		}

		for k, vals := range resp.Header {
			for _, v := range vals {
				ctx.Response.Header.Add(k, v)
			}
		}
		status := resp.StatusCode
		if status == 0 {
			status = fasthttp.StatusOK
		}
		ctx.SetStatusCode(status)
		if len(resp.Body) > 0 {
			_, _ = ctx.Write(resp.Body)
		}
	}
}
