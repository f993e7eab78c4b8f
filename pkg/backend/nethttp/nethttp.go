// Package nethttp provides the plain net/http server backend. It is the
// default backend: no framework, just an http.Server over an explicit
// listener so Start can guarantee the socket is accepting connections
// before it returns.
package nethttp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
)

// Config holds the listener settings for the net/http backend.
type Config struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`

	// ReadTimeout and WriteTimeout bound each request; zero values fall
	// back to 15s, matching our production server defaults.
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
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

// Server is the net/http backend adapter.
type Server struct {
	cfg Config

	mu      sync.Mutex
	ln      net.Listener
	srv     *http.Server
	started bool
}

var (
	_ backend.ServerAdapter    = (*Server)(nil)
	_ backend.Config           = Config{}
	_ backend.BaseURLGenerator = Config{}
)

// New constructs a Server from the config. Equivalent to cfg.NewServer but
// returns the concrete type.
func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// BaseURL reports the server's base URL. Before Start it is computed from
// the config; after Start it reflects the port actually bound, which matters
// when the config asked for port 0.
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return "http://" + s.ln.Addr().String()
	}
	return s.cfg.GenURL()
}

// Start binds the listener and serves requests in the background. The bind
// happens synchronously: a nil return means the server accepts connections.
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

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 15 * time.Second
	}

	s.ln = ln
	s.srv = &http.Server{
		Handler:      backend.HTTPHandler(h),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	s.started = true

	go func(srv *http.Server, ln net.Listener) {
		// ErrServerClosed is the normal Shutdown result; anything else
		// after a successful bind surfaces to clients as reset
		// connections, which is all a torn-down mock can offer.
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

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.started = false
	s.ln = nil
	s.srv = nil
	return nil
}
