// Package ginserver provides a gin-based server backend. The router carries
// no routes: every request falls through to the NoRoute catch-all, which
// dispatches to the caller's handler. Gin contributes panic recovery and,
// when configured, CORS handling.
package ginserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
)

// CORSConfig mirrors the subset of cors.Config the mock server exposes.
type CORSConfig struct {
	AllowOrigins     []string `yaml:"allow_origins" envconfig:"ALLOW_ORIGINS"`
	AllowMethods     []string `yaml:"allow_methods" envconfig:"ALLOW_METHODS"`
	AllowHeaders     []string `yaml:"allow_headers" envconfig:"ALLOW_HEADERS"`
	AllowCredentials bool     `yaml:"allow_credentials" envconfig:"ALLOW_CREDENTIALS"`
	MaxAgeSeconds    int      `yaml:"max_age_seconds" envconfig:"MAX_AGE_SECONDS"`
}

// Config holds the listener and router settings for the gin backend.
type Config struct {
	Host string      `yaml:"host" envconfig:"HOST"`
	Port int         `yaml:"port" envconfig:"PORT"`
	CORS *CORSConfig `yaml:"cors" envconfig:"CORS"`

	// ReadTimeout and WriteTimeout bound each request; zero values fall
	// back to 15s.
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

// DefaultConfig returns a config listening on the IPv4 loopback with an
// ephemeral port and no CORS handling.
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

// Server is the gin backend adapter.
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

// Start builds the router, binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context, h backend.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return backend.ErrAlreadyStarted
	}

	// cors.New panics when every origin field is empty; surface that as a
	// startup error instead.
	if s.cfg.CORS != nil && len(s.cfg.CORS.AllowOrigins) == 0 {
		return fmt.Errorf("cors enabled with no allowed origins")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if s.cfg.CORS != nil {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.CORS.AllowOrigins,
			AllowMethods:     s.cfg.CORS.AllowMethods,
			AllowHeaders:     s.cfg.CORS.AllowHeaders,
			AllowCredentials: s.cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(s.cfg.CORS.MaxAgeSeconds) * time.Second,
		}))
	}

	// All requests fall through to NoRoute; the mock does no route
	// matching of its own.
	delegate := backend.HTTPHandler(h)
	router.NoRoute(func(c *gin.Context) {
		delegate.ServeHTTP(c.Writer, c.Request)
	})

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
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	s.started = true

	go func(srv *http.Server, ln net.Listener) {
		_ = srv.Serve(ln)
	}(s.srv, ln)

	return nil
}

// Stop gracefully shuts the server down.
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
