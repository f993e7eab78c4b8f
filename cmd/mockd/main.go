// mockd serves a fixed, configuration-driven response on any of the
// supported backends. It exists for manual testing and for pointing
// not-yet-instrumented clients at a stand-in endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/chiserver"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/fastserver"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/ginserver"
	"github.com/sirosfoundation/go-httpmock/pkg/backend/nethttp"
	"github.com/sirosfoundation/go-httpmock/pkg/config"
	"github.com/sirosfoundation/go-httpmock/pkg/httpmock"
	"github.com/sirosfoundation/go-httpmock/pkg/logging"
	"github.com/sirosfoundation/go-httpmock/pkg/middleware"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	version    = "dev"
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mockd",
		zap.String("version", version),
		zap.String("backend", cfg.Server.Backend),
	)

	mock, err := httpmock.New(httpmock.Config{
		Backend: backendConfig(cfg),
		BaseURL: cfg.Server.BaseURL,
	},
		httpmock.WithLogger(logger),
		httpmock.WithMiddleware(
			middleware.Recover(logger),
			middleware.Logging(logger),
		),
	)
	if err != nil {
		logger.Fatal("Failed to build mock server", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = mock.Start(ctx, fixedResponseHandler(cfg.Response))
	cancel()
	if err != nil {
		logger.Fatal("Failed to start mock server", zap.Error(err))
	}
	logger.Info("Mock server listening", zap.String("url", mock.URL("/")))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mock.Stop(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// backendConfig maps the file configuration onto the selected backend's
// config type.
func backendConfig(cfg *config.Config) backend.Config {
	host, port := cfg.Server.Host, cfg.Server.Port
	switch cfg.Server.Backend {
	case config.BackendGin:
		gc := ginserver.Config{Host: host, Port: port}
		if cfg.CORS.Enabled {
			gc.CORS = &ginserver.CORSConfig{
				AllowOrigins:     cfg.CORS.AllowOrigins,
				AllowMethods:     cfg.CORS.AllowMethods,
				AllowHeaders:     cfg.CORS.AllowHeaders,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAgeSeconds:    cfg.CORS.MaxAgeSeconds,
			}
		}
		return gc
	case config.BackendChi:
		return chiserver.Config{Host: host, Port: port}
	case config.BackendFastHTTP:
		return fastserver.Config{Host: host, Port: port}
	default:
		return nethttp.Config{Host: host, Port: port}
	}
}

// fixedResponseHandler answers every request with the configured response.
func fixedResponseHandler(rc config.ResponseConfig) backend.Handler {
	return func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
		resp := backend.NewResponse(rc.Status, []byte(rc.Body))
		if rc.ContentType != "" {
			resp.Header.Set("Content-Type", rc.ContentType)
		}
		for k, v := range rc.Headers {
			resp.Header.Set(k, v)
		}
		return resp, nil
	}
}
