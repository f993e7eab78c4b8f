// Package middleware provides handler middleware for the mock server:
// request logging, panic recovery and request recording. Middleware wraps
// the transport-neutral backend.Handler, so the same chain works on every
// backend.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
)

// Middleware wraps a handler. Chains apply outermost-first.
type Middleware func(backend.Handler) backend.Handler

// Chain applies the middleware to h, first element outermost.
func Chain(h backend.Handler, mws ...Middleware) backend.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Logging returns a middleware that logs one line per request and tags the
// response with an X-Request-Id header.
func Logging(logger *zap.Logger) Middleware {
	return func(next backend.Handler) backend.Handler {
		return func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
			requestID := uuid.NewString()
			start := time.Now()

			resp, err := next(ctx, req)

			status := 0
			if resp != nil {
				if resp.Header == nil {
					resp.Header = make(http.Header)
				}
				resp.Header.Set("X-Request-Id", requestID)
				status = resp.StatusCode
			}

			logger.Info("Request",
				zap.String("request_id", requestID),
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return resp, err
		}
	}
}

// Recover returns a middleware that converts handler panics into plain 500
// responses.
func Recover(logger *zap.Logger) Middleware {
	return func(next backend.Handler) backend.Handler {
		return func(ctx context.Context, req *backend.Request) (resp *backend.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Handler panic",
						zap.String("method", req.Method),
						zap.String("path", req.Path),
						zap.Any("panic", r),
					)
					resp = backend.NewResponse(http.StatusInternalServerError, nil)
					err = nil
				}
			}()
			return next(ctx, req)
		}
	}
}
