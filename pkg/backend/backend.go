// Package backend defines the contract between the httpmock facade and the
// interchangeable HTTP server backends. It separates the concept of "handler"
// from "server" - callers provide a Handler, a backend turns it into a
// listening socket.
//
// Architecture:
//   - Config: backend-specific settings, turned into a ServerAdapter
//   - ServerAdapter: lifecycle (Start/Stop) plus base URL reporting
//   - Request/Response: transport-neutral request representation so the same
//     Handler runs unchanged on net/http, gin, chi or fasthttp
package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Request is the unified inbound request handed to handlers. Backends
// translate their native request object into this form before dispatch.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	Body       []byte
	RemoteAddr string

	// Raw holds the underlying transport-specific request object
	// (e.g. *http.Request or *fasthttp.RequestCtx) for escape hatches.
	Raw any
}

// Response is what a handler returns. Backends translate it back into their
// native response representation.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse builds a Response with the given status code and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       body,
	}
}

// Handler maps an inbound request to a response. It is invoked concurrently,
// once per inbound request, from whatever goroutines the backend uses to
// serve connections; shared state inside a handler needs its own
// synchronization. A returned error is translated by the backend into a
// plain 500 response.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// ServerAdapter is implemented by every pluggable server backend.
//
// Lifecycle is linear: not-started -> started -> stopped. Start binds the
// listener before returning, so a nil error means the socket is accepting
// connections. Stop shuts the listener down gracefully, honoring the
// deadline of the supplied context.
type ServerAdapter interface {
	// BaseURL returns the scheme+host+port prefix to reach the server.
	// It may be called before or after Start; once started on an ephemeral
	// port (port 0) it reports the port that was actually bound.
	BaseURL() string

	// Start binds a listener and begins serving requests through h in the
	// background. Calling Start on a started adapter returns
	// ErrAlreadyStarted; a failed bind returns the wrapped listen error.
	Start(ctx context.Context, h Handler) error

	// Stop gracefully shuts the server down. Calling Stop on an adapter
	// that was never started returns ErrNotStarted.
	Stop(ctx context.Context) error
}

// Config is a backend configuration that knows how to construct its adapter.
// The httpmock facade calls NewServer exactly once, at construction time.
type Config interface {
	NewServer() ServerAdapter
}

// BaseURLGenerator yields the base URL a backend configuration would serve
// on. Every backend config implements it; the facade relies on it only
// indirectly, through ServerAdapter.BaseURL.
type BaseURLGenerator interface {
	GenURL() string
}
