package middleware

import (
	"context"
	"sync"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
)

// RecordedRequest is a snapshot of one request seen by a Recorder.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header map[string][]string
	Body   []byte
}

// Recorder captures every request passing through it so tests can assert on
// what the code under test actually sent. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	requests []RecordedRequest
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Middleware returns the recording middleware bound to r.
func (r *Recorder) Middleware() Middleware {
	return func(next backend.Handler) backend.Handler {
		return func(ctx context.Context, req *backend.Request) (*backend.Response, error) {
			rec := RecordedRequest{
				Method: req.Method,
				Path:   req.Path,
				Header: make(map[string][]string, len(req.Header)),
				Body:   append([]byte(nil), req.Body...),
			}
			if req.Query != nil {
				rec.Query = req.Query.Encode()
			}
			for k, vals := range req.Header {
				rec.Header[k] = append([]string(nil), vals...)
			}

			r.mu.Lock()
			r.requests = append(r.requests, rec)
			r.mu.Unlock()

			return next(ctx, req)
		}
	}
}

// Requests returns a copy of all captured requests in arrival order.
func (r *Recorder) Requests() []RecordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedRequest(nil), r.requests...)
}

// Count returns the number of captured requests.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// Reset discards all captured requests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = nil
}
