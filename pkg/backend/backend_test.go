package backend

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewResponse(t *testing.T) {
	resp := NewResponse(200, []byte("hello"))

	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}

	if string(resp.Body) != "hello" {
		t.Errorf("Body = %q, want %q", resp.Body, "hello")
	}

	if resp.Header == nil {
		t.Error("Header not initialized")
	}
}

func TestHTTPHandler_Dispatch(t *testing.T) {
	var got *Request
	h := HTTPHandler(func(ctx context.Context, req *Request) (*Response, error) {
		got = req
		resp := NewResponse(http.StatusCreated, []byte("made"))
		resp.Header.Set("Content-Type", "text/plain")
		return resp, nil
	})

	r := httptest.NewRequest(http.MethodPost, "/widgets?kind=blue", bytes.NewBufferString("payload"))
	r.Header.Set("X-Test", "yes")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "made" {
		t.Errorf("body = %q, want %q", w.Body.String(), "made")
	}
	if w.Header().Get("Content-Type") != "text/plain" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}

	if got == nil {
		t.Fatal("handler never invoked")
	}
	if got.Method != http.MethodPost {
		t.Errorf("Method = %q", got.Method)
	}
	if got.Path != "/widgets" {
		t.Errorf("Path = %q", got.Path)
	}
	if got.Query.Get("kind") != "blue" {
		t.Errorf("Query = %q", got.Query.Encode())
	}
	if got.Header.Get("X-Test") != "yes" {
		t.Errorf("Header = %v", got.Header)
	}
	if string(got.Body) != "payload" {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestHTTPHandler_HandlerError(t *testing.T) {
	h := HTTPHandler(func(ctx context.Context, req *Request) (*Response, error) {
		return nil, errors.New("boom")
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHTTPHandler_NilResponse(t *testing.T) {
	h := HTTPHandler(func(ctx context.Context, req *Request) (*Response, error) {
		return nil, nil
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestWriteResponse_DefaultStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteResponse(w, &Response{Body: []byte("ok")})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %q", w.Body.String())
	}
}
