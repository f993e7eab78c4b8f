package backend

import (
	"io"
	"net/http"
)

// HTTPHandler adapts a Handler into a net/http handler. Backends built on
// the net/http stack (plain, gin, chi) all funnel through this translation.
// Handler errors become a bare 500; the error itself stays between the
// handler and its author.
func HTTPHandler(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusInternalServerError)
			return
		}
		_ = r.Body.Close()

		req := &Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			Query:      r.URL.Query(),
			Header:     r.Header.Clone(),
			Body:       body,
			RemoteAddr: r.RemoteAddr,
			Raw:        r,
		}

		resp, err := h(r.Context(), req)
		if err != nil || resp == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		WriteResponse(w, resp)
	})
}

// WriteResponse copies a Response onto a net/http ResponseWriter.
func WriteResponse(w http.ResponseWriter, resp *Response) {
	for k, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
