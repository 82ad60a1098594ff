// Package transport defines the request function consumed by remote stores
// together with HTTP and Connect adapters.
//
// A transport is any function that turns parameters into a response body,
// optionally with protocol metadata. Metadata travels with successful
// responses in Response and with failures in *Error, so the caller can
// record the URL, status and headers of either outcome.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Func performs one request.
type Func[P, R any] func(ctx context.Context, params P) (*Response[R], error)

// Response is a decoded body plus protocol metadata.
type Response[R any] struct {
	Body   R
	URL    string
	Status int
	Header http.Header
}

// Meta returns the response metadata.
func (r *Response[R]) Meta() *Meta {
	return &Meta{URL: r.URL, Status: r.Status, Headers: cloneHeader(r.Header)}
}

// Meta is protocol metadata captured for the last completed request.
type Meta struct {
	URL     string              `json:"url,omitempty"`
	Status  int                 `json:"status,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
}

// Header returns the first value for key, matched case-insensitively.
func (m *Meta) Header(key string) string {
	if m == nil {
		return ""
	}
	return http.Header(m.Headers).Get(key)
}

// Error is a failed request with its protocol metadata.
type Error struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: status %d: %v", e.URL, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: status %d", e.URL, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Meta returns the error metadata.
func (e *Error) Meta() *Meta {
	return &Meta{URL: e.URL, Status: e.Status, Headers: cloneHeader(e.Header)}
}

// MetaOf extracts metadata from err when it wraps an *Error.
func MetaOf(err error) *Meta {
	var te *Error
	if errors.As(err, &te) {
		return te.Meta()
	}
	return nil
}

// Raw adapts a plain function with no protocol metadata.
func Raw[P, R any](fn func(ctx context.Context, params P) (R, error)) Func[P, R] {
	return func(ctx context.Context, params P) (*Response[R], error) {
		body, err := fn(ctx, params)
		if err != nil {
			return nil, err
		}
		return &Response[R]{Body: body}, nil
	}
}

func cloneHeader(h http.Header) map[string][]string {
	if len(h) == 0 {
		return nil
	}
	return h.Clone()
}
