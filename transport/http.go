package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 64 << 10

// Request describes one HTTP call made by JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Client talks to a JSON HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a Client from cfg.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", cfg.BaseURL)
	}

	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: cfg.Timeout()},
		userAgent: cfg.UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// JSON returns a transport that sends Request values and decodes JSON
// responses into R. Statuses of 400 and above fail with *Error.
func JSON[R any](c *Client) Func[Request, R] {
	return func(ctx context.Context, req Request) (*Response[R], error) {
		return doJSON[R](ctx, c, req)
	}
}

// GetJSON returns a transport issuing GET path with the given query.
func GetJSON[R any](c *Client, path string) Func[url.Values, R] {
	return func(ctx context.Context, query url.Values) (*Response[R], error) {
		return doJSON[R](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
	}
}

func doJSON[R any](ctx context.Context, c *Client, r Request) (*Response[R], error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	rel := &url.URL{Path: r.Path}
	if len(r.Query) > 0 {
		rel.RawQuery = r.Query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel).String()

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, &Error{URL: reqURL, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, &Error{URL: reqURL, Err: fmt.Errorf("create request: %w", err)}
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{URL: reqURL, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			URL:    reqURL,
			Status: resp.StatusCode,
			Header: resp.Header,
			Body:   data,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	out := &Response[R]{URL: reqURL, Status: resp.StatusCode, Header: resp.Header}
	if resp.StatusCode == http.StatusNoContent {
		return out, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&out.Body); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{
			URL:    reqURL,
			Status: resp.StatusCode,
			Header: resp.Header,
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return out, nil
}
