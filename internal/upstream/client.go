package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type options struct {
	baseURL    string
	cookieURL  string
	httpClient HTTPClient
	header     http.Header
}

// Option configures a provider client.
type Option func(*options)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithCookieURL sets the page visited to obtain a session cookie before a
// crumb is requested.
func WithCookieURL(cookieURL string) Option {
	return func(o *options) {
		o.cookieURL = cookieURL
	}
}

// WithHeader adds a header sent with each request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.header.Add(key, value)
	}
}

func newOptions(baseURL string, opts []Option) *options {
	o := &options{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// get sends a GET carrying the configured headers.
func (o *options) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range o.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return o.httpClient.Do(req)
}

// getJSON performs a GET and decodes a 200 body into out. Failures come back
// as *Error tagged with source, op and symbol.
func (o *options) getJSON(ctx context.Context, source, op, symbol, rawURL string, out any) error {
	fail := func(reason, err error) error {
		return &Error{Source: source, Op: op, Symbol: symbol, Reason: reason, Err: err}
	}

	resp, err := o.get(ctx, rawURL, "application/json")
	if err != nil {
		return fail(transportReason(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(source, op, symbol, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(transportReason(ctx, err), fmt.Errorf("decode: %w", err))
	}
	return nil
}

func statusError(source, op, symbol string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &Error{
		Source: source,
		Op:     op,
		Symbol: symbol,
		Status: resp.StatusCode,
		Reason: statusReason(resp.StatusCode),
		Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}
