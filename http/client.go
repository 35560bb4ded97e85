// Package http provides HTTP clients for the papershelf document backend and
// authentication service.
package http

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
	"time"

	"github.com/fwojciec/papershelf"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default timeout for HTTP requests.
// Uploads of large PDFs are bounded by this value too.
const DefaultTimeout = 2 * time.Minute

// DefaultRateLimit is the default maximum number of requests per second.
const DefaultRateLimit = 10.0

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client sends requests to a single backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	rps        float64
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultTimeout if not specified. Ignored with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the maximum number of requests per second.
// A value <= 0 disables rate limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.rps = rps
	}
}

// NewClient creates a new Client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		rps:     DefaultRateLimit,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}
	if c.rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.rps), 1)
	}

	return c
}

// URL returns the absolute URL of path.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Do sends req after waiting for the rate limiter.
// Transport failures are reported as ENETWORK.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, papershelf.Errorf(papershelf.ENETWORK, "cannot reach %s: %v", req.URL.Host, unwrapURLError(err))
	}
	return resp, nil
}

// newJSONRequest builds a request with an optional JSON body.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// errorResponse is the error body returned by both services.
// The auth service's JWT layer reports failures under "msg".
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

// responseError converts a non-2xx response into an application error.
// Status codes without a more specific meaning map to EINTERNAL.
func responseError(resp *http.Response, codes map[int]string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var e errorResponse
	_ = json.Unmarshal(body, &e)
	msg := firstNonEmpty(e.Error, e.Message, e.Msg, strings.TrimSpace(string(body)), http.StatusText(resp.StatusCode))

	if code, ok := codes[resp.StatusCode]; ok {
		return papershelf.Errorf(code, "%s", msg)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return papershelf.Errorf(papershelf.EUNAUTHORIZED, "%s", msg)
	case resp.StatusCode == http.StatusNotFound:
		return papershelf.Errorf(papershelf.ENOTFOUND, "%s", msg)
	case resp.StatusCode == http.StatusConflict:
		return papershelf.Errorf(papershelf.ECONFLICT, "%s", msg)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return papershelf.Errorf(papershelf.EINVALID, "%s", msg)
	default:
		return papershelf.Errorf(papershelf.EINTERNAL, "server error (HTTP %d): %s", resp.StatusCode, msg)
	}
}

// decodeJSON decodes a successful response body into v.
func decodeJSON(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return papershelf.Errorf(papershelf.EINTERNAL, "invalid response from %s: %v", resp.Request.URL.Path, err)
	}
	return nil
}

// drain discards the rest of the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
