// Package api provides the authenticated HTTP client for the marketplace
// backend. It attaches the bearer token, carries credentialed cookies, and
// converts non-2xx responses into typed errors. Retries are not this layer's
// job; the cache layer owns them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/circulab/marketplace-go/internal/auth"
	"github.com/circulab/marketplace-go/pkg/logger"
	"github.com/circulab/marketplace-go/pkg/metrics"
)

const maxResponseBytes = 8 << 20

// Client issues authenticated requests against the marketplace API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenStore
	logger     *logger.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The cookie jar is
// preserved unless the replacement brings its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.httpClient.Jar
		}
		c.httpClient = hc
	}
}

// WithTransport replaces the transport, keeping jar and timeout.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// NewClient creates an API client for the given base URL. A cookie jar is
// always installed so the backend's http-only refresh cookie travels with
// every request.
func NewClient(baseURL string, tokens auth.TokenStore, log *logger.Logger, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("api: token store must not be nil")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api: base URL must not be empty")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("api: create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		tokens: tokens,
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do issues a request and returns the raw response body. body, when non-nil,
// is JSON-encoded. Non-2xx responses return *Error.
//
// The bearer token is read from the store on every call, so a rotation takes
// effect on the next request. The one exception is /logout, which relies on
// the http-only cookie alone.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req)
}

// GetJSON issues a GET and decodes the body into a generic JSON value, ready
// for the normalizers.
func (c *Client) GetJSON(ctx context.Context, path string) (any, error) {
	raw, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(raw), nil
}

// DecodeJSON decodes raw bytes into a generic JSON value. Undecodable bodies
// yield nil, which the normalizers treat as an empty payload.
func DecodeJSON(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// /logout authenticates with the http-only refresh cookie instead.
	if !strings.HasPrefix(path, "/logout") {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRequest(req.Method, req.URL.Path, "0", time.Since(start).Seconds())
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	metrics.RecordRequest(req.Method, req.URL.Path, strconv.Itoa(resp.StatusCode), duration.Seconds())
	c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("api: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Status:     resp.StatusCode,
			Body:       raw,
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}
	return raw, nil
}
