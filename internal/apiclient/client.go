// File: internal/apiclient/client.go
package apiclient

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/lancet/internal/config"
)

const defaultTimeout = 10 * time.Second

// Client issues HTTP calls through a scenario's request context, so cookies
// and storage state are shared with the browser page.
type Client struct {
	request playwright.APIRequestContext
	baseURL string
	timeout time.Duration
	headers map[string]string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// RequestOption adjusts a single call.
type RequestOption func(*playwright.APIRequestContextFetchOptions)

// WithQuery adds query parameters.
func WithQuery(params map[string]interface{}) RequestOption {
	return func(o *playwright.APIRequestContextFetchOptions) {
		if o.Params == nil {
			o.Params = make(map[string]interface{}, len(params))
		}
		maps.Copy(o.Params, params)
	}
}

// WithHeader sets one request header.
func WithHeader(name, value string) RequestOption {
	return func(o *playwright.APIRequestContextFetchOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[name] = value
	}
}

// WithTimeout overrides the client timeout for one call.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *playwright.APIRequestContextFetchOptions) {
		o.Timeout = playwright.Float(config.Millis(d))
	}
}

// New builds a client. A zero timeout falls back to 10s and a non-positive
// rate disables throttling.
func New(request playwright.APIRequestContext, cfg config.APIConfig, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &Client{
		request: request,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		headers: map[string]string{"Accept": "application/json"},
		limiter: limiter,
		logger:  logger.Named("api_client"),
	}
}

// BaseURL is the prefix applied to relative paths.
func (c *Client) BaseURL() string { return c.baseURL }

// WithAuth returns a copy of the client that sends a bearer token.
func (c *Client) WithAuth(token string) *Client {
	clone := *c
	clone.headers = maps.Clone(c.headers)
	clone.headers["Authorization"] = "Bearer " + token
	return &clone
}

// Headers returns a copy of the headers sent with every call.
func (c *Client) Headers() map[string]string { return maps.Clone(c.headers) }

// URL resolves path against the base URL. Absolute URLs pass through.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

func (c *Client) Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodHead, path, nil, opts...)
}

// Do sends method to path with an optional JSON body. Non-2xx statuses are
// not errors; check Response.OK.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("api %s %s: %w", method, path, err)
	}

	url := c.URL(path)
	fetch := playwright.APIRequestContextFetchOptions{
		Method:  playwright.String(method),
		Headers: maps.Clone(c.headers),
		Timeout: playwright.Float(config.Millis(c.timeout)),
	}
	if body != nil {
		fetch.Data = body
		fetch.Headers["Content-Type"] = "application/json"
	}
	for _, opt := range opts {
		opt(&fetch)
	}

	start := time.Now()
	raw, err := c.request.Fetch(url, fetch)
	if err != nil {
		c.logger.Warn("API request failed.", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("api %s %s: %w", method, url, err)
	}
	defer func() {
		if err := raw.Dispose(); err != nil {
			c.logger.Debug("Failed to dispose API response.", zap.Error(err))
		}
	}()

	resp, err := newResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("api %s %s: %w", method, url, err)
	}
	c.logger.Debug("API request completed.",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.Status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}
