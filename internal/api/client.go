// Package api provides the HTTP client for the recipe service. It attaches
// the stored auth token to every request and turns non-2xx responses into
// typed errors. It never writes or removes the token itself.
package api

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

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// DefaultBaseURL is the local development address of the service.
const DefaultBaseURL = "http://localhost:8000/api"

// ── Client ───────────────────────────────────────────────────────

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithHTTPTimeout sets the HTTP client timeout. Zero means no timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRateLimit throttles outgoing requests to rps per second with the
// given burst. rps <= 0 disables the limiter.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// Client talks to the recipe service REST API.
type Client struct {
	baseURL   string
	tokens    domain.TokenStore
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       *logger.Logger
}

// Compile-time interface check.
var _ domain.RecipeAPI = (*Client)(nil)

// NewClient creates a client for the service rooted at baseURL
// (e.g. "http://localhost:8000/api"). tokens is read on every request.
func NewClient(baseURL string, tokens domain.TokenStore, log *logger.Logger, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    tokens,
		http:      &http.Client{},
		userAgent: "recipebox",
		log:       log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// response is what do hands back before decoding.
type response struct {
	status int
	header http.Header
	body   []byte
}

// Do sends a request and decodes a 2xx JSON body into out (which may be nil).
// body, when non-nil, is sent as JSON. query may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	resp, err := c.do(ctx, method, path, body, query)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values) (*response, error) {
	op := method + " " + path

	var reader io.Reader
	var size int
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: marshal %s: %w", op, err)
		}
		reader = bytes.NewReader(data)
		size = len(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("api: create request %s: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	c.log.Debug("api: %s (%d bytes, req=%s)", op, size, reqID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	c.log.Debug("api: %s -> %d in %s (req=%s)", op, resp.StatusCode, time.Since(start).Round(time.Millisecond), reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		c.log.Debug("api: %s failed: %s", op, truncate(apiErr.Message(), 120))
		return nil, apiErr
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: respBody}, nil
}

// authorize attaches "Authorization: Token <t>" when a token is stored.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrNoToken):
		return nil
	case err != nil:
		return fmt.Errorf("api: read token: %w", err)
	case token != "":
		req.Header.Set("Authorization", "Token "+token)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
