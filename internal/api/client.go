package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neuropassword/npass/internal/config"
	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/events"
	"github.com/neuropassword/npass/internal/http"
	"github.com/neuropassword/npass/internal/logging"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// SessionSource is the part of the session the client needs: the current
// access token, and a way to drop the session when the server rejects it.
type SessionSource interface {
	AccessToken() string
	Invalidate() error
}

// Navigator performs client-side navigation.
type Navigator interface {
	Navigate(to string, replace bool)
}

// apiMetrics tracks API usage statistics
type apiMetrics struct {
	sync.Mutex
	totalCalls  int64
	callsByPath map[string]int64
}

// Client is the NeuroPassword API client. Every request goes through
// doRequest, which attaches the bearer token and intercepts 401 responses.
type Client struct {
	baseURL    string
	httpClient *nethttp.Client // writes, never retried
	readClient *nethttp.Client // GET, retried when configured
	maxRetries int

	session   SessionSource
	navigator Navigator
	eventBus  *events.EventBus
	logger    *logging.Logger
	metrics   *apiMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithSession sets the token source consulted for every request.
func WithSession(s SessionSource) Option {
	return func(c *Client) { c.session = s }
}

// WithNavigator sets where a 401 sends the user.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithEventBus sets the bus that receives auth failure events.
func WithEventBus(bus *events.EventBus) Option {
	return func(c *Client) { c.eventBus = bus }
}

// WithLogger sets the request logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the proxy-aware transport, typically with an
// httptest server's client. Read retries still apply on top of it.
func WithHTTPClient(hc *nethttp.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, errors.New("API base URL is empty; set api_url in the config file, NPASS_API_URL or --api-url")
	}
	base := cfg.NormalizedAPIURL()
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.APIBaseURL)
	}

	c := &Client{
		baseURL:    base,
		maxRetries: cfg.MaxRetries,
		metrics: &apiMetrics{
			callsByPath: make(map[string]int64),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNopLogger()
	}

	if c.httpClient == nil {
		httpClient, err := http.ConfigureHTTPClient(cfg, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
		}
		c.httpClient = httpClient
	}

	c.readClient = c.httpClient
	if c.maxRetries > 0 {
		c.readClient = http.NewRetryingClient(c.httpClient, c.maxRetries, c.logger)
	}

	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallCount returns the number of requests sent, including failed ones.
func (c *Client) CallCount() int64 {
	c.metrics.Lock()
	defer c.metrics.Unlock()
	return c.metrics.totalCalls
}

// Calls returns the request count per "METHOD path".
func (c *Client) Calls() map[string]int64 {
	c.metrics.Lock()
	defer c.metrics.Unlock()
	out := make(map[string]int64, len(c.metrics.callsByPath))
	for k, v := range c.metrics.callsByPath {
		out[k] = v
	}
	return out
}

// doRequest sends one request and decodes a 2xx JSON body into out (when
// out is non-nil). Failures come back as *AuthError or *RemoteError; a
// canceled context is returned wrapped as is.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.session != nil {
		if token := c.session.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.metrics.Lock()
	c.metrics.totalCalls++
	c.metrics.callsByPath[method+" "+path]++
	c.metrics.Unlock()

	client := c.httpClient
	if method == nethttp.MethodGet {
		client = c.readClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		c.logger.Warn().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Str("class", http.ErrorTypeName(http.ClassifyResponse(nil, err))).
			Err(err).
			Msg("API call failed")
		return &RemoteError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API call")

	switch http.ClassifyResponse(resp, nil) {
	case http.ErrorTypeSuccess:
	case http.ErrorTypeAuth:
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return c.handleUnauthorized(method, path)
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: extractServerMessage(data),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &RemoteError{Method: method, Path: path, Status: resp.StatusCode, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

// handleUnauthorized clears the session, announces the failure and sends
// the user to login before the caller sees the error.
func (c *Client) handleUnauthorized(method, path string) error {
	c.logger.Warn().Str("method", method).Str("path", path).Msg("session rejected by server, logging out")

	if c.session != nil {
		if err := c.session.Invalidate(); err != nil {
			c.logger.Error().Err(err).Msg("failed to clear session after 401")
		}
	}
	c.eventBus.PublishAuthFailure(method, path, constants.RouteLogin)
	if c.navigator != nil {
		c.navigator.Navigate(constants.RouteLogin, true)
	}

	return &AuthError{Method: method, Path: path}
}
