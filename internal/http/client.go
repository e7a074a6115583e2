// Package http provides the retrying, bearer-authenticated HTTP client
// used for every API call.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/sellsy-client/internal/auth"
	"github.com/fivetwenty-io/sellsy-client/internal/constants"
	"github.com/fivetwenty-io/sellsy-client/pkg/metrics"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

const defaultUserAgent = "sellsy-client/1.0"

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes one API call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response is the raw result of one API call.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Client wraps every HTTP call with bearer authentication and bounded
// exponential-backoff retry. Any transport failure or non-2xx status is
// retried until the attempt budget is exhausted; 4xx and 5xx are treated
// identically.
type Client struct {
	baseURL      string
	tokenManager auth.TokenManager
	retryClient  *retryablehttp.Client
	logger       Logger
	debug        bool
	userAgent    string
	maxAttempts  int
	backoffUnit  time.Duration
	timeout      time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets the total attempt budget and the backoff unit. The
// delay before retry k (1-indexed) is 2^k units.
func WithRetryConfig(maxAttempts int, backoffUnit time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}

		if backoffUnit > 0 {
			c.backoffUnit = backoffUnit
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a new API HTTP client.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		userAgent:    defaultUserAgent,
		maxAttempts:  constants.DefaultRetryMax,
		backoffUnit:  constants.DefaultBackoffUnit,
		timeout:      constants.RequestTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.retryClient = client.newRetryClient()

	return client
}

func (c *Client) newRetryClient() *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{Timeout: c.timeout}
	retryClient.RetryMax = c.maxAttempts - 1
	retryClient.Logger = nil

	// Timeouts surface as transport errors, so they are retried like any
	// other failure. 4xx is retried exactly like 5xx.
	retryClient.CheckRetry = func(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if err != nil {
			return true, nil
		}

		if resp.StatusCode < nethttp.StatusOK || resp.StatusCode >= nethttp.StatusMultipleChoices {
			return true, nil
		}

		return false, nil
	}

	retryClient.Backoff = func(_, _ time.Duration, attemptNum int, _ *nethttp.Response) time.Duration {
		// attemptNum is 0-based; the delay before retry k is 2^k units.
		return time.Duration(math.Pow(constants.BackoffBase, float64(attemptNum+1))) * c.backoffUnit
	}

	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *nethttp.Request, attempt int) {
		if attempt > 0 {
			metrics.RetriesTotal.Inc()

			if c.logger != nil {
				c.logger.Warn("Retrying request", map[string]interface{}{
					"method":  req.Method,
					"path":    req.URL.Path,
					"attempt": attempt + 1,
				})
			}
		}
	}

	// Keep the final response so the caller sees the last status and
	// error body after exhaustion.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient
}

// Do executes a request. The bearer token is obtained immediately before
// use on every call; an expired token triggers exactly one new exchange.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    httpReq.URL.String(),
		})
	}

	metrics.RequestsTotal.WithLabelValues(req.Method).Inc()

	resp, err := c.retryClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request to %s: %w", req.Path, err)
		}

		metrics.RequestsExhaustedTotal.Inc()

		return nil, &sellsy.ExhaustedRetriesError{
			Endpoint: req.Path,
			Attempts: c.maxAttempts,
			Err:      err,
		}
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": resp.StatusCode,
			"bytes":  len(body),
		})
	}

	if resp.StatusCode < nethttp.StatusOK || resp.StatusCode >= nethttp.StatusMultipleChoices {
		metrics.RequestsExhaustedTotal.Inc()

		respErr := &sellsy.ResponseError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, respErr)

		return response, &sellsy.ExhaustedRetriesError{
			Endpoint: req.Path,
			Attempts: c.maxAttempts,
			Err:      respErr,
		}
	}

	return response, nil
}

// Get is a convenience wrapper for GET requests.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: nethttp.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post is a convenience wrapper for POST requests with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: nethttp.MethodPost,
		Path:   path,
		Body:   body,
	})
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*retryablehttp.Request, error) {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")

	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body interface{}

	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		body = data
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting access token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}
