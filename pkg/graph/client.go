package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"wpexport/pkg/errors"
	"wpexport/pkg/logger"
	"wpexport/pkg/ratelimit"
)

// Client is an authenticated Workplace Graph API client. Every request
// carries the bearer token, runs against a bounded-timeout http.Client
// and goes through the rate limiter.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	endpoints    Endpoints
	accessToken  string
	limiter      ratelimit.Limiter
	logger       logger.Logger
}

// Options configures optional Client behavior
type Options struct {
	// Timeout bounds JSON requests; defaults to 60s
	Timeout time.Duration
	// StreamTimeout bounds streaming downloads end to end; defaults to 120s
	StreamTimeout time.Duration
	// Limiter throttles API requests; defaults to unlimited
	Limiter ratelimit.Limiter
	// BaseURL overrides the Graph API host, primarily for tests
	BaseURL string
}

// NewClient creates a new Graph API client
func NewClient(accessToken, apiVersion string, opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.StreamTimeout <= 0 {
		opts.StreamTimeout = 120 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}

	endpoints := NewEndpoints(apiVersion)
	if opts.BaseURL != "" {
		endpoints.BaseURL = opts.BaseURL
	}

	return &Client{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		streamClient: &http.Client{Timeout: opts.StreamTimeout},
		endpoints:    endpoints,
		accessToken:  accessToken,
		limiter:      opts.Limiter,
		logger:       log,
	}
}

// Endpoints returns the endpoint builder bound to this client
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// do performs an HTTP request with the bearer credential attached
func (c *Client) do(ctx context.Context, httpClient *http.Client, rawURL string, params url.Values) (*http.Response, error) {
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, errors.Newf(errors.ErrorTypeUnknown, "invalid request URL %q: %v", rawURL, err)
		}
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	req.Header.Set("User-Agent", "wpexport/1.0")

	c.limiter.Wait()

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Newf(errors.ErrorTypeNetwork, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, target interface{}) error {
	resp, err := c.do(ctx, c.httpClient, rawURL, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithCode(errors.ErrorTypeNetwork, resp.StatusCode,
			"failed to read response body: "+err.Error())
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.String(),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.WithCode(errors.ErrorTypeParsing, resp.StatusCode,
			"failed to parse JSON: "+err.Error())
	}

	return nil
}

// Stream performs a GET request for a large binary payload and returns
// the open response. The caller owns the body and must close it.
func (c *Client) Stream(ctx context.Context, rawURL string) (*http.Response, error) {
	resp, err := c.do(ctx, c.streamClient, rawURL, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, c.statusError(resp.StatusCode, body)
	}

	return resp, nil
}

// checkResponseStatus maps a non-2xx response to a typed error, extracting
// the structured Graph error message when one is present.
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	err := c.statusError(resp.StatusCode, body)
	c.logger.WarnWithFields("API request rejected", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
		"error":  err.Error(),
	})
	return err
}

func (c *Client) statusError(statusCode int, body []byte) error {
	message := extractErrorMessage(body)
	if message == "" {
		message = http.StatusText(statusCode)
	}

	var errType errors.ErrorType
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errType = errors.ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		errType = errors.ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		errType = errors.ErrorTypeRateLimit
	case statusCode >= 500:
		errType = errors.ErrorTypeServerError
	default:
		errType = errors.ErrorTypeUnknown
	}

	return errors.WithCode(errType, statusCode, message)
}

// errorEnvelope is the Graph API's structured error payload
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// extractErrorMessage pulls error.message from an error body, returning
// an empty string when the body is not the structured envelope.
func extractErrorMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
