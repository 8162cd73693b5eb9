package onemeter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the OneMeter Cloud API root.
	DefaultBaseURL = "https://cloud.onemeter.com/api"

	defaultTimeout       = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

var (
	// ErrUnauthorized is returned on HTTP 401; the API key is not valid
	// for this device. Never retried.
	ErrUnauthorized = errors.New("invalid API key or unauthorized access")

	// ErrRateLimited is returned on HTTP 429. Never retried within a cycle.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// StatusError reports a non-retryable client error response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the OneMeter Cloud API for a single device. The
// underlying HTTP transport is created once and reused across polls until
// Close is called.
type Client struct {
	baseURL       string
	deviceID      string
	apiKey        string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

type ClientConfig struct {
	DeviceID      string
	APIKey        string
	BaseURL       string        // defaults to DefaultBaseURL
	Timeout       time.Duration // per-attempt budget, defaults to 30s
	RetryAttempts int           // defaults to 3
	RetryDelay    time.Duration // defaults to 2s
	Logger        *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       baseURL,
		deviceID:      cfg.DeviceID,
		apiKey:        cfg.APIKey,
		httpClient:    &http.Client{Timeout: timeout},
		retryAttempts: attempts,
		retryDelay:    retryDelay,
		logger:        logger.With("component", "onemeter-client"),
	}
}

// DeviceID returns the device this client is bound to.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// Devices lists all devices visible to the API key.
func (c *Client) Devices(ctx context.Context) (map[string]any, error) {
	return c.apiCall(ctx, "devices", nil)
}

// DeviceData fetches the device snapshot (identity, last reading, monthly
// usage) for the configured device.
func (c *Client) DeviceData(ctx context.Context) (map[string]any, error) {
	return c.apiCall(ctx, "devices/"+c.deviceID, nil)
}

// Readings fetches the most recent readings for the given OBIS registers.
func (c *Client) Readings(ctx context.Context, count int, codes []string) (map[string]any, error) {
	query := url.Values{}
	query.Set("obis", strings.Join(codes, ","))
	query.Set("count", strconv.Itoa(count))
	return c.apiCall(ctx, "devices/"+c.deviceID+"/readings", query)
}

// apiCall performs an authenticated GET with bounded retry. Server errors,
// timeouts, and transport failures are retried up to the attempt budget
// with a fixed delay between attempts; 401, 429, and other client errors
// fail immediately.
func (c *Client) apiCall(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		payload, retryable, err := c.attempt(ctx, endpoint)
		if err == nil {
			return payload, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("API call failed",
			"url", endpoint, "attempt", attempt, "attempts", c.retryAttempts, "error", err)

		// No delay after the final attempt.
		if attempt < c.retryAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("request %s failed after %d attempts: %w", endpoint, c.retryAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, endpoint string) (payload map[string]any, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and transport failures are transient.
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var data map[string]any
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, true, fmt.Errorf("decode response: %w", err)
		}
		return data, false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	default:
		return nil, false, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

// Close releases the pooled transport connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
