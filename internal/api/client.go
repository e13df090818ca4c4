// internal/api/client.go
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Client is the HTTP Channel to the agent: every message is POSTed as the
// request body to the server root.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. A non-positive timeout selects DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Send posts message and returns the response body on 200 OK.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", strings.NewReader(message))
	if err != nil {
		return "", &FailedError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", ErrTimedOut
		}
		return "", &FailedError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", ErrTimedOut
		}
		return "", &FailedError{Code: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &FailedError{Code: resp.StatusCode}
	}
	return string(body), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Healthcheck checks that the agent answers a sync query.
func (c *Client) Healthcheck(ctx context.Context) error {
	if _, err := c.Send(ctx, Short(SyncQuery)); err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	return nil
}
