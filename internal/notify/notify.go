// Package notify posts job completion events to a webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

const maxAttempts = 3

// Client posts JSON events to a callback URL.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// NewClient returns nil when url is empty, so callers can skip
// notification without a separate flag.
func NewClient(url, token string) *Client {
	if url == "" {
		return nil
	}
	return &Client{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: backoff,
	}
}

// StatusError is a non-2xx callback response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("callback: status %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Send posts event, retrying 429 and 5xx responses and transport errors.
func (c *Client) Send(ctx context.Context, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	for attempt := 0; ; attempt++ {
		err = c.post(ctx, body)
		var se *StatusError
		if err == nil || (errors.As(err, &se) && !se.retryable()) || attempt == maxAttempts-1 {
			return err
		}
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) post(ctx context.Context, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post callback: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	if c != nil {
		c.httpClient.CloseIdleConnections()
	}
}

func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
	return base + time.Duration(rand.Int64N(int64(base)/2))
}
