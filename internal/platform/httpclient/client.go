// Package httpclient posts JSON to external providers and decodes JSON replies.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxErrorBody = 64 << 10

// HTTPStatusError is returned when the remote answered with a non-2xx status.
// Body holds the decoded JSON error document when the reply was JSON.
type HTTPStatusError struct {
	StatusCode int
	Body       map[string]any
	Raw        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// Client is a thin JSON POST client with a fixed per-call timeout.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends body as JSON and returns the decoded JSON object reply.
// Timeouts surface as context.DeadlineExceeded in the error chain.
func (c *Client) Post(ctx context.Context, url string, body any, headers map[string]string) (map[string]any, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Raw: string(raw)}
		var decoded map[string]any
		if json.Unmarshal(raw, &decoded) == nil {
			statusErr.Body = decoded
		}
		return nil, statusErr
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}
