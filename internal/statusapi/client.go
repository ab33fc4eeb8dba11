// Package statusapi is the HTTP client for the document-processing results service.
package statusapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"docwatch/internal/config"
	"docwatch/internal/domain"
)

const maxErrorBody = 2048

// HTTPStatusError is returned when the results service answers with a non-2xx status.
type HTTPStatusError struct {
	Err        error
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("results service error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("results service error (status %d): %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

// NewHTTPStatusError creates an HTTPStatusError, truncating long bodies.
func NewHTTPStatusError(op string, statusCode int, body []byte) *HTTPStatusError {
	return &HTTPStatusError{
		Err:        fmt.Errorf("%s: unexpected status %d", op, statusCode),
		StatusCode: statusCode,
		Body:       truncate(string(bytes.TrimSpace(body)), maxErrorBody),
	}
}

// Client talks to the status and links endpoints.
type Client struct {
	baseURL  string
	linkKeys []string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a results service client from the poller config. A
// positive RateLimitRPS installs a limiter shared by every call on this client.
func NewClient(cfg *config.PollerConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		baseURL:  cfg.BaseURL,
		linkKeys: cfg.LinkKeys,
		client:   &http.Client{Timeout: timeout},
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return c
}

// FetchStatus performs GET /status?objectKey=<key> and decodes the envelope.
func (c *Client) FetchStatus(ctx context.Context, objectKey string) (domain.Envelope, error) {
	if objectKey == "" {
		return nil, domain.ErrMissingObjectKey
	}
	endpoint := c.baseURL + "/status?" + url.Values{"objectKey": {objectKey}}.Encode()

	body, err := c.do(ctx, http.MethodGet, endpoint, nil, "FetchStatus")
	if err != nil {
		return nil, err
	}

	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding status response: %w", err)
	}
	if env == nil {
		return nil, fmt.Errorf("decoding status response: %w", domain.ErrInvalidEnvelope)
	}
	return env, nil
}

// FetchLinks performs POST /links with {"objectKey": key}. A response without
// any expected key is returned as not ready, never as an error.
func (c *Client) FetchLinks(ctx context.Context, objectKey string) (*Links, error) {
	if objectKey == "" {
		return nil, domain.ErrMissingObjectKey
	}
	reqBody, err := json.Marshal(map[string]string{"objectKey": objectKey})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/links", reqBody, "FetchLinks")
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding links response: %w", err)
	}
	return NewLinks(raw, c.linkKeys), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, op string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling results service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPStatusError(op, resp.StatusCode, body)
	}
	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
