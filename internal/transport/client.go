// Package transport is the HTTP façade the core uploads through: JSON
// bodies, gzip content encoding, keyed auth header, and a typed error for
// every way an exchange can fail.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	// DefaultTimeout bounds connect, write and read of a single exchange.
	DefaultTimeout = 30 * time.Second

	// bodyPreviewLimit caps how much of an error response body is carried
	// in a StatusError.
	bodyPreviewLimit = 512

	apiKeyHeader = "Desmo-Key"
)

// Client posts gzip-compressed JSON to the ingestion endpoint.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With(slog.String("component", "transport"))
	}
}

// New creates a client for the given base URL and API key.
func New(baseURL, apiKey string, options ...Option) *Client {
	c := Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: DefaultTimeout},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Post sends body as gzip-compressed JSON to baseURL+path and returns the
// response body. A non-2xx status is returned as *StatusError, an exchange
// without a status as *NetworkError.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err = zw.Write(payload); err != nil {
		return nil, fmt.Errorf("compressing request body: %w", err)
	}
	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing request body: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set(apiKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}

	c.logger.Debug("request completed",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Code:        resp.StatusCode,
			URL:         url,
			BodyPreview: preview(respBody),
		}
	}

	return respBody, nil
}

// DecodeJSON parses a response body, wrapping parse failures as
// *DecodeError so they classify as retryable.
func DecodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &DecodeError{Cause: err}
	}
	return nil
}

func preview(body []byte) string {
	if len(body) > bodyPreviewLimit {
		body = body[:bodyPreviewLimit]
	}
	return string(body)
}
