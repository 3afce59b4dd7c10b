// Package fetch downloads binary datasets over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MaxBytes bounds a download. A year of 15-minute steps over every county is
// well under this.
const MaxBytes = 256 << 20

// Client fetches dataset files from an HTTP origin.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client whose requests time out after timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// IsURL reports whether path names an http or https resource rather than a
// local file.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Fetch downloads url and returns the body.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("dataset origin error: status %d: %s", resp.StatusCode, body)
	}
	if resp.ContentLength > MaxBytes {
		return nil, fmt.Errorf("dataset of %d bytes exceeds limit of %d", resp.ContentLength, MaxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(data) > MaxBytes {
		return nil, fmt.Errorf("dataset exceeds limit of %d bytes", MaxBytes)
	}

	c.logger.Debug("dataset fetched", "url", url, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}
