package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rssreader/internal/version"
)

// DefaultTimeout bounds every feed and image request.
const DefaultTimeout = 5 * time.Second

// Client is a timeout-bound HTTP client shared by the feed fetcher and the
// PDF image downloader.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a new HTTP client with the specified timeout
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Get performs a GET request with the reader's User-Agent and the given headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.httpClient.Do(req)
}

// Timeout returns the client timeout
func (c *Client) Timeout() time.Duration {
	return c.timeout
}
