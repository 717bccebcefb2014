// Package fetch retrieves listing pages and metadata documents over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// HTTPError reports a response whose status was not 2xx.
// The crawler treats it as a transient miss: the unit of work is skipped.
type HTTPError struct {
	URI        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URI, e.Status)
}

// IsHTTPError reports whether err wraps an *HTTPError.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// Client issues blocking GET requests and decodes bodies to text.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a Client. A zero timeout means no client-side limit.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Get fetches uri and returns the body decoded with the charset declared in
// the Content-Type header. Without a charset parameter the bytes are returned as-is.
func (c *Client) Get(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &HTTPError{URI: uri, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := decodeBody(resp.Header.Get("Content-Type"), resp.Body)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", uri, err)
	}
	return body, nil
}

func decodeBody(contentType string, body io.Reader) (string, error) {
	var r io.Reader = body

	if contentType != "" {
		_, params, err := mime.ParseMediaType(contentType)
		if err == nil && params["charset"] != "" {
			r, err = charset.NewReaderLabel(params["charset"], body)
			if err != nil {
				return "", fmt.Errorf("failed to decode body: %w", err)
			}
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(data), nil
}
