package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const userAgent = "Opus-Automations-Server"

// Client forwards enriched form submissions to the external workflow
// webhook. The endpoint is a black-box JSON sink; delivery failures are
// reported to the caller, who decides whether they matter.
type Client struct {
	mu   sync.RWMutex
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url: strings.TrimSpace(url),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetURL swaps the webhook target at runtime (config hot reload).
func (c *Client) SetURL(url string) {
	c.mu.Lock()
	c.url = strings.TrimSpace(url)
	c.mu.Unlock()
}

func (c *Client) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}

// Configured reports whether a webhook target is set. An unconfigured
// client is valid; submissions are then logged locally only.
func (c *Client) Configured() bool {
	return c.URL() != ""
}

// Forward POSTs the payload as JSON and returns the provider's response
// body on success. A non-2xx status is an error; the body is still
// returned for logging.
func (c *Client) Forward(ctx context.Context, payload map[string]any) ([]byte, error) {
	url := c.URL()
	if url == "" {
		return nil, fmt.Errorf("webhook url not configured")
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("webhook status %d body=%s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
