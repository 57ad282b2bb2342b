package scrapeproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/core/ports"
)

const (
	defaultTimeout = 2 * time.Minute

	// The proxy forwards request headers to the target site, so cookies
	// and the tenant header pass through unchanged.
	forwardHeadersParam = "forward_headers"
)

// Client implements ports.Fetcher against an anti-bot proxy service.
// Every request to the target API is wrapped in a proxy call carrying the
// service API key and the encoded target URL.
type Client struct {
	proxyBaseURL string
	apiKey       string
	systemID     string
	client       *http.Client
}

// New creates a proxy client. systemID is sent as the X-System-Id tenant
// header on every forwarded request.
func New(proxyBaseURL, apiKey, systemID string) *Client {
	return &Client{
		proxyBaseURL: proxyBaseURL,
		apiKey:       apiKey,
		systemID:     systemID,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Fetch performs one request through the proxy. A nil Filter issues a GET;
// a non-nil Filter issues a POST with the filter as JSON body. A 401/403
// from the target surfaces as ports.ErrUnauthorized so the caller can
// refresh the session and retry.
func (c *Client) Fetch(ctx context.Context, freq ports.FetchRequest, cookie string) ([]byte, error) {
	proxyURL := c.buildProxyURL(freq.URL)

	method := http.MethodGet
	var body io.Reader
	if freq.Filter != nil {
		method = http.MethodPost
		payload, err := json.Marshal(freq.Filter)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, proxyURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if freq.Filter != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	req.Header.Set("X-System-Id", c.systemID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("fetch %s: status %d: %w", freq.URL, resp.StatusCode, ports.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: unexpected status %d, body: %s", freq.URL, resp.StatusCode, respBody)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func (c *Client) buildProxyURL(target string) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("url", target)
	params.Set(forwardHeadersParam, "true")
	return fmt.Sprintf("%s/v1?%s", c.proxyBaseURL, params.Encode())
}
