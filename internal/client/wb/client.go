package wb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultStatisticsHost = "https://statistics-api.wildberries.ru"
	DefaultContentHost    = "https://content-api.wildberries.ru"
	DefaultAnalyticsHost  = "https://seller-analytics-api.wildberries.ru"
	DefaultAdvertHost     = "https://advert-api.wildberries.ru"
)

// Hosts overrides the per-source API hosts. Empty fields fall back to the
// production endpoints.
type Hosts struct {
	Statistics string
	Content    string
	Analytics  string
	Advert     string
}

// Client talks to the Wildberries seller APIs. It is safe for concurrent
// use; the underlying http.Client is shared across all fetches of a report
// run. Rate limiting (HTTP 429) is reported via APIError and handled by
// the callers, not here.
type Client struct {
	httpClient *http.Client
	statistics string
	content    string
	analytics  string
	advert     string
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wb api error (%d): %s", e.Status, e.Body)
}

// IsRateLimited reports whether err is an HTTP 429 from the marketplace.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

// IsStatusError reports whether err carries a non-429 HTTP error status.
func IsStatusError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status != http.StatusTooManyRequests
}

func NewClient(httpClient *http.Client, hosts Hosts) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		statistics: hostOrDefault(hosts.Statistics, DefaultStatisticsHost),
		content:    hostOrDefault(hosts.Content, DefaultContentHost),
		analytics:  hostOrDefault(hosts.Analytics, DefaultAnalyticsHost),
		advert:     hostOrDefault(hosts.Advert, DefaultAdvertHost),
	}
}

func hostOrDefault(host, fallback string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return fallback
	}
	return host
}

// doRequest performs one call and returns the raw body. The token goes into
// the Authorization header; the advert host is the only one that wants the
// "Bearer " prefix.
func (c *Client) doRequest(ctx context.Context, method, host, path, token string, query url.Values, payload any) ([]byte, error) {
	fullURL := host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth := token
	if host == c.advert {
		auth = "Bearer " + token
	}
	req.Header.Set("Authorization", auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}
