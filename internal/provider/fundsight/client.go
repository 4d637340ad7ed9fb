// Package fundsight adapts the Fundsight fundamentals API: daily close
// prices with per-share and profitability metrics for listed stocks.
package fundsight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lihao-quant/equidata/internal/provider"
)

const defaultBaseURL = "https://data.fundsight.com/api/v2"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=fundsight_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Fundsight REST API client.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc HTTPClient) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Fundsight API client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// row is one wire row from /metrics/daily. Unlike some sources, Fundsight
// serializes numbers as JSON numbers; a null means the metric has not been
// published for that date.
type row struct {
	Date   string             `json:"date"`
	Values map[string]*float64 `json:"values"`
}

type metricsResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Rows   []row  `json:"rows"`
}

// DailyMetrics fetches daily metric rows for one symbol over an inclusive
// date range (YYYY-MM-DD). Failures are classified as *provider.Error.
func (c *Client) DailyMetrics(ctx context.Context, symbol, start, end string) ([]row, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", start)
	q.Set("to", end)

	body, err := c.get(ctx, "/metrics/daily", q)
	if err != nil {
		return nil, err
	}

	var resp metricsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, provider.NewError(Name, provider.SchemaMismatch, err)
	}
	if resp.Status != "ok" {
		return nil, provider.NewError(Name, provider.SchemaMismatch,
			fmt.Errorf("api status %q: %s", resp.Status, resp.Error))
	}
	return resp.Rows, nil
}

// Ping checks API liveness.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/health", nil)
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Api-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(Name, provider.Timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(Name, provider.Timeout, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, provider.NewError(Name, provider.RateLimited, errStatus(resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, provider.NewError(Name, provider.AuthFailure, errStatus(resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, provider.NewError(Name, provider.Timeout, errStatus(resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, provider.NewError(Name, provider.SchemaMismatch, errStatus(resp.StatusCode))
	}
	return body, nil
}

func errStatus(code int) error {
	return fmt.Errorf("http %d: %s", code, http.StatusText(code))
}
