// Package quotron adapts the Quotron market-data API: daily bars with
// valuation ratios and trading-status flags for stocks and ETFs.
package quotron

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lihao-quant/equidata/internal/provider"
)

const defaultBaseURL = "https://api.quotron.io/v1"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=quotron_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Quotron REST API client.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a Quotron API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// barsResponse is the wire shape of /daily. All bar values arrive as strings;
// empty string means the source has no value for that cell. A non-empty
// cursor means more pages follow.
type barsResponse struct {
	Code   int                 `json:"code"`
	Msg    string              `json:"msg"`
	Cursor string              `json:"cursor"`
	Data   []map[string]string `json:"data"`
}

// DailyBars fetches raw daily rows for one symbol over an inclusive date
// range (YYYY-MM-DD), following the date cursor until the range is
// exhausted. Failures are classified as *provider.Error.
func (c *Client) DailyBars(ctx context.Context, symbol, start, end string) ([]map[string]string, error) {
	var rows []map[string]string
	cursor := ""
	for {
		q := url.Values{}
		q.Set("symbol", symbol)
		q.Set("start", start)
		q.Set("end", end)
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		body, err := c.get(ctx, "/daily", q)
		if err != nil {
			return nil, err
		}

		var resp barsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, provider.NewError(Name, provider.SchemaMismatch, err)
		}
		if resp.Code != 0 {
			return nil, provider.NewError(Name, provider.SchemaMismatch,
				fmt.Errorf("api code %d: %s", resp.Code, resp.Msg))
		}

		rows = append(rows, resp.Data...)
		if resp.Cursor == "" {
			return rows, nil
		}
		cursor = resp.Cursor
	}
}

// Ping checks API liveness.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/status", nil)
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
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failures (timeouts, resets) are transient.
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
