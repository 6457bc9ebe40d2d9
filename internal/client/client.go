// Package client talks to a running drive-thru API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"drivethru/internal/api"
	"drivethru/internal/lane"
	"drivethru/internal/menu"
)

// DefaultBaseURL is used when neither the caller nor DRIVETHRU_API_URL
// names a server
const DefaultBaseURL = "http://localhost:8080"

// Client handles API requests to the drive-thru server
type Client struct {
	httpClient *http.Client
	BaseURL    string
}

// New creates a client. An empty baseURL falls back to DRIVETHRU_API_URL,
// then DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("DRIVETHRU_API_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    baseURL,
	}
}

// CheckHealth checks if the API is up and running
func (c *Client) CheckHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// SendTurn sends one customer utterance
func (c *Client) SendTurn(ctx context.Context, text string, confidence float64) (lane.Result, error) {
	var result lane.Result
	err := c.do(ctx, http.MethodPost, "/api/v1/turns", api.TurnRequest{Text: text, Confidence: &confidence}, &result)
	return result, err
}

// GetOrder retrieves the order in progress
func (c *Client) GetOrder(ctx context.Context) (lane.OrderView, error) {
	var order lane.OrderView
	err := c.do(ctx, http.MethodGet, "/api/v1/order", nil, &order)
	return order, err
}

// Reset abandons the current conversation
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/session/reset", nil, nil)
}

// GetMenu retrieves the menu grouped by category
func (c *Client) GetMenu(ctx context.Context) ([]api.MenuSection, error) {
	var sections []api.MenuSection
	err := c.do(ctx, http.MethodGet, "/api/v1/menu", nil, &sections)
	return sections, err
}

// Search queries the menu engine
func (c *Client) Search(ctx context.Context, query string, k int) ([]menu.SearchResult, error) {
	params := url.Values{"q": {query}}
	if k > 0 {
		params.Set("k", strconv.Itoa(k))
	}

	var body struct {
		Results []menu.SearchResult `json:"results"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/menu/search?"+params.Encode(), nil, &body)
	return body.Results, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status code %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
