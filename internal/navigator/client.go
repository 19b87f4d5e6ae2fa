package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kalambet/amabrowser/internal/document"
)

const maxResponseSize = 10 << 20 // 10MB

// Client talks to the document REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the API served at baseURL (e.g. "http://127.0.0.1:5000").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the most recent document.
func (c *Client) Latest(ctx context.Context) (*document.Document, error) {
	return c.getDocument(ctx, "latest", "/api/latest")
}

// Previous fetches the document before id.
func (c *Client) Previous(ctx context.Context, id string) (*document.Document, error) {
	return c.getDocument(ctx, "previous", "/api/previous/"+url.PathEscape(id))
}

// Next fetches the document after id.
func (c *Client) Next(ctx context.Context, id string) (*document.Document, error) {
	return c.getDocument(ctx, "next", "/api/next/"+url.PathEscape(id))
}

// DeleteResult is the confirmation body of a successful delete.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Delete removes the document with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/delete/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	body, err := readBody(resp, "delete")
	if err != nil {
		return err
	}
	var res DeleteResult
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("delete: decoding response: %w", err)
	}
	return nil
}

func (c *Client) getDocument(ctx context.Context, op, path string) (*document.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	body, err := readBody(resp, op)
	if err != nil {
		return nil, err
	}
	doc, err := document.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return doc, nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable at %s (%w)", c.baseURL, err)
	}
	return resp, nil
}

// readBody reads and closes the response body, turning non-2xx responses into a *StatusError.
func readBody(resp *http.Response, op string) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts the message from {"error": {"message": "..."}} or {"error": "..."}.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	return strings.TrimSpace(string(body))
}
