// Package client is the Go SDK for the storefront API. It mirrors what the
// web storefront does on top of the same HTTP contract: it reconciles cart
// state, guards quantity mutations against double-submits, walks the checkout
// wizard, and requests order lifecycle transitions. The server stays
// authoritative throughout; after any failed mutation the SDK refetches
// instead of patching local state.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Client talks to one storefront API on behalf of one authenticated user.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client

	mu       sync.Mutex
	inflight map[uint]struct{} // product ids with a mutation on the wire
}

// New returns a client for the API at baseURL authenticating with the given
// bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:  baseURL,
		token:    token,
		httpc:    &http.Client{},
		inflight: make(map[uint]struct{}),
	}
}

// APIError is a non-2xx response from the API, carrying the most specific
// message the server provided.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// extractMessage prefers the structured message over a generic status string.
func extractMessage(body []byte, status int) string {
	var shaped struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		if shaped.Message != "" {
			return shaped.Message
		}
		if shaped.Error != "" {
			return shaped.Error
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: extractMessage(data, resp.StatusCode)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// tryAcquire marks a product's cart line as having a mutation in flight.
func (c *Client) tryAcquire(productID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.inflight[productID]; held {
		return false
	}
	c.inflight[productID] = struct{}{}
	return true
}

// release frees the line regardless of how the mutation settled.
func (c *Client) release(productID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, productID)
}
