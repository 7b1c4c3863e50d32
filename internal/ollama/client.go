// Package ollama is a minimal HTTP client for a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options carries per-request generation parameters. Nil fields are
// omitted so the server's defaults apply.
type Options struct {
	NumCtx        *int     `json:"num_ctx,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty"`
}

// GenerateRequest is the payload for POST /api/generate.
type GenerateRequest struct {
	Model     string  `json:"model"`
	System    string  `json:"system,omitempty"`
	Prompt    string  `json:"prompt"`
	Stream    bool    `json:"stream"`
	KeepAlive string  `json:"keep_alive,omitempty"`
	Context   []int   `json:"context,omitempty"`
	Options   Options `json:"options"`
}

// GenerateResponse is the non-streaming reply from /api/generate.
// Context is the opaque continuation token list for follow-up requests.
type GenerateResponse struct {
	Response string `json:"response"`
	Context  []int  `json:"context,omitempty"`
	Done     bool   `json:"done"`
}

// Client talks to one Ollama server.
type Client struct {
	baseURL   string
	keepAlive string
	http      *http.Client
}

// NewClient creates a client for the server at baseURL. keepAlive (e.g.
// "5m") is passed through on every generate call; empty means server
// default.
func NewClient(baseURL, keepAlive string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keepAlive: keepAlive,
		http:      &http.Client{Timeout: 5 * time.Minute},
	}
}

// CheckConnection reports whether the server answers at all.
func (c *Client) CheckConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Generate runs a single non-streaming completion.
func (c *Client) Generate(ctx context.Context, greq GenerateRequest) (*GenerateResponse, error) {
	greq.Stream = false
	if greq.KeepAlive == "" {
		greq.KeepAlive = c.keepAlive
	}

	payload, err := json.Marshal(greq)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: generate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: generate returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
