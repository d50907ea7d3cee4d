package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultExaBaseURL = "https://api.exa.ai"

// Searcher issues one search query and returns the provider's raw
// response body. The corpus builder never assumes a response shape;
// ParseResult deals with whatever comes back.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// ExaClient is a minimal REST client for the Exa search API.
type ExaClient struct {
	baseURL    string
	apiKey     string
	numResults int
	client     *http.Client
}

func NewExaClient(apiKey string, numResults int) (*ExaClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("exa API key is required")
	}
	if numResults <= 0 {
		numResults = 3
	}
	return &ExaClient{
		baseURL:    defaultExaBaseURL,
		apiKey:     apiKey,
		numResults: numResults,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *ExaClient) Search(ctx context.Context, query string) (string, error) {
	body := map[string]any{
		"query":         query,
		"numResults":    c.numResults,
		"useAutoprompt": true,
		"contents": map[string]any{
			"text": true,
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("search request for %q failed: %s", query, resp.Status)
	}
	return string(raw), nil
}
