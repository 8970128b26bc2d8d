// Package gateway provides the Google Custom Search client.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/touchline-ai/touchline/internal/errors"
)

// Google CSE caps results per request at 10.
const maxResultsPerRequest = 10

// CustomSearchConfig configures the Custom Search client.
type CustomSearchConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string // Default: https://www.googleapis.com/customsearch/v1
	Timeout  time.Duration
}

// DefaultCustomSearchConfig returns default configuration.
func DefaultCustomSearchConfig(apiKey, engineID string) *CustomSearchConfig {
	return &CustomSearchConfig{
		APIKey:   apiKey,
		EngineID: engineID,
		BaseURL:  "https://www.googleapis.com/customsearch/v1",
		Timeout:  10 * time.Second,
	}
}

// CustomSearchClient implements Searcher against Google Custom Search.
type CustomSearchClient struct {
	cfg    *CustomSearchConfig
	client *http.Client
}

// NewCustomSearchClient creates a new Custom Search client.
func NewCustomSearchClient(cfg *CustomSearchConfig) *CustomSearchClient {
	if cfg == nil {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	return &CustomSearchClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs the query and maps items[] to SearchResult.
func (c *CustomSearchClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if c == nil || c.cfg == nil || c.cfg.APIKey == "" || c.cfg.EngineID == "" {
		return nil, apperrors.Unconfigured(apperrors.CodeSearchUnconfigured,
			"GOOGLE_CUSTOM_SEARCH_API_KEY and GOOGLE_CUSTOM_SEARCH_ENGINE_ID not set")
	}
	if maxResults <= 0 || maxResults > maxResultsPerRequest {
		maxResults = maxResultsPerRequest
	}

	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults))
	params.Set("safe", "active")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.RequestFailed(apperrors.CodeSearchFailed, "failed to create request", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.Timeout(apperrors.CodeSearchTimeout, "search request timed out")
		}
		return nil, apperrors.RequestFailed(apperrors.CodeSearchFailed, "search request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.RequestFailed(apperrors.CodeSearchFailed, "failed to read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.RateLimited(apperrors.CodeSearchRateLimit, "search rate limit exceeded", retryAfter(resp))
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.RequestFailed(apperrors.CodeSearchFailed,
			fmt.Sprintf("search API error (status %d)", resp.StatusCode), nil)
	}

	var parsed customSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.MalformedResponse(apperrors.CodeSearchParseError, "invalid search response format", err)
	}

	if len(parsed.Items) == 0 {
		return nil, apperrors.EmptyResult(apperrors.CodeSearchEmpty, "no search results found")
	}

	results := make([]SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, SearchResult{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
	}
	return results, nil
}

// ============================================================
// Custom Search API Types
// ============================================================

type customSearchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}
