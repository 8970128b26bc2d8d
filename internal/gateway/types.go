// Package gateway wraps the generation and search capabilities with
// caching, timeouts, retry/backoff, and typed failure reporting.
package gateway

import "context"

// Message is one prior turn handed to the generator.
type Message struct {
	Role    string `json:"role"` // "user" or "model"
	Content string `json:"content"`
}

// GenerateRequest represents a text-generation request.
type GenerateRequest struct {
	System  string    `json:"system,omitempty"`
	Prompt  string    `json:"prompt"`
	History []Message `json:"history,omitempty"`
}

// SearchResult is one ranked web search hit. Ephemeral: produced for a
// single turn and never persisted.
type SearchResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link"`
}

// Generator produces natural-language text from a prompt and history.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// Searcher returns ranked web results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}
