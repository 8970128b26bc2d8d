// Package gateway provides the Gemini API client for text generation.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/touchline-ai/touchline/internal/errors"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // Default: https://generativelanguage.googleapis.com/v1beta
	Model   string // e.g. "gemini-1.5-flash"
	Timeout time.Duration
}

// DefaultGeminiConfig returns default configuration.
func DefaultGeminiConfig(apiKey string) *GeminiConfig {
	return &GeminiConfig{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "gemini-1.5-flash",
		Timeout: 30 * time.Second,
	}
}

// GeminiClient implements Generator against the Gemini REST API.
type GeminiClient struct {
	cfg    *GeminiConfig
	client *http.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg *GeminiConfig) *GeminiClient {
	if cfg == nil {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	return &GeminiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate sends the prompt and history to Gemini and returns the text.
// The system prompt is prepended to the first user message, matching the
// conversation shape the agents were tuned against.
func (c *GeminiClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	if c == nil || c.cfg == nil || c.cfg.APIKey == "" {
		return "", apperrors.Unconfigured(apperrors.CodeGenerateUnconfigured, "GOOGLE_API_KEY not set")
	}

	body, err := json.Marshal(c.buildBody(req))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeGenerateFailed, "failed to marshal request", apperrors.KindRequestFailed)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, c.cfg.Model, url.QueryEscape(c.cfg.APIKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.RequestFailed(apperrors.CodeGenerateFailed, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.Timeout(apperrors.CodeGenerateTimeout, "generate call timed out")
		}
		return "", apperrors.RequestFailed(apperrors.CodeGenerateFailed, "generate request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.RequestFailed(apperrors.CodeGenerateFailed, "failed to read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apperrors.RateLimited(apperrors.CodeGenerateRateLimit, "generate rate limit exceeded", retryAfter(resp))
	case resp.StatusCode != http.StatusOK:
		return "", apperrors.RequestFailed(apperrors.CodeGenerateFailed,
			fmt.Sprintf("generate API error (status %d)", resp.StatusCode), nil)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", apperrors.MalformedResponse(apperrors.CodeGenerateParseError, "failed to parse generate response", err)
	}

	text := parsed.text()
	if strings.TrimSpace(text) == "" {
		return "", apperrors.EmptyResult(apperrors.CodeGenerateEmpty, "generate returned no text")
	}
	return text, nil
}

// buildBody assembles the Gemini contents array from history plus the
// current prompt, folding the system prompt into the first user message.
func (c *GeminiClient) buildBody(req *GenerateRequest) map[string]any {
	contents := make([]map[string]any, 0, len(req.History)+1)
	systemUsed := false

	add := func(role, text string) {
		if req.System != "" && !systemUsed && role == "user" {
			text = req.System + "\n\n" + text
			systemUsed = true
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]string{{"text": text}},
		})
	}

	for _, m := range req.History {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		add(role, m.Content)
	}
	add("user", req.Prompt)

	return map[string]any{"contents": contents}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			return d
		}
	}
	return 60 * time.Second
}

// ============================================================
// Gemini API Types
// ============================================================

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
