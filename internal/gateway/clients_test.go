package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/touchline-ai/touchline/internal/errors"
)

func geminiTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(&GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gemini-1.5-flash",
		Timeout: 2 * time.Second,
	})
}

func TestGeminiGenerateParsesCandidates(t *testing.T) {
	var gotBody map[string]any
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Arsenal sit "},{"text":"second."}]}}]}`))
	})

	got, err := client.Generate(context.Background(), &GenerateRequest{
		System: "You are the Premier League specialist.",
		History: []Message{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi there"},
		},
		Prompt: "where are arsenal in the table?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Arsenal sit second.", got)

	// System prompt is folded into the first user turn; assistant turns
	// are sent with the "model" role.
	contents := gotBody["contents"].([]any)
	require.Len(t, contents, 3)
	first := contents[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	firstText := first["parts"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, firstText, "You are the Premier League specialist.")
	assert.Contains(t, firstText, "hello")
	second := contents[1].(map[string]any)
	assert.Equal(t, "model", second["role"])
}

func TestGeminiGenerateRateLimit(t *testing.T) {
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "q"})
	require.Error(t, err)

	var e *apperrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperrors.KindRateLimited, e.Kind)
	assert.True(t, e.Retryable)
	assert.Equal(t, 7*time.Second, e.RetryAfter)
}

func TestGeminiGenerateEmptyCandidates(t *testing.T) {
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindEmptyResult))
}

func TestGeminiGenerateMalformedResponse(t *testing.T) {
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": not json`))
	})

	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindMalformedResponse))
}

func TestGeminiGenerateServerError(t *testing.T) {
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindRequestFailed))
	assert.False(t, apperrors.IsRetryable(err))
}

func TestGeminiGenerateUnconfigured(t *testing.T) {
	client := NewGeminiClient(&GeminiConfig{})
	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnconfigured))
}

func searchTestClient(t *testing.T, handler http.HandlerFunc) *CustomSearchClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCustomSearchClient(&CustomSearchConfig{
		APIKey:   "test-key",
		EngineID: "test-cx",
		BaseURL:  srv.URL,
		Timeout:  2 * time.Second,
	})
}

func TestCustomSearchParsesItems(t *testing.T) {
	client := searchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "arsenal fixtures", q.Get("q"))
		assert.Equal(t, "5", q.Get("num"))
		assert.Equal(t, "active", q.Get("safe"))
		w.Write([]byte(`{"items":[
			{"title":"Arsenal Fixtures","link":"https://example.com/a","snippet":"Upcoming matches","displayLink":"example.com"},
			{"title":"Premier League","link":"https://example.com/b","snippet":"Table","displayLink":"example.com"}
		]}`))
	})

	results, err := client.Search(context.Background(), "arsenal fixtures", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Arsenal Fixtures", results[0].Title)
	assert.Equal(t, "https://example.com/a", results[0].Link)
	assert.Equal(t, "example.com", results[0].DisplayLink)
}

func TestCustomSearchClampsResultCount(t *testing.T) {
	var gotNum string
	client := searchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotNum = r.URL.Query().Get("num")
		w.Write([]byte(`{"items":[{"title":"t","link":"l","snippet":"s","displayLink":"d"}]}`))
	})

	_, err := client.Search(context.Background(), "q", 50)
	require.NoError(t, err)
	assert.Equal(t, "10", gotNum)
}

func TestCustomSearchNoItems(t *testing.T) {
	client := searchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.Search(context.Background(), "nothing matches this", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindEmptyResult))
}

func TestCustomSearchRateLimit(t *testing.T) {
	client := searchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindRateLimited))
}

func TestCustomSearchUnconfigured(t *testing.T) {
	client := NewCustomSearchClient(&CustomSearchConfig{APIKey: "key-only"})
	_, err := client.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnconfigured))
}
