// Package gateway provides the external call gateway.
package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/touchline-ai/touchline/internal/cache"
	apperrors "github.com/touchline-ai/touchline/internal/errors"
)

// Config configures the gateway wrapper.
type Config struct {
	// Timeout bounds each individual upstream call.
	Timeout time.Duration

	// CacheTTL is how long successful results are memoized.
	CacheTTL time.Duration

	// MaxAttempts bounds the rate-limit retry loop.
	MaxAttempts int

	// BackoffBase is the initial backoff delay (doubled per attempt).
	BackoffBase time.Duration

	// CacheMaxEntries bounds each memoization cache.
	CacheMaxEntries int
}

// DefaultConfig returns default gateway settings.
func DefaultConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		CacheTTL:        5 * time.Minute,
		MaxAttempts:     3,
		BackoffBase:     1 * time.Second,
		CacheMaxEntries: 1000,
	}
}

// Gateway wraps a Generator and a Searcher with caching, bounded
// timeouts, and the retry policy. Both caches are process-wide shared
// state, safe for all concurrent pipelines.
type Gateway struct {
	gen    Generator
	search Searcher
	cfg    *Config
	log    *zap.Logger

	genCache    *cache.Cache[string]
	searchCache *cache.Cache[[]SearchResult]
}

// New creates a gateway around the given capabilities.
func New(gen Generator, search Searcher, cfg *Config, log *zap.Logger) *Gateway {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		gen:         gen,
		search:      search,
		cfg:         cfg,
		log:         log,
		genCache:    cache.New[string](cfg.CacheMaxEntries),
		searchCache: cache.New[[]SearchResult](cfg.CacheMaxEntries),
	}
}

// StartSweepers begins periodic eviction of expired cache entries.
func (g *Gateway) StartSweepers(ctx context.Context, interval time.Duration) {
	g.genCache.StartSweeper(ctx, interval)
	g.searchCache.StartSweeper(ctx, interval)
}

// Generate returns model text for the request, consulting the cache
// first. Rate limits are retried with exponential backoff; a timeout is
// retried once at the top level, outside the backoff loop.
func (g *Gateway) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	key := generateKey(req)

	text, err := g.genCache.GetOrFill(ctx, key, g.cfg.CacheTTL, func() (string, error) {
		return callUpstream(ctx, g.cfg, func(cctx context.Context) (string, error) {
			return g.gen.Generate(cctx, req)
		})
	})
	if err != nil {
		g.log.Warn("generate failed", zap.String("kind", apperrors.GetKind(err).String()), zap.Error(err))
		return "", err
	}
	return text, nil
}

// Search returns ranked results for the query, consulting the cache
// first. Same retry policy as Generate.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	key := searchKey(query, maxResults)

	results, err := g.searchCache.GetOrFill(ctx, key, g.cfg.CacheTTL, func() ([]SearchResult, error) {
		return callUpstream(ctx, g.cfg, func(cctx context.Context) ([]SearchResult, error) {
			return g.search.Search(cctx, query, maxResults)
		})
	})
	if err != nil {
		g.log.Warn("search failed", zap.String("query", query), zap.String("kind", apperrors.GetKind(err).String()), zap.Error(err))
		return nil, err
	}
	return results, nil
}

// callUpstream applies the per-call timeout and the retry policy, then
// grants one whole extra pass if the first surfaced a timeout.
func callUpstream[T any](ctx context.Context, cfg *Config, fn func(context.Context) (T, error)) (T, error) {
	policy := &apperrors.Policy{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.BackoffBase,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		RetryIf:      apperrors.IsRetryable,
	}

	attempt := func() (T, error) {
		return apperrors.DoWithResult(ctx, policy, func() (T, error) {
			cctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
			return fn(cctx)
		})
	}

	v, err := attempt()
	if err != nil && apperrors.IsKind(err, apperrors.KindTimeout) && ctx.Err() == nil {
		return attempt()
	}
	return v, err
}

// ============================================================
// Cache Keys
// ============================================================

// generateKey derives a deterministic key from the operation name and
// its normalized inputs.
func generateKey(req *GenerateRequest) string {
	h := sha256.New()
	h.Write([]byte("generate\x00"))
	h.Write([]byte(normalize(req.System)))
	h.Write([]byte{0})
	h.Write([]byte(normalize(req.Prompt)))
	for _, m := range req.History {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(normalize(m.Content)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func searchKey(query string, maxResults int) string {
	h := sha256.New()
	fmt.Fprintf(h, "search\x00%s\x00%s", normalize(query), strconv.Itoa(maxResults))
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
