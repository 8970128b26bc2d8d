// Package server wires the chat pipeline behind a chi router.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/touchline-ai/touchline/internal/agent"
	"github.com/touchline-ai/touchline/internal/conversation"
	"github.com/touchline-ai/touchline/internal/responder"
	"github.com/touchline-ai/touchline/internal/router"
	"github.com/touchline-ai/touchline/internal/stats"
)

// Config configures the server.
type Config struct {
	AllowedOrigins  []string
	MaxMessageChars int
	RatePerSecond   float64
	RateBurst       int
}

// Server handles the HTTP surface: one pipeline instance per inbound
// turn, turns for different conversations in parallel, turns for the
// same conversation serialized by the store's per-id lock.
type Server struct {
	cfg       *Config
	registry  *agent.Registry
	router    *router.Router
	responder *responder.Responder
	store     *conversation.Store
	stats     *stats.Collector
	log       *zap.Logger
	limiter   *rate.Limiter
}

// New creates the server. The collector is shared with the responder so
// turn and grounding counters land in one place.
func New(cfg *Config, registry *agent.Registry, rt *router.Router, rsp *responder.Responder, store *conversation.Store, collector *stats.Collector, log *zap.Logger) *Server {
	if cfg == nil {
		cfg = &Config{MaxMessageChars: 1000, RatePerSecond: 10, RateBurst: 20}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = 1000
	}
	if collector == nil {
		collector = stats.NewCollector()
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	}
	return &Server{
		cfg:       cfg,
		registry:  registry,
		router:    rt,
		responder: rsp,
		store:     store,
		stats:     collector,
		log:       log,
		limiter:   limiter,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/chat", s.handleChat)
	r.Get("/conversations/{id}", s.handleGetConversation)
	r.Delete("/conversations/{id}", s.handleDeleteConversation)

	return r
}

// corsMiddleware applies the configured origin allow-list.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		// "https://*.vercel.app" style wildcard
		if prefix, suffix, ok := strings.Cut(allowed, "*"); ok {
			if strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
				return true
			}
		}
	}
	return false
}

// rateLimitMiddleware rejects bursts beyond the configured rate.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, ErrorResponse{Detail: detail})
}
