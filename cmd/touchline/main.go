// Command touchline serves the UK sports conversational dispatcher.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/touchline-ai/touchline/internal/agent"
	"github.com/touchline-ai/touchline/internal/config"
	"github.com/touchline-ai/touchline/internal/conversation"
	"github.com/touchline-ai/touchline/internal/gateway"
	"github.com/touchline-ai/touchline/internal/grounding"
	"github.com/touchline-ai/touchline/internal/responder"
	"github.com/touchline-ai/touchline/internal/router"
	"github.com/touchline-ai/touchline/internal/server"
	"github.com/touchline-ai/touchline/internal/stats"
)

func main() {
	configPath := flag.String("config", "touchline.toml", "path to config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*configPath, log); err != nil {
		log.Fatal("touchline exited", zap.Error(err))
	}
}

func run(configPath string, log *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Refuse to serve with missing credentials rather than fail per-request.
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := conversation.Open(cfg.Store.Path, log.Named("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Reap(ctx, cfg.Store.MaxAge()); err != nil {
		log.Warn("startup reap failed", zap.Error(err))
	}
	store.StartReaper(ctx, cfg.Store.ReapInterval(), cfg.Store.MaxAge())

	gemini := gateway.NewGeminiClient(&gateway.GeminiConfig{
		APIKey:  cfg.Gateway.GoogleAPIKey,
		Model:   cfg.Gateway.GeminiModel,
		Timeout: cfg.Gateway.RequestTimeout(),
	})
	search := gateway.NewCustomSearchClient(&gateway.CustomSearchConfig{
		APIKey:   cfg.Gateway.SearchAPIKey,
		EngineID: cfg.Gateway.SearchEngineID,
		Timeout:  cfg.Gateway.RequestTimeout(),
	})

	gw := gateway.New(gemini, search, &gateway.Config{
		Timeout:         cfg.Gateway.RequestTimeout(),
		CacheTTL:        cfg.Gateway.CacheTTL(),
		MaxAttempts:     cfg.Gateway.MaxAttempts,
		BackoffBase:     cfg.Gateway.BackoffBase(),
		CacheMaxEntries: cfg.Cache.MaxEntries,
	}, log.Named("gateway"))
	gw.StartSweepers(ctx, cfg.Cache.SweepInterval())

	checker, err := grounding.NewChecker(&grounding.Config{
		MinSubstantialChars:   cfg.Grounding.MinSubstantialChars,
		IgnorancePhrases:      cfg.Grounding.IgnorancePhrases,
		TimeSensitivePatterns: cfg.Grounding.TimeSensitivePatterns,
	})
	if err != nil {
		return err
	}

	registry := agent.NewRegistry()
	collector := stats.NewCollector()

	rt := router.New(&router.Config{
		Registry:       registry,
		Generator:      gw,
		ReturnKeywords: cfg.Routing.ReturnToTriage,
		DefaultAgent:   agent.ID(cfg.Routing.DefaultAgent),
		Logger:         log.Named("router"),
	})

	rsp := responder.New(&responder.Config{
		Generator:  gw,
		Searcher:   gw,
		Checker:    checker,
		MaxResults: cfg.Gateway.MaxSearchResults,
		Stats:      collector,
		Logger:     log.Named("responder"),
	})

	srv := server.New(&server.Config{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxMessageChars: cfg.Server.MaxMessageChars,
		RatePerSecond:   cfg.Server.RatePerSecond,
		RateBurst:       cfg.Server.RateBurst,
	}, registry, rt, rsp, store, collector, log.Named("server"))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("touchline listening", zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
