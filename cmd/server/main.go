// Command server runs the vector database HTTP API: library/document/chunk
// storage, background index builds, and nearest-neighbor search.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"vectorbase/internal/api"
	"vectorbase/internal/auditlog"
	"vectorbase/internal/bootstrap"
	"vectorbase/internal/circuitbreaker"
	"vectorbase/internal/config"
	"vectorbase/internal/embeddings"
	"vectorbase/internal/indexmanager"
	"vectorbase/internal/logging"
	"vectorbase/internal/retry"
	"vectorbase/internal/service"
	"vectorbase/internal/snapshot"
	"vectorbase/internal/store"
)

func main() {
	addr := flag.String("addr", "", "HTTP server address, overrides PORT/HOST from config")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(logging.ParseLogLevel(cfg.Logging.Level))

	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build embedding service: %v", err)
	}

	st := store.New()
	snap := snapshot.New(cfg.Storage.DataDir, st, logger)
	idx := indexmanager.New(st, embedder, logger)

	audit, err := auditlog.Open(cfg.Storage.DataDir + "/audit.db")
	if err != nil {
		logger.Warn("audit log unavailable, build history will not be recorded", "error", err)
	} else {
		defer audit.Close()
		idx.SetBuildObserver(func(libraryID string, kind store.IndexerKind, startedAt time.Time, duration time.Duration, success bool, detail string) {
			if err := audit.Record(libraryID, kind, startedAt, duration, success, detail); err != nil {
				logger.Warn("failed to record build attempt", "library_id", libraryID, "error", err)
			}
		})
	}

	if err := bootstrap.Run(cfg, st, snap, logger); err != nil {
		log.Fatalf("failed to bootstrap store: %v", err)
	}

	svc := service.New(st, idx, snap, logger)
	router := api.NewRouter(cfg, svc, logger)

	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if *addr != "" {
		listenAddr = *addr
	}

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	printBanner(listenAddr)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// buildEmbedder wires the Cohere embedding provider through a response
// cache, rate limiter, retry, and circuit breaker, matching the resilience
// stack the rest of the package already implements.
func buildEmbedder(cfg *config.Config, logger logging.Logger) (embeddings.EmbeddingService, error) {
	cohereCfg := &embeddings.CohereConfig{
		APIKey:         cfg.Embedder.APIKey,
		BaseURL:        cfg.Embedder.BaseURL,
		Model:          cfg.Embedder.Model,
		Timeout:        cfg.Embedder.Timeout,
		CacheSize:      cfg.Embedder.CacheSize,
		CacheTTL:       cfg.Embedder.CacheTTL,
		RequestsPerMin: cfg.Embedder.RequestsPerMin,
	}

	base, err := embeddings.NewCohereService(cohereCfg, nil)
	if err != nil {
		return nil, err
	}

	retried := embeddings.NewRetryableEmbeddingService(base, &retry.Config{
		MaxAttempts:     3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.2,
	})

	guarded := embeddings.NewCircuitBreakerEmbeddingService(retried, &circuitbreaker.Config{
		FailureThreshold:      5,
		SuccessThreshold:      2,
		Timeout:               20 * time.Second,
		MaxConcurrentRequests: 10,
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("embedding service circuit breaker state change", "from", from, "to", to)
		},
	})

	return guarded, nil
}

func printBanner(addr string) {
	banner := color.New(color.FgCyan, color.Bold)
	banner.Println("----- vectorbase -----")
	fmt.Printf("listening on http://%s\n", addr)
	fmt.Printf("health check:   http://%s/health\n", addr)
	fmt.Printf("openapi doc:    http://%s/api/openapi.json\n", addr)
}
