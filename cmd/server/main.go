package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/cvparse/internal/api"
	"github.com/dgallion1/cvparse/internal/config"
	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/dgallion1/cvparse/internal/metrics"
	"github.com/dgallion1/cvparse/internal/parser"
	"github.com/dgallion1/cvparse/internal/pipeline"
	"github.com/dgallion1/cvparse/internal/store"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	llm, err := extract.NewCompleter(ctx, cfg.LLMProvider, cfg.LLMAPIKey(), cfg.LLMBaseURL, cfg.LLMModel)
	if err != nil {
		log.Error("llm client", "error", err)
		os.Exit(1)
	}

	results, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("result store", "error", err)
		os.Exit(1)
	}
	defer results.Close()

	m := metrics.New()

	// Initialize pipeline.
	runner := pipeline.NewRunner(llm, results, log, pipeline.RunnerOptions{
		Parser:               parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		MaxConcurrentExtract: cfg.MaxConcurrentExtract,
		Metrics:              m,
	})
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		JobTTL:    cfg.JobTTL,
	}, runner, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)

		// No handler can submit once the server is down.
		orch.Stop()
	}()

	log.Info("starting cvparse",
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"model", llm.Model(),
		"chunk_size", cfg.ChunkSize,
		"overlap", cfg.ChunkOverlap,
		"mode", cfg.ExtractMode,
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.RedisURL == "" {
		log.Info("using in-memory result store", "ttl", cfg.ResultTTL)
		return store.NewMemoryStore(cfg.ResultTTL), nil
	}
	rs, err := store.NewRedisStore(ctx, cfg.RedisURL, cfg.ResultTTL)
	if err != nil {
		return nil, err
	}
	log.Info("using redis result store", "ttl", cfg.ResultTTL)
	return rs, nil
}
