// Package main is the entry point for the smartfilter API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"smartfilter/internal/config"
	v1 "smartfilter/internal/infrastructure/http/v1"
	"smartfilter/internal/infrastructure/metrics"
	"smartfilter/pkg/logger"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("SMARTFILTER_ENV_FILE")); err != nil {
		fmt.Printf("failed to load env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("SMARTFILTER_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting smartfilter server", "storage", cfg.Storage.Driver)

	var m *metrics.Metrics
	if *cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// --- Storage backend and compiler ---
	b, err := setupBackend(ctx, cfg, log, m)
	if err != nil {
		log.Fatalw("failed to set up storage", "driver", cfg.Storage.Driver, "error", err)
	}
	defer b.Close()

	log.Infow("filter compiler initialized",
		"enabled", b.compiler.Enabled(),
		"max_relation_depth", b.compiler.Settings().MaxRelationDepth,
		"max_filters", b.compiler.Settings().MaxFilters,
		"entities", len(b.listers),
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		Compiler:         b.compiler,
		Listers:          b.listers,
		MetadataRegistry: b.registry,
		Pool:             b.pool,
		Storage:          cfg.Storage.Driver,
		Metrics:          m,
	})

	// --- HTTP Server ---
	port := strconv.Itoa(cfg.HTTP.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
