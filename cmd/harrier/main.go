// Harrier - Lender matching that deploys in 60 seconds.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/harrier/internal/api"
	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/engine"
	"github.com/opensource-finance/harrier/internal/matching"
	"github.com/opensource-finance/harrier/internal/policy"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/rules"
	"github.com/opensource-finance/harrier/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("HARRIER_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting harrier",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("HARRIER_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	// Environment overrides
	if dir := os.Getenv("HARRIER_POLICY_DIR"); dir != "" {
		cfg.Policies.Source = "file"
		cfg.Policies.Dir = dir
	}
	if src := os.Getenv("HARRIER_POLICY_SOURCE"); src != "" {
		cfg.Policies.Source = src
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"policy_source", cfg.Policies.Source,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Policy Provider
	provider, err := buildPolicyProvider(cfg, repo, cacheImpl)
	if err != nil {
		slog.Error("failed to initialize policy provider", "error", err)
		os.Exit(1)
	}

	lenderIDs, err := provider.LenderIDs(ctx)
	if err != nil {
		slog.Warn("failed to list lender policies", "error", err)
	}
	slog.Info("policy provider initialized",
		"source", cfg.Policies.Source,
		"lender_count", len(lenderIDs),
	)

	// Initialize Matching Service
	rules.RegisterBuiltins()
	matcher := matching.NewService(engine.New(), provider, cfg.Matching.MaxConcurrency)
	slog.Info("matching service initialized", "max_concurrency", cfg.Matching.MaxConcurrency)

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("HARRIER_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, matcher)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started")
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, provider, matcher, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("harrier is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("harrier shutdown complete")
}

// buildPolicyProvider wires the configured policy source, with an
// optional caching layer on top.
func buildPolicyProvider(cfg *domain.Config, repo domain.Repository, cacheImpl domain.Cache) (domain.PolicyProvider, error) {
	var provider domain.PolicyProvider

	switch cfg.Policies.Source {
	case "file":
		provider = policy.NewFileProvider(cfg.Policies.Dir)
	case "repository":
		provider = policy.NewRepositoryProvider(repo)
	default:
		return nil, fmt.Errorf("unsupported policy source: %s", cfg.Policies.Source)
	}

	if cfg.Policies.CacheTTL > 0 && cacheImpl != nil {
		ttl := time.Duration(cfg.Policies.CacheTTL) * time.Second
		provider = policy.NewCachedProvider(provider, cacheImpl, ttl)
	}

	return provider, nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🦅 HARRIER                  ║")
	fmt.Println("  ║        Lender Matching Engine             ║")
	fmt.Println("  ║    Every application finds its lender.    ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /match                     - Match an application against lenders")
	fmt.Println("    POST /applications              - Submit an application for async matching")
	fmt.Println("    GET  /applications/{id}/matches - List match results for an application")
	fmt.Println("    GET  /matches/{id}              - Get a match result by ID")
	fmt.Println("    GET  /lenders                   - List lenders")
	fmt.Println("    GET  /lenders/{id}              - Get a lender policy")
	fmt.Println("    POST /lenders/{id}/explain      - Explain a lender rejection")
	fmt.Println("    GET  /policies                  - List active policies")
	fmt.Println("    PUT  /policies/{id}             - Create or update a policy")
	fmt.Println("    POST /policies/reload           - Hot-reload policies")
	fmt.Println("    GET  /health                    - Health check")
	fmt.Println()
}
