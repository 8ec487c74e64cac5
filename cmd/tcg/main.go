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

	"github.com/joho/godotenv"

	"github.com/J3698/tcg/api"
	"github.com/J3698/tcg/cache"
	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/ebay"
	"github.com/J3698/tcg/psa"
	"github.com/J3698/tcg/scan"
	"github.com/J3698/tcg/scrape"
	"github.com/J3698/tcg/store"
	"github.com/J3698/tcg/vision"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	_ = godotenv.Load()
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("tcg starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"marketplace", cfg.Marketplace.BaseURL,
	)

	// ── 3. Connect storage ──────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.Connect(ctx, cfg.Database.URL)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── 4. Build the pipeline components ────────────────────────────
	fetcher, err := ebay.NewFetcher(cfg.Marketplace)
	if err != nil {
		slog.Error("failed to initialise fetcher", "error", err)
		os.Exit(1)
	}

	controller := scrape.NewController(fetcher, cfg.Scrape)
	visionClient := vision.NewClient(cfg.Vision, nil)
	registry := psa.NewClient(cfg.Registry)
	certCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)

	resolver, err := scan.NewURLResolver(cfg.Images.BaseURL)
	if err != nil {
		slog.Error("failed to initialise image resolver", "error", err)
		os.Exit(1)
	}

	orchestrator := scan.NewOrchestrator(resolver, visionClient, registry, controller, st, certCache)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(orchestrator, fetcher, orchestrator, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("tcg stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
