// Package main runs the webhook alert service:
// - POST /webhook receives transaction batches and delivers alerts
// - GET /alerts/stream streams alerts over WebSocket
// - /health and /metrics for operations
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"solana-alerts/internal/app"
	"solana-alerts/internal/config"
	"solana-alerts/internal/observability"
	"solana-alerts/internal/webhook"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Printf("Ignoring .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Invalid environment: %v", err)
	}

	// Parse flags (env vars as defaults)
	cfg.RegisterFlags(flag.CommandLine)
	shutdownTimeout := flag.Duration("shutdown-timeout", 30*time.Second, "Time allowed for in-flight batches on shutdown")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.Options{
		LogFlags: log.LstdFlags | log.Lshortfile,
		Stream:   true,
	})
	if err != nil {
		logger.Fatalf("Failed to build pipeline: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Printf("Close: %v", err)
		}
	}()
	logSetup(logger, cfg, len(a.Sinks))

	mux := http.NewServeMux()
	mux.Handle("/webhook", webhook.NewHandler(webhook.Options{
		Secret:    cfg.WebhookSecret,
		Processor: a.Processor,
		Logger:    log.New(os.Stdout, "[webhook] ", log.LstdFlags|log.Lshortfile),
	}))
	mux.Handle("/alerts/stream", a.Hub)
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(func() { _ = a.Hub.Close() })

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("Listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Println("Shutting down, waiting for in-flight batches...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Printf("Server error: %v", err)
		return
	}
	logger.Println("Shutdown complete")
}

func logSetup(logger *log.Logger, cfg config.Config, sinks int) {
	logger.Printf("Metadata: helius=%t onchain=%t postgres=%t",
		cfg.HeliusAPIKey != "", cfg.SolanaRPCEndpoint != "", cfg.PostgresDSN != "")
	logger.Printf("Pricing: %d symbols, min interval %v, clickhouse=%t",
		len(cfg.PriceIDs), cfg.PriceMinInterval, cfg.ClickhouseDSN != "")
	logger.Printf("Fee wallets: %d, sinks: %d (telegram=%t kafka=%t stream=true)",
		len(cfg.FeeWallets), sinks, cfg.TelegramEnabled(), cfg.KafkaEnabled())
}
