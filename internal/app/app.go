// Package app assembles the alert pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"solana-alerts/internal/config"
	"solana-alerts/internal/enrichment"
	"solana-alerts/internal/fees"
	"solana-alerts/internal/metadata"
	"solana-alerts/internal/notify"
	"solana-alerts/internal/pipeline"
	"solana-alerts/internal/pricing"
	"solana-alerts/internal/solana"
	"solana-alerts/internal/storage"
	"solana-alerts/internal/storage/clickhouse"
	"solana-alerts/internal/storage/migrations"
	"solana-alerts/internal/storage/postgres"
)

// Options controls what Build wires beyond the configuration.
type Options struct {
	LogOutput io.Writer // defaults to os.Stdout
	LogFlags  int

	// Stream enables the WebSocket alert hub.
	Stream bool
	// SkipConfiguredSinks leaves out Telegram and Kafka.
	SkipConfiguredSinks bool
	// Sinks are appended after the configured ones.
	Sinks []notify.Notifier

	// MetadataStore and QuoteStore are used when the matching DSN is empty.
	MetadataStore storage.TokenMetadataStore
	QuoteStore    storage.PriceQuoteStore
}

// App is a fully wired pipeline and the resources it owns.
type App struct {
	Processor *pipeline.Processor
	Resolver  *metadata.Resolver
	Oracle    *pricing.Oracle
	Hub       *notify.Hub // nil unless Options.Stream
	Sinks     []notify.Notifier

	closers []func() error
}

// Build connects stores, creates sources and sinks and returns the pipeline.
// On error every resource opened so far is released.
func Build(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}
	newLogger := func(component string) *log.Logger {
		return log.New(opts.LogOutput, "["+component+"] ", opts.LogFlags)
	}

	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	metaStore := opts.MetadataStore
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.onClose(func() error { pool.Close(); return nil })
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		metaStore = postgres.NewTokenMetadataStore(pool)
	}

	quoteStore := opts.QuoteStore
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		a.onClose(conn.Close)
		quoteStore = clickhouse.NewPriceQuoteStore(conn)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var sources []metadata.Source
	if cfg.HeliusAPIKey != "" {
		sources = append(sources, metadata.NewHeliusSource(cfg.HeliusBaseURL, cfg.HeliusAPIKey,
			metadata.WithHTTPClient(httpClient)))
	}
	if cfg.SolanaRPCEndpoint != "" {
		rpc := solana.NewRPCClient(cfg.SolanaRPCEndpoint, solana.WithTimeout(cfg.HTTPTimeout))
		sources = append(sources, metadata.NewOnChainSource(rpc))
	}

	a.Resolver = metadata.NewResolver(metadata.Options{
		Sources: sources,
		Store:   metaStore,
		Timeout: cfg.HTTPTimeout,
		Logger:  newLogger("metadata"),
	})

	a.Oracle = pricing.NewOracle(pricing.Options{
		Source: pricing.NewCoinGeckoSource(cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey,
			pricing.WithHTTPClient(httpClient)),
		Symbols: cfg.PriceIDs,
		Gate:    pricing.NewGate(cfg.PriceMinInterval, nil),
		Store:   quoteStore,
		Timeout: cfg.HTTPTimeout,
		Logger:  newLogger("pricing"),
	})

	feeFilter, err := fees.NewValidatedFilter(cfg.FeeWallets)
	if err != nil {
		return nil, fmt.Errorf("fee wallets: %w", err)
	}

	notifyLogger := newLogger("notify")
	if !opts.SkipConfiguredSinks {
		if cfg.TelegramEnabled() {
			a.Sinks = append(a.Sinks, notify.NewTelegram(cfg.TelegramBaseURL, cfg.TelegramToken, cfg.TelegramChatID,
				notify.WithHTTPClient(httpClient), notify.WithLogger(notifyLogger)))
		}
		if cfg.KafkaEnabled() {
			k, err := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
			if err != nil {
				return nil, err
			}
			a.onClose(k.Close)
			a.Sinks = append(a.Sinks, k)
		}
	}
	if opts.Stream {
		a.Hub = notify.NewHub(nil, notifyLogger)
		a.onClose(a.Hub.Close)
		a.Sinks = append(a.Sinks, a.Hub)
	}
	a.Sinks = append(a.Sinks, opts.Sinks...)

	enricher := enrichment.New(enrichment.Options{
		Resolver: a.Resolver,
		Oracle:   a.Oracle,
		Fees:     feeFilter,
		Logger:   newLogger("enrichment"),
	})

	var sink notify.Notifier
	if len(a.Sinks) > 0 {
		sink = notify.Multi(a.Sinks)
	}
	a.Processor = pipeline.NewProcessor(pipeline.Options{
		Enricher: enricher,
		Notifier: sink,
		Logger:   newLogger("pipeline"),
	})
	return a, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
