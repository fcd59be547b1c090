// Package main replays a saved webhook payload through the alert pipeline
// and prints the rendered alerts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"solana-alerts/internal/app"
	"solana-alerts/internal/config"
	"solana-alerts/internal/domain"
	"solana-alerts/internal/notify"
	"solana-alerts/internal/storage/memory"
	"solana-alerts/internal/webhook"
)

func main() {
	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Printf("Ignoring .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Invalid environment: %v", err)
	}

	// Parse flags (env vars as defaults)
	cfg.RegisterFlags(flag.CommandLine)
	payloadPath := flag.String("payload", "", "Webhook payload file, or - for stdin (required)")
	deliver := flag.Bool("deliver", false, "Also deliver to configured Telegram/Kafka sinks")
	outputJSON := flag.Bool("json", false, "Print alert envelopes as JSON lines")
	showQuotes := flag.Bool("quotes", false, "Print price quotes fetched during the replay")
	flag.Parse()

	if *payloadPath == "" {
		logger.Fatal("--payload is required")
	}
	if err := cfg.ValidateOffline(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	body, err := readPayload(*payloadPath)
	if err != nil {
		logger.Fatalf("read payload: %v", err)
	}
	txs, err := webhook.ParsePayload(body)
	if err != nil {
		logger.Fatalf("parse payload: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var out notify.Notifier = notify.NewWriter(os.Stdout)
	if *outputJSON {
		out = &jsonLines{enc: json.NewEncoder(os.Stdout)}
	}

	quotes := memory.NewPriceQuoteStore()
	a, err := app.Build(ctx, cfg, app.Options{
		LogOutput:           os.Stderr,
		LogFlags:            log.LstdFlags,
		SkipConfiguredSinks: !*deliver,
		Sinks:               []notify.Notifier{out},
		MetadataStore:       memory.NewTokenMetadataStore(),
		QuoteStore:          quotes,
	})
	if err != nil {
		logger.Fatalf("Failed to build pipeline: %v", err)
	}
	defer a.Close()

	start := time.Now()
	res := a.Processor.ProcessBatch(ctx, txs)
	logger.Printf("Replayed %d transactions (%d failed) in %v", res.Processed, res.Failed, time.Since(start))

	if *showQuotes {
		printQuotes(ctx, logger, quotes, cfg.PriceIDs)
	}
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printQuotes(ctx context.Context, logger *log.Logger, store *memory.PriceQuoteStore, symbols map[string]string) {
	names := make([]string, 0, len(symbols))
	for sym := range symbols {
		names = append(names, sym)
	}
	sort.Strings(names)

	for _, sym := range names {
		list, err := store.GetBySymbol(ctx, sym, 1)
		if err != nil || len(list) == 0 {
			continue
		}
		q := list[0]
		logger.Printf("quote %s (%s): $%.6f at %s", q.Symbol, q.PriceID, q.USDPrice, q.FetchedAt.Format(time.RFC3339))
	}
}

// jsonLines prints one alert envelope per line.
type jsonLines struct {
	enc *json.Encoder
}

func (j *jsonLines) Name() string { return "json" }

func (j *jsonLines) Notify(_ context.Context, msg domain.AlertMessage) error {
	if err := j.enc.Encode(notify.NewEnvelope(msg, time.Now())); err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	return nil
}
