// Package pipeline wires enrichment, formatting and delivery for webhook
// batches.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-alerts/internal/alert"
	"solana-alerts/internal/domain"
	"solana-alerts/internal/notify"
	"solana-alerts/internal/observability"
)

// Enricher produces the header, enriched transfers and swap rate for one
// transaction.
type Enricher interface {
	Enrich(ctx context.Context, tx domain.RawTransaction) (string, []domain.EnrichedTransfer, *domain.SwapQuote)
}

// Options configures a Processor.
type Options struct {
	Enricher Enricher
	Notifier notify.Notifier // optional
	Logger   *log.Logger
}

// Processor turns transactions into delivered alerts.
type Processor struct {
	enricher Enricher
	notifier notify.Notifier
	logger   *log.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(opts Options) *Processor {
	p := &Processor{
		enricher: opts.Enricher,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// BatchResult summarizes one ProcessBatch call.
type BatchResult struct {
	Processed int
	Failed    int // delivery failures or panics
}

// Process enriches, renders and delivers one transaction. Delivery failures
// are returned alongside the rendered message.
func (p *Processor) Process(ctx context.Context, tx domain.RawTransaction) (domain.AlertMessage, error) {
	start := time.Now()
	defer func() {
		observability.RecordTransaction(time.Since(start).Seconds())
	}()

	header, transfers, swap := p.enricher.Enrich(ctx, tx)
	msg := alert.Format(header, transfers, swap)
	msg.Signature = tx.Signature

	if p.notifier == nil {
		return msg, nil
	}
	if err := p.notifier.Notify(ctx, msg); err != nil {
		return msg, fmt.Errorf("deliver %s: %w", signatureOrDash(tx.Signature), err)
	}
	return msg, nil
}

// ProcessBatch handles transactions in order. A failing transaction is
// logged and does not stop the rest of the batch.
func (p *Processor) ProcessBatch(ctx context.Context, txs []domain.RawTransaction) BatchResult {
	var res BatchResult
	for i := range txs {
		if err := p.processOne(ctx, txs[i]); err != nil {
			p.logger.Printf("transaction %d/%d: %v", i+1, len(txs), err)
			res.Failed++
		}
		res.Processed++
	}
	return res
}

func (p *Processor) processOne(ctx context.Context, tx domain.RawTransaction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %s: %v", signatureOrDash(tx.Signature), r)
		}
	}()
	_, err = p.Process(ctx, tx)
	return err
}

func signatureOrDash(sig string) string {
	if sig == "" {
		return "-"
	}
	return sig
}
