// Package enrichment turns webhook transactions into enriched transfers ready
// for rendering.
package enrichment

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/normalization"
	"solana-alerts/internal/observability"
)

// Header defaults for transactions that omit these fields.
const (
	DefaultType      = "UNKNOWN"
	DefaultSignature = "-"
	ExplorerTxURL    = "https://solscan.io/tx/"
)

// MetadataResolver resolves token ids to metadata. It never fails.
type MetadataResolver interface {
	Resolve(ctx context.Context, tokenID string) domain.TokenMetadata
}

// BatchResolver is a MetadataResolver that can prefetch many ids at once.
type BatchResolver interface {
	MetadataResolver
	ResolveAll(ctx context.Context, tokenIDs []string) map[string]domain.TokenMetadata
}

// PriceOracle resolves a symbol to a USD quote; ok is false when unknown.
type PriceOracle interface {
	Lookup(ctx context.Context, symbol string) (domain.PriceQuote, bool)
}

// FeeFilter decides whether a transfer only moves protocol fees.
type FeeFilter interface {
	IsFeeTransfer(from, to string) bool
}

// Options configures an Enricher.
type Options struct {
	Resolver MetadataResolver
	Oracle   PriceOracle
	Fees     FeeFilter // optional

	// NativeSymbol is the price symbol of the native asset used to value
	// derived swap rates. Defaults to "SOL".
	NativeSymbol string

	Logger *log.Logger
}

// Enricher resolves identity and valuation for every transfer of a transaction.
type Enricher struct {
	resolver     MetadataResolver
	oracle       PriceOracle
	fees         FeeFilter
	nativeSymbol string
	logger       *log.Logger
}

// New creates an Enricher.
func New(opts Options) *Enricher {
	e := &Enricher{
		resolver:     opts.Resolver,
		oracle:       opts.Oracle,
		fees:         opts.Fees,
		nativeSymbol: opts.NativeSymbol,
		logger:       opts.Logger,
	}
	if e.nativeSymbol == "" {
		e.nativeSymbol = "SOL"
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	return e
}

// Enrich returns the header line, the non-fee transfers in payload order and
// an optional swap rate derived from the fee payer's balance changes.
func (e *Enricher) Enrich(ctx context.Context, tx domain.RawTransaction) (string, []domain.EnrichedTransfer, *domain.SwapQuote) {
	header := Header(tx)

	var kept []domain.CanonicalTransfer
	for _, ct := range normalization.Normalize(tx) {
		if e.fees != nil && e.fees.IsFeeTransfer(ct.FromAccount, ct.ToAccount) {
			observability.RecordTransfer("fee_filtered")
			continue
		}
		kept = append(kept, ct)
	}

	e.prefetch(ctx, kept)

	enriched := make([]domain.EnrichedTransfer, 0, len(kept))
	for _, ct := range kept {
		enriched = append(enriched, e.enrichTransfer(ctx, ct))
		observability.RecordTransfer("enriched")
	}

	native, _ := tx.NativeChange(tx.FeePayer)
	swap := DeriveSwap(tx.FeePayer, native, enriched)
	if swap != nil {
		swap.NativeSymbol = e.nativeSymbol
		if q, ok := e.oracle.Lookup(ctx, e.nativeSymbol); ok {
			usd := swap.NativePerToken.Mul(decimal.NewFromFloat(q.USDPrice))
			swap.USDPerToken = &usd
		}
	}

	return header, enriched, swap
}

// prefetch warms the resolver with one batched request when the transaction
// touches at least two distinct mints. A single mint is left to Resolve, which
// costs the same one request. Cached ids are skipped by the resolver.
func (e *Enricher) prefetch(ctx context.Context, transfers []domain.CanonicalTransfer) {
	batch, ok := e.resolver.(BatchResolver)
	if !ok {
		return
	}
	seen := make(map[string]struct{}, len(transfers))
	ids := make([]string, 0, len(transfers))
	for _, ct := range transfers {
		if _, dup := seen[ct.TokenID]; dup {
			continue
		}
		seen[ct.TokenID] = struct{}{}
		ids = append(ids, ct.TokenID)
	}
	if len(ids) < 2 {
		return
	}
	batch.ResolveAll(ctx, ids)
}

func (e *Enricher) enrichTransfer(ctx context.Context, ct domain.CanonicalTransfer) domain.EnrichedTransfer {
	meta := e.resolver.Resolve(ctx, ct.TokenID)

	decimals := meta.Decimals
	if decimals == 0 && ct.Decimals != nil && *ct.Decimals > 0 {
		decimals = *ct.Decimals
	}
	if !domain.ValidDecimals(decimals) {
		e.logger.Printf("transfer of %s: ignoring out of range decimals %d", ct.TokenID, decimals)
		decimals = 0
	}

	et := domain.EnrichedTransfer{
		Transfer:     ct,
		Metadata:     meta,
		Direction:    ClassifyDirection(ct),
		Decimals:     decimals,
		ScaledAmount: ct.RawAmount.Shift(int32(-decimals)),
	}

	if q, ok := e.oracle.Lookup(ctx, meta.Symbol); ok {
		quote := q
		usd := et.ScaledAmount.Mul(decimal.NewFromFloat(q.USDPrice))
		et.Quote = &quote
		et.USDValue = &usd
	}
	return et
}

// Header renders the transaction header line with an explorer link.
func Header(tx domain.RawTransaction) string {
	txType := tx.Type
	if txType == "" {
		txType = DefaultType
	}
	if tx.Signature == "" {
		return fmt.Sprintf("New transaction: %s %s", txType, DefaultSignature)
	}
	return fmt.Sprintf("New transaction: %s %s%s", txType, ExplorerTxURL, tx.Signature)
}
