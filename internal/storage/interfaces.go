package storage

import (
	"context"

	"solana-alerts/internal/domain"
)

// TokenMetadataStore persists resolved token metadata across restarts.
// It backs the in-process metadata cache and never stores degraded values.
type TokenMetadataStore interface {
	// Upsert saves metadata keyed by mint. Returns ErrInvalidInput for degraded
	// or keyless metadata.
	Upsert(ctx context.Context, m *domain.TokenMetadata) error

	// GetByMint retrieves metadata by mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}

// PriceQuoteStore is an append-only log of quotes fetched from the price service.
type PriceQuoteStore interface {
	// Insert appends a quote. Returns ErrInvalidInput for unknown (zero) prices.
	Insert(ctx context.Context, q *domain.PriceQuote) error

	// GetBySymbol returns up to limit most recent quotes for symbol, newest first.
	GetBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.PriceQuote, error)
}

// ValidateMetadata checks that m can be persisted.
func ValidateMetadata(m *domain.TokenMetadata) error {
	if m == nil || m.TokenID == "" || m.Degraded || !domain.ValidDecimals(m.Decimals) {
		return ErrInvalidInput
	}
	return nil
}

// ValidateQuote checks that q can be persisted.
func ValidateQuote(q *domain.PriceQuote) error {
	if q == nil || q.Symbol == "" || !q.Known() {
		return ErrInvalidInput
	}
	return nil
}
