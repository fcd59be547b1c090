package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/storage"
)

func TestPriceQuoteStore_GetBySymbolNewestFirst(t *testing.T) {
	store := NewPriceQuoteStore()
	ctx := context.Background()

	base := time.Unix(1704067200, 0)
	for i, price := range []float64{100, 101, 102} {
		q := &domain.PriceQuote{Symbol: "sol", PriceID: "solana", USDPrice: price, FetchedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.Insert(ctx, q); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetBySymbol(ctx, "sol", 2)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(got))
	}
	if got[0].USDPrice != 102 || got[1].USDPrice != 101 {
		t.Errorf("unexpected order: %v, %v", got[0].USDPrice, got[1].USDPrice)
	}
}

func TestPriceQuoteStore_RejectsUnknown(t *testing.T) {
	store := NewPriceQuoteStore()
	ctx := context.Background()

	err := store.Insert(ctx, &domain.PriceQuote{Symbol: "sol"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	_, err = store.GetBySymbol(ctx, "sol", 0)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero limit, got %v", err)
	}
}

func TestPriceQuoteStore_EmptySymbol(t *testing.T) {
	store := NewPriceQuoteStore()

	got, err := store.GetBySymbol(context.Background(), "bonk", 5)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no quotes, got %d", len(got))
	}
}
