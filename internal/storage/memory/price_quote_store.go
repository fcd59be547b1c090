package memory

import (
	"context"
	"sort"
	"sync"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/storage"
)

// PriceQuoteStore is an in-memory implementation of storage.PriceQuoteStore.
type PriceQuoteStore struct {
	mu       sync.RWMutex
	bySymbol map[string][]*domain.PriceQuote
}

// NewPriceQuoteStore creates a new in-memory price quote log.
func NewPriceQuoteStore() *PriceQuoteStore {
	return &PriceQuoteStore{
		bySymbol: make(map[string][]*domain.PriceQuote),
	}
}

// Insert appends a quote.
func (s *PriceQuoteStore) Insert(_ context.Context, q *domain.PriceQuote) error {
	if err := storage.ValidateQuote(q); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quoteCopy := *q
	s.bySymbol[q.Symbol] = append(s.bySymbol[q.Symbol], &quoteCopy)
	return nil
}

// GetBySymbol returns up to limit most recent quotes for symbol, newest first.
func (s *PriceQuoteStore) GetBySymbol(_ context.Context, symbol string, limit int) ([]*domain.PriceQuote, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := s.bySymbol[symbol]
	result := make([]*domain.PriceQuote, 0, len(quotes))
	for _, q := range quotes {
		quoteCopy := *q
		result = append(result, &quoteCopy)
	}

	// Stable so equal timestamps keep newest-inserted first after the reverse.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FetchedAt.Before(result[j].FetchedAt)
	})
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.PriceQuoteStore = (*PriceQuoteStore)(nil)
