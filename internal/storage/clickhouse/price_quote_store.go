package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
	"solana-alerts/internal/storage"
)

// PriceQuoteStore implements storage.PriceQuoteStore using ClickHouse.
type PriceQuoteStore struct {
	conn *Conn
}

// NewPriceQuoteStore creates a new PriceQuoteStore.
func NewPriceQuoteStore(conn *Conn) *PriceQuoteStore {
	return &PriceQuoteStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceQuoteStore = (*PriceQuoteStore)(nil)

// Insert appends one quote.
func (s *PriceQuoteStore) Insert(ctx context.Context, q *domain.PriceQuote) (err error) {
	if err := storage.ValidateQuote(q); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_price_quote", time.Since(start).Seconds(), err)
	}()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_quotes (symbol, price_id, usd_price, fetched_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	fetchedAt := q.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	if err = batch.Append(q.Symbol, q.PriceID, q.USDPrice, fetchedAt.UTC()); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetBySymbol returns up to limit most recent quotes for symbol, newest first.
func (s *PriceQuoteStore) GetBySymbol(ctx context.Context, symbol string, limit int) (out []*domain.PriceQuote, err error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "get_price_quotes", time.Since(start).Seconds(), err)
	}()

	query := `
		SELECT symbol, price_id, usd_price, fetched_at
		FROM price_quotes
		WHERE symbol = ?
		ORDER BY fetched_at DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query price quotes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q domain.PriceQuote
		if err = rows.Scan(&q.Symbol, &q.PriceID, &q.USDPrice, &q.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan price quote row: %w", err)
		}
		out = append(out, &q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price quote rows: %w", err)
	}
	return out, nil
}
