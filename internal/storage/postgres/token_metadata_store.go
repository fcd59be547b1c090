package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
	"solana-alerts/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Upsert saves metadata keyed by mint, replacing any earlier row.
func (s *TokenMetadataStore) Upsert(ctx context.Context, m *domain.TokenMetadata) (err error) {
	if err := storage.ValidateMetadata(m); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "upsert_token_metadata", time.Since(start).Seconds(), err)
	}()

	query := `
		INSERT INTO token_metadata (mint, display_name, symbol, decimals, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mint) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			symbol       = EXCLUDED.symbol,
			decimals     = EXCLUDED.decimals,
			fetched_at   = EXCLUDED.fetched_at,
			updated_at   = now()
	`

	fetchedAt := m.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	if _, err = s.pool.Exec(ctx, query, m.TokenID, m.DisplayName, m.Symbol, m.Decimals, fetchedAt); err != nil {
		return translate("upsert token metadata", err)
	}
	return nil
}

// GetByMint retrieves metadata by mint address. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByMint(ctx context.Context, mint string) (m *domain.TokenMetadata, err error) {
	start := time.Now()
	defer func() {
		observed := err
		if observed == storage.ErrNotFound {
			observed = nil
		}
		observability.RecordDBQuery("postgres", "get_token_metadata", time.Since(start).Seconds(), observed)
	}()

	query := `
		SELECT mint, display_name, symbol, decimals, fetched_at
		FROM token_metadata
		WHERE mint = $1
	`

	m, err = scanTokenMetadata(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		return nil, translate("get token metadata by mint", err)
	}
	return m, nil
}

// scanTokenMetadata scans a single row into TokenMetadata.
func scanTokenMetadata(row pgx.Row) (*domain.TokenMetadata, error) {
	var m domain.TokenMetadata

	err := row.Scan(
		&m.TokenID,
		&m.DisplayName,
		&m.Symbol,
		&m.Decimals,
		&m.FetchedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
