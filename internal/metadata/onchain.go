package metadata

import (
	"context"
	"fmt"
	"time"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/solana"
)

// OnChainSource reads metadata straight from the chain: decimals from the
// SPL mint account and name/symbol from its Metaplex metadata account.
type OnChainSource struct {
	rpc solana.AccountReader
}

// NewOnChainSource creates an on-chain metadata source.
func NewOnChainSource(rpc solana.AccountReader) *OnChainSource {
	return &OnChainSource{rpc: rpc}
}

var _ Source = (*OnChainSource)(nil)

// Name implements Source.
func (s *OnChainSource) Name() string { return "onchain" }

// Fetch returns metadata for mint. A mint without a Metaplex account still
// resolves with empty name and symbol.
func (s *OnChainSource) Fetch(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	keys := []string{mint}
	pda, err := solana.MetadataPDA(mint)
	if err == nil {
		keys = append(keys, pda)
	}

	accounts, err := s.rpc.GetAccounts(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("get accounts for %s: %w", mint, err)
	}
	if len(accounts) == 0 || accounts[0] == nil {
		return nil, ErrNotFound
	}

	parsed, err := solana.ParseMint(accounts[0].Data)
	if err != nil {
		return nil, fmt.Errorf("parse mint %s: %w", mint, err)
	}

	meta := &domain.TokenMetadata{
		TokenID:   mint,
		Decimals:  parsed.Decimals,
		FetchedAt: time.Now(),
	}
	if len(accounts) < 2 || accounts[1] == nil {
		return meta, nil
	}
	if name, err := solana.ParseMetaplexMetadata(accounts[1].Data); err == nil {
		meta.DisplayName = name.Name
		meta.Symbol = name.Symbol
	}
	return meta, nil
}
