package metadata

import (
	"context"
	"errors"
	"strings"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/solana"
)

// ErrNotFound is returned by a Source that has no metadata for a mint.
var ErrNotFound = errors.New("token metadata not found")

// Source fetches metadata for a single mint from an external service.
// Returned metadata may leave fields empty; the resolver fills sentinels.
type Source interface {
	Name() string
	Fetch(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}

// BatchSource is a Source that can resolve many mints in one request.
// Mints the service does not know are absent from the result map.
type BatchSource interface {
	Source
	FetchBatch(ctx context.Context, mints []string) (map[string]*domain.TokenMetadata, error)
}

// Degraded returns the sentinel metadata used when a lookup fails.
func Degraded(tokenID string) domain.TokenMetadata {
	return domain.TokenMetadata{
		TokenID:     tokenID,
		DisplayName: solana.ShortAddress(tokenID),
		Symbol:      domain.SymbolUnknown,
		Decimals:    0,
		Degraded:    true,
	}
}

// WrappedSOL is the fixed metadata of the native asset's wrapped mint.
func WrappedSOL() domain.TokenMetadata {
	return domain.TokenMetadata{
		TokenID:     solana.WrappedSOLMint,
		DisplayName: "Wrapped SOL",
		Symbol:      "SOL",
		Decimals:    9,
	}
}

// complete fills empty fields of a fetched value with sentinels.
func complete(tokenID string, m *domain.TokenMetadata) domain.TokenMetadata {
	out := *m
	out.TokenID = tokenID
	out.DisplayName = cleanString(out.DisplayName)
	out.Symbol = cleanString(out.Symbol)
	if out.DisplayName == "" {
		out.DisplayName = solana.ShortAddress(tokenID)
	}
	if out.Symbol == "" {
		out.Symbol = domain.SymbolUnknown
	}
	if !domain.ValidDecimals(out.Decimals) {
		out.Decimals = 0
	}
	out.Degraded = false
	return out
}

// cleanString strips the NUL padding Metaplex leaves in fixed-width strings.
func cleanString(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
