package domain

import "time"

// SymbolUnknown is rendered when a token symbol cannot be resolved.
const SymbolUnknown = "-"

// MaxDecimals is the largest precision an SPL mint can declare (u8).
const MaxDecimals = 255

// ValidDecimals reports whether d is a precision a mint can declare.
func ValidDecimals(d int) bool {
	return d >= 0 && d <= MaxDecimals
}

// TokenMetadata is the resolved identity of a token.
type TokenMetadata struct {
	TokenID     string // mint address
	DisplayName string
	Symbol      string
	Decimals    int
	Degraded    bool      // true when built from sentinels after a failed lookup
	FetchedAt   time.Time // zero for fixed and degraded values
}

// PriceQuote is the last known USD price of a symbol. A zero price means unknown.
type PriceQuote struct {
	Symbol    string
	PriceID   string
	USDPrice  float64
	FetchedAt time.Time
}

// Known reports whether the quote carries a usable price.
func (q PriceQuote) Known() bool {
	return q.USDPrice > 0
}
