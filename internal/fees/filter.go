// Package fees recognises transfers to or from protocol fee collectors.
package fees

import (
	"fmt"
	"strings"

	"solana-alerts/internal/solana"
)

// DefaultAddresses are the fee collectors filtered when none are configured.
func DefaultAddresses() []string {
	return []string{
		"E2HzWjvbrYyfU9uBAGz1FUGXo7xYzvJrJtP8FFmrSzAa", // Magic Eden
		"9hQBGnKqxYfaP3dtkEyYVLVwzYEEVK2vWa9V6rK4ZciE",
	}
}

// Filter is a fixed set of fee-collector addresses. Safe for concurrent use.
type Filter struct {
	addresses map[string]struct{}
}

// NewFilter creates a filter over addresses. Blank entries are ignored.
func NewFilter(addresses []string) *Filter {
	f := &Filter{addresses: make(map[string]struct{}, len(addresses))}
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			f.addresses[a] = struct{}{}
		}
	}
	return f
}

// NewValidatedFilter is NewFilter but rejects entries that are not 32-byte
// base58 public keys.
func NewValidatedFilter(addresses []string) (*Filter, error) {
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a == "" {
			continue
		}
		if err := solana.ValidatePublicKey(a); err != nil {
			return nil, fmt.Errorf("fee address: %w", err)
		}
	}
	return NewFilter(addresses), nil
}

// IsFeeTransfer reports whether either endpoint is a fee collector.
func (f *Filter) IsFeeTransfer(from, to string) bool {
	return f.Contains(from) || f.Contains(to)
}

// Contains reports whether addr is a fee collector. Empty never matches.
func (f *Filter) Contains(addr string) bool {
	if f == nil || addr == "" {
		return false
	}
	_, ok := f.addresses[addr]
	return ok
}

// Len returns the number of addresses.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.addresses)
}
