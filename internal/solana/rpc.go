package solana

import "context"

// AccountReader reads raw account state over Solana JSON-RPC.
type AccountReader interface {
	// GetAccounts returns one entry per key in request order. Entries for
	// accounts that do not exist are nil.
	GetAccounts(ctx context.Context, pubkeys ...string) ([]*AccountInfo, error)
}

// AccountInfo is the subset of account state needed to decode token data.
type AccountInfo struct {
	Owner    string
	Lamports uint64
	Data     string // base64
}
