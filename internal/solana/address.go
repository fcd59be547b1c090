package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Well-known program and mint addresses.
const (
	WrappedSOLMint    = "So11111111111111111111111111111111111111112"
	MetaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
)

// PublicKeyLength is the size of an ed25519 public key.
const PublicKeyLength = 32

// ValidatePublicKey checks that addr is a base58-encoded 32-byte public key.
func ValidatePublicKey(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode %q: %w", addr, err)
	}
	if len(decoded) != PublicKeyLength {
		return fmt.Errorf("address %q is %d bytes, want %d", addr, len(decoded), PublicKeyLength)
	}
	return nil
}

// ShortAddress renders addr as its first and last four characters joined by
// "...", counting runes. Inputs shorter than four runes repeat in full on both
// sides. Empty addresses render as an em dash.
func ShortAddress(addr string) string {
	if addr == "" {
		return "—"
	}
	r := []rune(addr)
	n := min(4, len(r))
	return string(r[:n]) + "..." + string(r[len(r)-n:])
}
