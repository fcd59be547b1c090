package solana

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// MintInfo holds the fields of an SPL Token mint account used for display.
type MintInfo struct {
	Supply   uint64
	Decimals int
}

// ParseMint parses base64 SPL Token Mint account data.
// SPL Token Mint layout (82 bytes):
// - mintAuthority: Option<Pubkey> (36 bytes: 4 + 32)
// - supply: u64 (8 bytes)
// - decimals: u8 (1 byte)
// - isInitialized: bool (1 byte)
// - freezeAuthority: Option<Pubkey> (36 bytes: 4 + 32)
func ParseMint(data string) (*MintInfo, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint data: %w", err)
	}
	if len(decoded) < 82 {
		return nil, fmt.Errorf("mint data too short: %d", len(decoded))
	}

	return &MintInfo{
		Supply:   binary.LittleEndian.Uint64(decoded[36:44]),
		Decimals: int(decoded[44]),
	}, nil
}

// TokenName is the name and symbol stored in a Metaplex metadata account.
type TokenName struct {
	Name   string
	Symbol string
}

// ParseMetaplexMetadata parses base64 Metaplex Token Metadata account data.
// Layout:
// - key: u8 (1 byte, 4 for MetadataV1)
// - updateAuthority: Pubkey (32 bytes)
// - mint: Pubkey (32 bytes)
// - name: String (4 + length bytes)
// - symbol: String (4 + length bytes)
// ...
func ParseMetaplexMetadata(data string) (*TokenName, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(decoded) < 69 {
		return nil, fmt.Errorf("metadata too short: %d", len(decoded))
	}
	if decoded[0] != 4 {
		return nil, fmt.Errorf("unexpected metadata key %d", decoded[0])
	}

	offset := 65
	name, offset, err := readBorshString(decoded, offset, 100)
	if err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	symbol, _, err := readBorshString(decoded, offset, 20)
	if err != nil {
		return nil, fmt.Errorf("read symbol: %w", err)
	}

	return &TokenName{Name: name, Symbol: symbol}, nil
}

// readBorshString reads a u32-length-prefixed string, trimming NUL padding.
func readBorshString(data []byte, offset, maxLen int) (string, int, error) {
	if offset+4 > len(data) {
		return "", offset, fmt.Errorf("truncated length at %d", offset)
	}
	n := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if n > maxLen || offset+n > len(data) {
		return "", offset, fmt.Errorf("invalid string length %d", n)
	}
	s := strings.TrimRight(string(data[offset:offset+n]), "\x00")
	return strings.TrimSpace(s), offset + n, nil
}
