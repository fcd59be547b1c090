package solana

import (
	"encoding/base64"
	"encoding/binary"
	"testing"
)

func encodeMint(supply uint64, decimals byte) string {
	data := make([]byte, 82)
	binary.LittleEndian.PutUint64(data[36:44], supply)
	data[44] = decimals
	data[45] = 1
	return base64.StdEncoding.EncodeToString(data)
}

func encodeMetaplex(name, symbol string) string {
	data := make([]byte, 65)
	data[0] = 4
	appendString := func(s string, padTo int) {
		padded := make([]byte, padTo)
		copy(padded, s)
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(padTo))
		data = append(data, lenBuf...)
		data = append(data, padded...)
	}
	appendString(name, 32)
	appendString(symbol, 10)
	data = append(data, make([]byte, 64)...)
	return base64.StdEncoding.EncodeToString(data)
}

func TestParseMint(t *testing.T) {
	info, err := ParseMint(encodeMint(5_000_000_000, 9))
	if err != nil {
		t.Fatalf("ParseMint: %v", err)
	}
	if info.Decimals != 9 {
		t.Errorf("decimals = %d, want 9", info.Decimals)
	}
	if info.Supply != 5_000_000_000 {
		t.Errorf("supply = %d, want 5000000000", info.Supply)
	}
}

func TestParseMint_Invalid(t *testing.T) {
	if _, err := ParseMint("!!!"); err == nil {
		t.Error("expected error for bad base64")
	}
	if _, err := ParseMint(base64.StdEncoding.EncodeToString(make([]byte, 10))); err == nil {
		t.Error("expected error for short data")
	}
}

func TestParseMetaplexMetadata(t *testing.T) {
	name, err := ParseMetaplexMetadata(encodeMetaplex("Bonk", "BONK"))
	if err != nil {
		t.Fatalf("ParseMetaplexMetadata: %v", err)
	}
	if name.Name != "Bonk" {
		t.Errorf("name = %q, want Bonk", name.Name)
	}
	if name.Symbol != "BONK" {
		t.Errorf("symbol = %q, want BONK", name.Symbol)
	}
}

func TestParseMetaplexMetadata_WrongKey(t *testing.T) {
	raw, _ := base64.StdEncoding.DecodeString(encodeMetaplex("X", "Y"))
	raw[0] = 1
	if _, err := ParseMetaplexMetadata(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Error("expected error for non-V1 key")
	}
}
