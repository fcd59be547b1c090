package alert

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-alerts/internal/domain"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleTransfers() []domain.EnrichedTransfer {
	return []domain.EnrichedTransfer{
		{
			Transfer: domain.CanonicalTransfer{
				TokenID:     "So11111111111111111111111111111111111111112",
				FromAccount: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
				ToAccount:   "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
			},
			Metadata:     domain.TokenMetadata{DisplayName: "Wrapped SOL", Symbol: "SOL", Decimals: 9},
			Direction:    domain.DirectionOutgoing,
			ScaledAmount: decimal.RequireFromString("2"),
			USDValue:     decPtr("300"),
		},
		{
			Transfer: domain.CanonicalTransfer{
				TokenID:   "mintX",
				ToAccount: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
			},
			Metadata:     domain.TokenMetadata{DisplayName: "mint...intX", Symbol: "-", Degraded: true},
			Direction:    domain.DirectionIncoming,
			ScaledAmount: decimal.RequireFromString("1234.5678901"),
		},
	}
}

func TestFormat_Layout(t *testing.T) {
	msg := Format("New transaction: TRANSFER https://solscan.io/tx/abc", sampleTransfers(), nil)

	want := []string{
		"New transaction: TRANSFER https://solscan.io/tx/abc",
		"",
		"Outgoing: 2.000000 SOL (Wrapped SOL) ~$300.00",
		"From: 7xKX...gAsU → 9WzD...AWWM",
		"",
		"Incoming: 1234.567890 - (mint...intX)",
		"From: — → 9WzD...AWWM",
	}
	assert.Equal(t, want, msg.Lines)
}

func TestFormat_HeaderOnly(t *testing.T) {
	msg := Format("New transaction: UNKNOWN -", nil, nil)
	assert.Equal(t, []string{"New transaction: UNKNOWN -"}, msg.Lines)
	assert.Equal(t, "New transaction: UNKNOWN -", msg.Text())
}

func TestFormat_SwapLine(t *testing.T) {
	swap := &domain.SwapQuote{
		TokenID:        "tok",
		TokenSymbol:    "TOK",
		NativeSymbol:   "SOL",
		NativePerToken: decimal.RequireFromString("0.02"),
		USDPerToken:    decPtr("3"),
	}
	msg := Format("h", nil, swap)
	require.Len(t, msg.Lines, 3)
	assert.Equal(t, "", msg.Lines[1])
	assert.Equal(t, "Swap price: 1 TOK = 0.02 SOL (~$3.000000)", msg.Lines[2])

	swap.USDPerToken = nil
	swap.TokenSymbol = ""
	swap.NativePerToken = decimal.RequireFromString("0.0000000012345")
	msg = Format("h", nil, swap)
	assert.Equal(t, "Swap price: 1 - = 0.000000001 SOL", msg.Lines[2])
}

func TestFormat_USDRounding(t *testing.T) {
	transfers := []domain.EnrichedTransfer{{
		Metadata:     domain.TokenMetadata{DisplayName: "USD Coin", Symbol: "USDC"},
		ScaledAmount: decimal.RequireFromString("0.1234565"),
		USDValue:     decPtr("0.005"),
	}}
	msg := Format("h", transfers, nil)
	assert.Equal(t, "Outgoing: 0.123457 USDC (USD Coin) ~$0.01", msg.Lines[2])
}

func TestFormat_Idempotent(t *testing.T) {
	transfers := sampleTransfers()
	swap := &domain.SwapQuote{TokenSymbol: "X", NativeSymbol: "SOL", NativePerToken: decimal.RequireFromString("1.5")}

	first := Format("header", transfers, swap).Text()
	second := Format("header", transfers, swap).Text()
	assert.Equal(t, first, second)
}
