package normalization

import (
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-alerts/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestNormalize_TopLevel(t *testing.T) {
	tx := domain.RawTransaction{
		TokenTransfers: []domain.TopLevelTransfer{
			{Mint: "m1", TokenAmount: decimal.NewFromInt(100), FromUserAccount: "A", ToUserAccount: "B", Decimals: intPtr(2)},
			{Mint: "m2", TokenAmount: decimal.NewFromInt(5), FromAccount: "C", ToTokenAccount: "ata-D"},
		},
	}

	got := Normalize(tx)
	require.Len(t, got, 2)

	assert.Equal(t, "m1", got[0].TokenID)
	assert.Equal(t, "100", got[0].RawAmount.String())
	assert.Equal(t, "A", got[0].FromAccount)
	assert.Equal(t, "B", got[0].ToAccount)
	require.NotNil(t, got[0].Decimals)
	assert.Equal(t, 2, *got[0].Decimals)
	assert.Equal(t, domain.ShapeTopLevel, got[0].Shape)

	assert.Equal(t, "C", got[1].FromAccount)
	assert.Equal(t, "ata-D", got[1].ToAccount)
	assert.Nil(t, got[1].Decimals)
}

func TestNormalize_PerAccountTakesPrecedence(t *testing.T) {
	tx := domain.RawTransaction{
		TokenTransfers: []domain.TopLevelTransfer{
			{Mint: "ignored", TokenAmount: decimal.NewFromInt(1), FromUserAccount: "X", ToUserAccount: "Y"},
		},
		AccountData: []domain.AccountData{
			{Account: "A", TokenBalanceChanges: []domain.BalanceChange{
				{Mint: "tok", RawTokenAmount: decimal.NewFromInt(-700), UserAccount: "A", Decimals: intPtr(3)},
			}},
			{Account: "B", TokenBalanceChanges: []domain.BalanceChange{
				{Mint: "tok", RawTokenAmount: decimal.NewFromInt(700), TokenAccount: "ata-B"},
			}},
		},
	}

	got := Normalize(tx)
	require.Len(t, got, 2)

	assert.Equal(t, "tok", got[0].TokenID)
	assert.Equal(t, "700", got[0].RawAmount.String())
	assert.Equal(t, "A", got[0].FromAccount)
	assert.Empty(t, got[0].ToAccount)
	assert.Equal(t, domain.ShapePerAccount, got[0].Shape)

	assert.Empty(t, got[1].FromAccount)
	assert.Equal(t, "ata-B", got[1].ToAccount)
}

func TestNormalize_EmptyPerAccountFallsBack(t *testing.T) {
	tx := domain.RawTransaction{
		TokenTransfers: []domain.TopLevelTransfer{
			{Mint: "m1", TokenAmount: decimal.NewFromInt(1), FromUserAccount: "A", ToUserAccount: "B"},
		},
		AccountData: []domain.AccountData{{Account: "A"}},
	}

	got := Normalize(tx)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].TokenID)
	assert.Equal(t, domain.ShapeTopLevel, got[0].Shape)
}

func TestNormalize_DefaultsSentinels(t *testing.T) {
	tx := domain.RawTransaction{
		TokenTransfers: []domain.TopLevelTransfer{{}},
	}

	got := Normalize(tx)
	require.Len(t, got, 1)
	assert.Equal(t, domain.UnknownToken, got[0].TokenID)
	assert.Equal(t, domain.UnknownAccount, got[0].FromAccount)
	assert.Empty(t, got[0].ToAccount)
	assert.True(t, got[0].RawAmount.IsZero())
}

func TestNormalize_PreservesOrder(t *testing.T) {
	var tx domain.RawTransaction
	for i := 0; i < 20; i++ {
		tx.TokenTransfers = append(tx.TokenTransfers, domain.TopLevelTransfer{
			Mint:        "m",
			TokenAmount: decimal.NewFromInt(int64(i)),
			ToAccount:   "B",
		})
	}

	got := Normalize(tx)
	require.Len(t, got, 20)
	for i, ct := range got {
		assert.Equal(t, int64(i), ct.RawAmount.IntPart())
	}
}

func TestCanonicalize_MismatchedTag(t *testing.T) {
	ct := Canonicalize(domain.RawTransfer{Shape: domain.ShapePerAccount})
	assert.Equal(t, domain.UnknownToken, ct.TokenID)
	assert.Equal(t, domain.UnknownAccount, ct.FromAccount)
}

// randomTransaction builds a transaction where every field is independently
// present, empty or oddly valued.
func randomTransaction(r *rand.Rand) domain.RawTransaction {
	pick := func() string {
		switch r.Intn(4) {
		case 0:
			return ""
		case 1:
			return " "
		case 2:
			return "addr"
		default:
			return "So11111111111111111111111111111111111111112"
		}
	}
	amount := func() decimal.Decimal {
		return decimal.NewFromInt(r.Int63n(2_000_000) - 1_000_000)
	}

	var tx domain.RawTransaction
	for i := r.Intn(4); i > 0; i-- {
		tx.TokenTransfers = append(tx.TokenTransfers, domain.TopLevelTransfer{
			Mint:             pick(),
			TokenAmount:      amount(),
			FromUserAccount:  pick(),
			ToUserAccount:    pick(),
			FromAccount:      pick(),
			ToAccount:        pick(),
			FromTokenAccount: pick(),
			ToTokenAccount:   pick(),
		})
	}
	for i := r.Intn(3); i > 0; i-- {
		ad := domain.AccountData{Account: pick()}
		for j := r.Intn(3); j > 0; j-- {
			ad.TokenBalanceChanges = append(ad.TokenBalanceChanges, domain.BalanceChange{
				Mint:           pick(),
				RawTokenAmount: amount(),
				UserAccount:    pick(),
				TokenAccount:   pick(),
			})
		}
		tx.AccountData = append(tx.AccountData, ad)
	}
	return tx
}

func TestNormalize_GeneratedInputsProperty(t *testing.T) {
	property := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		tx := randomTransaction(r)

		got := Normalize(tx)
		if len(got) != len(RawTransfers(tx)) {
			return false
		}
		for _, ct := range got {
			if ct.TokenID == "" {
				return false
			}
			if ct.FromAccount == "" && ct.ToAccount == "" {
				return false
			}
			if ct.RawAmount.IsNegative() {
				return false
			}
		}
		return true
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}
}
