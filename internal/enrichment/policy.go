package enrichment

import (
	"github.com/shopspring/decimal"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/solana"
)

// nativeDecimals converts lamports to SOL.
const nativeDecimals = 9

// ClassifyDirection labels a transfer incoming when only its receiver is
// known, and outgoing otherwise. It reads the payload's address fields and
// does not reconcile balances from any wallet's point of view.
func ClassifyDirection(ct domain.CanonicalTransfer) domain.Direction {
	if ct.ToAccount != "" && ct.FromAccount == "" {
		return domain.DirectionIncoming
	}
	return domain.DirectionOutgoing
}

// DeriveSwap infers an exchange rate when the fee payer's native balance
// moved one way and exactly one non-native token moved the other way.
// nativeLamports is the fee payer's net native change; wrapped SOL legs
// involving the fee payer are used when it is zero. Returns nil when the
// pattern does not hold. USDPerToken and NativeSymbol are left to the caller.
func DeriveSwap(feePayer string, nativeLamports decimal.Decimal, transfers []domain.EnrichedTransfer) *domain.SwapQuote {
	if feePayer == "" {
		return nil
	}

	native := nativeLamports.Shift(-nativeDecimals)
	var (
		token      *domain.EnrichedTransfer
		tokenDelta decimal.Decimal
		wrapped    decimal.Decimal
	)
	for i := range transfers {
		t := &transfers[i]
		delta, involved := signedDelta(feePayer, t)
		if !involved {
			continue
		}
		if t.Transfer.TokenID == solana.WrappedSOLMint {
			wrapped = wrapped.Add(delta)
			continue
		}
		if token != nil {
			return nil // more than one token leg
		}
		token, tokenDelta = t, delta
	}

	if native.IsZero() {
		native = wrapped
	}
	if token == nil || native.IsZero() || tokenDelta.IsZero() {
		return nil
	}
	if native.Sign() == tokenDelta.Sign() {
		return nil
	}

	return &domain.SwapQuote{
		TokenID:        token.Transfer.TokenID,
		TokenSymbol:    token.Metadata.Symbol,
		NativePerToken: native.Abs().Div(tokenDelta.Abs()),
	}
}

// signedDelta is the transfer's scaled amount as seen by account: positive
// when received, negative when sent. Self transfers do not count.
func signedDelta(account string, t *domain.EnrichedTransfer) (decimal.Decimal, bool) {
	from := t.Transfer.FromAccount == account
	to := t.Transfer.ToAccount == account
	switch {
	case to && !from:
		return t.ScaledAmount, true
	case from && !to:
		return t.ScaledAmount.Neg(), true
	default:
		return decimal.Zero, false
	}
}
