package normalization

import (
	"solana-alerts/internal/domain"
)

// RawTransfers selects the transfer records of a transaction.
// Per-account balance changes are more authoritative than the top-level transfer
// list and win whenever present; the top-level list is the fallback.
func RawTransfers(tx domain.RawTransaction) []domain.RawTransfer {
	if changes := tx.BalanceChanges(); len(changes) > 0 {
		out := make([]domain.RawTransfer, len(changes))
		for i := range changes {
			out[i] = domain.RawTransfer{Shape: domain.ShapePerAccount, PerAccount: &changes[i]}
		}
		return out
	}

	out := make([]domain.RawTransfer, len(tx.TokenTransfers))
	for i := range tx.TokenTransfers {
		out[i] = domain.RawTransfer{Shape: domain.ShapeTopLevel, TopLevel: &tx.TokenTransfers[i]}
	}
	return out
}

// Normalize reshapes every transfer record of tx into a CanonicalTransfer.
// Order is preserved and nothing is dropped.
func Normalize(tx domain.RawTransaction) []domain.CanonicalTransfer {
	raws := RawTransfers(tx)
	out := make([]domain.CanonicalTransfer, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Canonicalize(raw))
	}
	return out
}

// Canonicalize converts one tagged raw transfer.
func Canonicalize(raw domain.RawTransfer) domain.CanonicalTransfer {
	var ct domain.CanonicalTransfer

	switch {
	case raw.Shape == domain.ShapePerAccount && raw.PerAccount != nil:
		ct = fromBalanceChange(*raw.PerAccount)
	case raw.Shape == domain.ShapeTopLevel && raw.TopLevel != nil:
		ct = fromTopLevel(*raw.TopLevel)
	default:
		ct.Shape = raw.Shape
	}

	if ct.TokenID == "" {
		ct.TokenID = domain.UnknownToken
	}
	if ct.FromAccount == "" && ct.ToAccount == "" {
		ct.FromAccount = domain.UnknownAccount
	}
	return ct
}

func fromTopLevel(t domain.TopLevelTransfer) domain.CanonicalTransfer {
	return domain.CanonicalTransfer{
		TokenID:     t.Mint,
		RawAmount:   t.TokenAmount.Abs(),
		Decimals:    copyInt(t.Decimals),
		FromAccount: firstNonEmpty(t.FromUserAccount, t.FromAccount, t.FromTokenAccount),
		ToAccount:   firstNonEmpty(t.ToUserAccount, t.ToAccount, t.ToTokenAccount),
		Shape:       domain.ShapeTopLevel,
	}
}

// fromBalanceChange maps a signed per-account change onto a directed transfer:
// a decrease makes the owner the sender, anything else makes it the receiver.
func fromBalanceChange(c domain.BalanceChange) domain.CanonicalTransfer {
	ct := domain.CanonicalTransfer{
		TokenID:   c.Mint,
		RawAmount: c.RawTokenAmount.Abs(),
		Decimals:  copyInt(c.Decimals),
		Shape:     domain.ShapePerAccount,
	}
	owner := firstNonEmpty(c.UserAccount, c.TokenAccount)
	if c.RawTokenAmount.IsNegative() {
		ct.FromAccount = owner
	} else {
		ct.ToAccount = owner
	}
	return ct
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
