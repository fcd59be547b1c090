// Package alert renders enriched transactions as plain-text alerts.
package alert

import (
	"fmt"
	"strings"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/solana"
)

// Fixed fractional digits of rendered values.
const (
	AmountPlaces   = 6
	USDPlaces      = 2
	SwapUSDPlaces  = 6
	SwapRatePlaces = 9
)

// Format renders the header, one block per transfer and an optional swap
// line. Output depends only on its arguments.
func Format(header string, transfers []domain.EnrichedTransfer, swap *domain.SwapQuote) domain.AlertMessage {
	lines := make([]string, 0, 1+3*len(transfers)+2)
	lines = append(lines, header)

	for _, t := range transfers {
		lines = append(lines, "", transferLine(t), routeLine(t.Transfer))
	}

	if swap != nil {
		lines = append(lines, "", swapLine(*swap))
	}

	return domain.AlertMessage{Lines: lines}
}

func transferLine(t domain.EnrichedTransfer) string {
	var b strings.Builder
	b.WriteString(directionLabel(t.Direction))
	b.WriteString(": ")
	b.WriteString(t.ScaledAmount.StringFixed(AmountPlaces))
	b.WriteString(" ")
	b.WriteString(symbol(t.Metadata.Symbol))
	b.WriteString(" (")
	b.WriteString(t.Metadata.DisplayName)
	b.WriteString(")")
	if t.USDValue != nil {
		b.WriteString(" ~$")
		b.WriteString(t.USDValue.StringFixed(USDPlaces))
	}
	return b.String()
}

func routeLine(ct domain.CanonicalTransfer) string {
	return fmt.Sprintf("From: %s → %s", solana.ShortAddress(ct.FromAccount), solana.ShortAddress(ct.ToAccount))
}

func swapLine(s domain.SwapQuote) string {
	line := fmt.Sprintf("Swap price: 1 %s = %s %s",
		symbol(s.TokenSymbol), s.NativePerToken.Round(SwapRatePlaces).String(), s.NativeSymbol)
	if s.USDPerToken != nil {
		line += fmt.Sprintf(" (~$%s)", s.USDPerToken.StringFixed(SwapUSDPlaces))
	}
	return line
}

func directionLabel(d domain.Direction) string {
	if d == domain.DirectionIncoming {
		return "Incoming"
	}
	return "Outgoing"
}

func symbol(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.SymbolUnknown
	}
	return s
}
