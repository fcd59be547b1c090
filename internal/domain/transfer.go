package domain

import "github.com/shopspring/decimal"

// Sentinels substituted by normalization so downstream code never sees empty ids.
const (
	UnknownAccount = "unknown"
	UnknownToken   = "unknown"
)

// TransferShape tags which payload record shape a RawTransfer carries.
type TransferShape int

const (
	ShapeTopLevel TransferShape = iota
	ShapePerAccount
)

// String returns the shape name used in logs.
func (s TransferShape) String() string {
	switch s {
	case ShapeTopLevel:
		return "top_level"
	case ShapePerAccount:
		return "per_account"
	default:
		return "unknown"
	}
}

// RawTransfer is a tagged union over the two transfer record shapes.
// Exactly one of TopLevel and PerAccount is set, matching Shape.
type RawTransfer struct {
	Shape      TransferShape
	TopLevel   *TopLevelTransfer
	PerAccount *BalanceChange
}

// CanonicalTransfer is a transfer reconciled into a single shape.
type CanonicalTransfer struct {
	TokenID     string
	RawAmount   decimal.Decimal // raw, unscaled, non-negative
	Decimals    *int            // nil when the payload carried none
	FromAccount string
	ToAccount   string
	Shape       TransferShape
}

// Direction is the display classification of a transfer.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// EnrichedTransfer is a canonical transfer with resolved identity and valuation.
type EnrichedTransfer struct {
	Transfer     CanonicalTransfer
	Metadata     TokenMetadata
	Quote        *PriceQuote // nil when the price is unknown
	Direction    Direction
	Decimals     int
	ScaledAmount decimal.Decimal
	USDValue     *decimal.Decimal // nil when the price is unknown
}

// SwapQuote is an exchange rate implied by a signer's opposite-sign native and token
// balance changes. Presentation only.
type SwapQuote struct {
	TokenID        string
	TokenSymbol    string
	NativeSymbol   string
	NativePerToken decimal.Decimal
	USDPerToken    *decimal.Decimal
}
