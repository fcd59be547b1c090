package domain

import "github.com/shopspring/decimal"

// RawTransaction is one webhook item as received from the sender.
// Decoding never fails: fields with an unexpected type decode to their zero value.
type RawTransaction struct {
	Signature      string
	Type           string
	FeePayer       string // primary signer
	TokenTransfers []TopLevelTransfer
	AccountData    []AccountData
}

// TopLevelTransfer is the top-level "tokenTransfers" record shape.
type TopLevelTransfer struct {
	Mint             string
	TokenAmount      decimal.Decimal // raw, unscaled
	Decimals         *int
	FromUserAccount  string
	ToUserAccount    string
	FromAccount      string
	ToAccount        string
	FromTokenAccount string
	ToTokenAccount   string
}

// AccountData is the per-account balance summary of a transaction.
type AccountData struct {
	Account             string
	NativeBalanceChange decimal.Decimal // lamports, signed
	TokenBalanceChanges []BalanceChange
}

// BalanceChange is the per-account "tokenBalanceChanges" record shape.
type BalanceChange struct {
	Mint           string
	RawTokenAmount decimal.Decimal // raw, signed
	Decimals       *int
	UserAccount    string
	TokenAccount   string
}

// BalanceChanges flattens token balance changes of all accounts in payload order.
func (tx RawTransaction) BalanceChanges() []BalanceChange {
	var changes []BalanceChange
	for _, ad := range tx.AccountData {
		changes = append(changes, ad.TokenBalanceChanges...)
	}
	return changes
}

// NativeChange returns the net native balance change (lamports) reported for account.
func (tx RawTransaction) NativeChange(account string) (decimal.Decimal, bool) {
	if account == "" {
		return decimal.Zero, false
	}
	for _, ad := range tx.AccountData {
		if ad.Account == account {
			return ad.NativeBalanceChange, true
		}
	}
	return decimal.Zero, false
}

// UnmarshalJSON decodes a transaction leniently.
func (tx *RawTransaction) UnmarshalJSON(data []byte) error {
	*tx = RawTransaction{}
	o := decodeObject(data)
	if o == nil {
		return nil
	}

	tx.Signature = o.str("signature")
	tx.Type = o.str("type")
	tx.FeePayer = o.str("feePayer")

	for _, raw := range o.list("tokenTransfers") {
		tx.TokenTransfers = append(tx.TokenTransfers, decodeTopLevel(decodeObject(raw)))
	}
	for _, raw := range o.list("accountData") {
		tx.AccountData = append(tx.AccountData, decodeAccountData(decodeObject(raw)))
	}
	return nil
}

func decodeTopLevel(o object) TopLevelTransfer {
	t := TopLevelTransfer{
		Mint:             o.str("mint"),
		Decimals:         o.decimals("decimals"),
		FromUserAccount:  o.str("fromUserAccount"),
		ToUserAccount:    o.str("toUserAccount"),
		FromAccount:      o.str("fromAccount"),
		ToAccount:        o.str("toAccount"),
		FromTokenAccount: o.str("fromTokenAccount"),
		ToTokenAccount:   o.str("toTokenAccount"),
	}
	if amount, ok := o.num("tokenAmount"); ok {
		t.TokenAmount = amount
	} else if raw := o.obj("rawTokenAmount"); raw != nil {
		t.TokenAmount, _ = raw.num("tokenAmount")
		if t.Decimals == nil {
			t.Decimals = raw.decimals("decimals")
		}
	}
	return t
}

func decodeAccountData(o object) AccountData {
	ad := AccountData{Account: o.str("account")}
	ad.NativeBalanceChange, _ = o.num("nativeBalanceChange")
	for _, raw := range o.list("tokenBalanceChanges") {
		ad.TokenBalanceChanges = append(ad.TokenBalanceChanges, decodeBalanceChange(decodeObject(raw)))
	}
	return ad
}

func decodeBalanceChange(o object) BalanceChange {
	c := BalanceChange{
		Mint:         o.str("mint"),
		UserAccount:  o.str("userAccount"),
		TokenAccount: o.str("tokenAccount"),
	}
	if raw := o.obj("rawTokenAmount"); raw != nil {
		c.RawTokenAmount, _ = raw.num("tokenAmount")
		c.Decimals = raw.decimals("decimals")
	}
	return c
}
