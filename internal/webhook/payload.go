// Package webhook receives transaction batches pushed by the webhook sender.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"

	"solana-alerts/internal/domain"
)

var (
	// ErrEmptyBody is returned for a request without a payload.
	ErrEmptyBody = errors.New("empty body")
	// ErrMalformedPayload is returned when the body is not a JSON array or object.
	ErrMalformedPayload = errors.New("malformed payload")
)

// ParsePayload accepts either a JSON array of transactions or an object with
// a "transactions" array. An object without that key yields no transactions.
// Individual items decode leniently and never fail.
func ParsePayload(body []byte) ([]domain.RawTransaction, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	if !json.Valid(body) {
		return nil, ErrMalformedPayload
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, ErrMalformedPayload
		}
	case '{':
		var wrapper struct {
			Transactions json.RawMessage `json:"transactions"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, ErrMalformedPayload
		}
		// a non-array "transactions" value is treated like a missing one
		_ = json.Unmarshal(wrapper.Transactions, &items)
	default:
		return nil, ErrMalformedPayload
	}

	txs := make([]domain.RawTransaction, len(items))
	for i, raw := range items {
		_ = txs[i].UnmarshalJSON(raw)
	}
	return txs, nil
}
