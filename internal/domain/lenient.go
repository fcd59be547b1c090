package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// object is a loosely decoded JSON object. Webhook senders are inconsistent about
// field types (numbers as strings, nulls, nested vs flat), so every accessor
// returns a zero value instead of an error when the shape is unexpected.
type object map[string]json.RawMessage

// decodeObject returns nil when data is not a JSON object.
func decodeObject(data []byte) object {
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil
	}
	return o
}

// str returns the first non-empty string value among keys.
func (o object) str(keys ...string) string {
	for _, key := range keys {
		raw, ok := o[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// num parses a number encoded either as a JSON number or a numeric string.
func (o object) num(key string) (decimal.Decimal, bool) {
	raw, ok := o[key]
	if !ok {
		return decimal.Zero, false
	}
	return parseNumber(raw)
}

// decimals parses a mint precision. Values outside [0, MaxDecimals] or with a
// fractional part are treated as absent.
func (o object) decimals(key string) *int {
	d, ok := o.num(key)
	if !ok || d.IsNegative() || !d.Equal(d.Truncate(0)) || d.GreaterThan(maxDecimals) {
		return nil
	}
	v := int(d.IntPart())
	return &v
}

var maxDecimals = decimal.NewFromInt(MaxDecimals)

// obj returns a nested object, or nil.
func (o object) obj(key string) object {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	return decodeObject(raw)
}

// list returns the elements of a nested array, or nil.
func (o object) list(key string) []json.RawMessage {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func parseNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, false
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		text = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
