package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative money value in the business currency (MYR).
//
// Records come from stores that make no promises about well-formed numbers, so
// decoding never fails: numbers and numeric strings are parsed, anything else
// (null, "", "abc", true, objects) becomes 0.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = ParseAmount(string(b))
	return nil
}

// Decimal returns the amount for exact summation.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(a))
}

func (a Amount) Float64() float64 {
	return float64(a)
}

// ParseAmount applies the lenient coercion policy to raw text, which may be a
// JSON literal or a plain form/query value.
func ParseAmount(raw string) Amount {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return 0
		}
		s = strings.TrimSpace(unquoted)
	}
	if s == "" || s == "null" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return Amount(d.InexactFloat64())
}
