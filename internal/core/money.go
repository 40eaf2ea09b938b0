// Package core provides money parsing and handling utilities.
//
// This file contains functions for turning loosely-typed amounts (JSON
// numbers, numeric strings, spreadsheet cells) into positive cent values.
package core

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred        = decimal.NewFromInt(100)
	thousandsGroup = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
	currencyMarks  = strings.NewReplacer("₹", "", "$", "", "€", "", "£", "", "Rs.", "", "Rs", "", "INR", "", " ", "", " ", "")
)

// ParseAmount converts a raw amount into Money with half-up rounding to the cent.
//
// It accepts JSON numbers (float64, json.Number), Go integers and numeric
// strings. Strings may carry a currency mark and either thousands commas
// ("1,234.50") or a decimal comma ("12,34"). Zero, negative and
// non-numeric values are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")    -> 1234
//	ParseAmount("₹1,250")   -> 125000
//	ParseAmount(12.345)     -> 1235
//	ParseAmount("-1")       -> ErrInvalidAmount
func ParseAmount(v any) (Money, error) {
	d, err := toDecimal(v)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal major-unit amount into positive Money.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	// Reject amounts that overflow int64 cents.
	if cents.GreaterThan(decimal.NewFromInt(1 << 62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case decimal.Decimal:
		return x, nil
	case string:
		return decimal.NewFromString(normalizeNumeric(x))
	default:
		return decimal.Decimal{}, ErrInvalidAmount
	}
}

func normalizeNumeric(s string) string {
	s = currencyMarks.Replace(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case thousandsGroup.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Major returns the amount in major units as a float64 for display and
// wire formats. Use cents for arithmetic.
func (m Money) Major() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with two decimals, e.g. "1250.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON encodes the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts anything ParseAmount does, plus zero.
func (m *Money) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if n, ok := v.(json.Number); ok && n.String() == "0" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseAmount(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
