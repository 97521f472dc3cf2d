// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and real (BRL) representations.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents. All arithmetic happens on cents;
// fractional representations exist only at the boundary.
type Money struct {
	Cents int64
}

// Validate rejects non-positive amounts. Transaction values are stored as
// positive magnitudes; the sign is derived from the transaction kind at
// aggregation time.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Reais returns the value as a float64 for display purposes only.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// ParseDecimalToCents converts a decimal string to positive cents with
// half-up rounding on the third decimal place. Both dot (12.34) and comma
// (12,34) separators are accepted. Signed or zero amounts are rejected;
// transaction values are always positive magnitudes.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	cents, neg, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if neg || cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedDecimalToCents is the signed variant used for sub-transaction
// fragments, where a negative value models a refund or adjustment. Zero is
// still rejected.
func ParseSignedDecimalToCents(s string) (int64, error) {
	cents, neg, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if cents == 0 {
		return 0, ErrInvalidAmount
	}
	if neg {
		return -cents, nil
	}
	return cents, nil
}

func parseDecimal(s string) (cents int64, negative bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, false, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return 0, false, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, false, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, false, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, false, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, negative, nil
}
