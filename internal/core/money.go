// Package core holds the domain model of the betting upload analysis tool:
// bet records, filters, money handling and the per-source metrics report.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between pence and pound representations.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is a stake amount in integer pence. All uploaded data is
// currency-homogeneous (GBP), so no currency code is carried.
type Money struct {
	Pence int64
}

// ParseDecimalToPence converts a decimal string to pence with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Stakes are non-negative: zero is valid, signs are rejected.
//
// Examples:
//
//	ParseDecimalToPence("12.34") -> 1234, nil
//	ParseDecimalToPence("12,34") -> 1234, nil
//	ParseDecimalToPence("12.345") -> 1235, nil (half-up)
//	ParseDecimalToPence("12.344") -> 1234, nil (rounds down)
func ParseDecimalToPence(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracPence int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracPence = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracPence += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracPence++
				}
			}
		}
	}
	return iv*100 + fracPence, nil
}

// Validate rejects negative amounts. Zero stakes are legal in uploads.
func (m Money) Validate() error {
	if m.Pence < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Pounds returns the pound value as a float64 for display purposes.
// Note: use pence for calculations to avoid floating-point precision issues.
func (m Money) Pounds() float64 {
	return float64(m.Pence) / 100.0
}
