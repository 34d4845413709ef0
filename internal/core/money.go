// Package core provides money parsing and handling utilities.
//
// This file contains the decimal parsing used by the fallback parser and by
// the spreadsheet readers, where amounts can arrive with a comma or a dot.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, ignores
// surrounding whitespace and currency symbols, and tolerates spaces used as
// thousands separators. Returns ok=false for anything else.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, true
//	ParseAmount("12,34")  -> 12.34, true
//	ParseAmount("1 200")  -> 1200, true
//	ParseAmount("€ 5")    -> 5, true
//	ParseAmount("-3")     -> 0, false
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "€$£₽")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	// A single comma is a decimal separator; with a dot present it groups thousands.
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders an amount the way it is written to spreadsheets:
// dot separator, no trailing zeros.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// ParseMillis parses an epoch-milliseconds value that may have been turned
// into a float ("1.729e+12") by a spreadsheet.
func ParseMillis(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, v > 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	v := d.IntPart()
	return v, v > 0
}
