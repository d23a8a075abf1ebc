package mepsparser

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount interprets a fixed-point field as an integer count of
// minor units and shifts it right by the implied number of decimal
// places. The arithmetic is exact: totals are later reconciled to a
// 0.01 tolerance, so binary floating point is not acceptable here.
//
// The raw value may carry surrounding whitespace and an optional
// leading sign. Anything else non-numeric fails with a ValidationError.
func ParseAmount(raw string, places int32) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if !isMinorUnits(s) {
		return decimal.Zero, validationErrorf("invalid numeric field %q", raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, validationErrorf("invalid numeric field %q", raw)
	}
	return d.Shift(-places), nil
}

// FormatAmount is the inverse of ParseAmount: it renders a decimal
// back into its wire representation at the given scale, zero-padded
// to width. Round-tripping a field through ParseAmount and
// FormatAmount reproduces the original digit string.
func FormatAmount(d decimal.Decimal, places int32, width int) string {
	s := d.Shift(places).Truncate(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width-boolToInt(neg) {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

// isMinorUnits reports whether s is an optionally signed digit string.
func isMinorUnits(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
