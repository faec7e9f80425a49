// Spreadsheet cells arrive as display strings ("1 234,50 грн", "(120)", "5%"),
// so this file turns them into float64 values and formats results back for
// the dashboard.

package core

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var currencyTokens = []string{"грн.", "грн", "uah", "eur", "usd", "₴", "€", "$"}

// ParseAmount converts a spreadsheet cell to a number.
//
// It accepts decimal comma or dot, space/apostrophe thousands separators,
// a trailing percent sign (the number is kept as written), accounting
// negatives in parentheses and a leading or trailing currency token.
//
// Examples:
//
//	ParseAmount("1 234,50 грн") -> 1234.5
//	ParseAmount("1,234.50")     -> 1234.5
//	ParseAmount("(120)")        -> -120
//	ParseAmount("5%")           -> 5
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, tok := range currencyTokens {
		s = strings.TrimSpace(strings.TrimPrefix(s, tok))
		s = strings.TrimSpace(strings.TrimSuffix(s, tok))
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u2009', '\u202f', '\'':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = normalizeSeparators(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	if neg {
		v = -v
	}
	return v, nil
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator.
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas > 0 && dots > 0:
		// The separator that appears last is the decimal one.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// FormatAmount renders v with two decimals, a comma decimal separator,
// space-grouped thousands and an optional currency suffix.
func FormatAmount(v float64, currency string) string {
	out := groupThousands(decimal.NewFromFloat(v).StringFixed(2))
	if currency != "" {
		out += " " + currency
	}
	return out
}

// FormatPercent renders v as a percentage with two decimals.
func FormatPercent(v float64) string {
	return groupThousands(decimal.NewFromFloat(v).StringFixed(2)) + " %"
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if frac != "" {
		out += "," + frac
	}
	if out == "-0,00" {
		out = "0,00"
	}
	return out
}
