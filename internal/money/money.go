// Package money converts statement amount strings to and from signed
// minor-currency-unit integers. All arithmetic downstream works on
// int64 minor units; floats never appear.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyTokens are stripped before numeric parsing, longest first so
// "руб." wins over "руб".
var currencyTokens = []string{
	"руб.", "руб", "р.", "₽", "rub", "RUB",
	"eur", "EUR", "€",
	"usd", "USD", "$",
}

// ParseMinor parses an amount string into signed minor units (kopeks,
// cents). It tolerates currency symbols on either side, regular and
// non-breaking spaces as thousands separators, and both comma and dot
// as the decimal separator:
//
//	"1 234,56"  -> 123456
//	"-1,234.56" -> -123456
//	"+500 ₽"    -> 50000
//
// Parsing is exact: more than two decimal places is an error.
func ParseMinor(s string) (int64, error) {
	cleaned := normalize(s)
	if cleaned == "" || cleaned == "-" || cleaned == "+" {
		return 0, fmt.Errorf("no amount in %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	return shifted.IntPart(), nil
}

// FormatRU formats minor units in Russian statement style:
// space-grouped thousands, comma decimal ("1 234,56").
func FormatRU(v int64) string {
	return format(v, " ", ",")
}

// FormatEN formats minor units in English statement style ("1,234.56").
func FormatEN(v int64) string {
	return format(v, ",", ".")
}

func format(v int64, group, dec string) string {
	neg := v < 0
	if neg {
		v = -v
	}

	major := v / 100
	minor := v % 100

	digits := fmt.Sprintf("%d", major)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(group)
		}
		b.WriteRune(r)
	}
	b.WriteString(dec)
	b.WriteString(fmt.Sprintf("%02d", minor))
	return b.String()
}

// normalize strips currency tokens and whitespace and rewrites the
// string so that '.' is the only decimal separator.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, tok := range currencyTokens {
		lower = strings.ReplaceAll(lower, strings.ToLower(tok), "")
	}
	s = lower

	// Whitespace (plain, NBSP, narrow NBSP) only ever groups thousands.
	for _, ws := range []string{" ", " ", " ", "\t"} {
		s = strings.ReplaceAll(s, ws, "")
	}

	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// "1.234,56": dots group, comma is decimal.
			s = strings.ReplaceAll(s, ".", "")
			i := strings.LastIndexByte(s, ',')
			s = strings.ReplaceAll(s[:i], ",", "") + "." + s[i+1:]
		} else {
			// "1,234.56": commas group.
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && decimalish(s, lastComma) {
			s = replaceLast(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if !(strings.Count(s, ".") == 1 && decimalish(s, lastDot)) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// decimalish reports whether the separator at i looks like a decimal
// point: one or two trailing digits. Three trailing digits means a
// thousands group ("1,234").
func decimalish(s string, i int) bool {
	trailing := len(s) - i - 1
	return trailing == 1 || trailing == 2
}

func replaceLast(s, old, new string) string {
	i := strings.LastIndex(s, old)
	if i < 0 {
		return s
	}
	return s[:i] + new + s[i+len(old):]
}
