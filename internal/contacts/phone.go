package contacts

import (
	"regexp"
	"strings"
)

// phoneCandidate matches +7- or 8-prefixed Russian phone numbers with
// arbitrary spacing, dashes and parentheses between digit groups.
var phoneCandidate = regexp.MustCompile(`(?:\+7|\b8)[\s\-().]*\d(?:[\s\-().]*\d){9}`)

// phoneMasked matches the masked form banks print in fast-payment
// descriptions, "+7XXX+++XXXX", keeping the visible last four digits.
var phoneMasked = regexp.MustCompile(`\+7\d{3}\+{3}(\d{4})`)

// ExtractPhone finds the first phone number in a description and
// returns it in canonical country+digits form ("79123456789"). Masked
// numbers come back in partial form, "7***" plus the visible last four
// digits; partials never match a full account phone.
func ExtractPhone(desc string) (string, bool) {
	if m := phoneCandidate.FindString(desc); m != "" {
		return NormalizePhone(m)
	}
	if m := phoneMasked.FindStringSubmatch(desc); m != nil {
		return "7***" + m[1], true
	}
	return "", false
}

// NormalizePhone canonicalizes a phone written in any accepted national
// format to "7" followed by ten digits:
//
//	"+7 912 345 6789"   -> "79123456789"
//	"8 (912) 345-67-89" -> "79123456789"
//	"9123456789"        -> "79123456789"
func NormalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 11 && d[0] == '7':
		return d, true
	case len(d) == 11 && d[0] == '8':
		return "7" + d[1:], true
	case len(d) == 10 && d[0] == '9':
		return "7" + d, true
	}
	return "", false
}
