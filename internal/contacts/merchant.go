package contacts

import (
	"regexp"
	"strings"
)

// knownMerchants maps description substrings to display names for
// brands that appear under many spellings across statements.
var knownMerchants = []struct {
	substr string
	name   string
}{
	{"пятерочка", "Пятёрочка"},
	{"pyaterochka", "Пятёрочка"},
	{"магнит", "Магнит"},
	{"magnit", "Магнит"},
	{"перекресток", "Перекрёсток"},
	{"perekrestok", "Перекрёсток"},
	{"лента", "Лента"},
	{"lenta", "Лента"},
	{"окей", "О`КЕЙ"},
	{"okey", "О`КЕЙ"},
	{"горздрав", "Горздрав"},
	{"gorzdrav", "Горздрав"},
	{"аптека", "Аптека"},
	{"apteka", "Аптека"},
	{"теле2", "Теле2"},
	{"tele2", "Теле2"},
	{"мегафон", "МегаФон"},
	{"megafon", "МегаФон"},
	{"билайн", "Билайн"},
	{"beeline", "Билайн"},
	{"мтс", "МТС"},
	{"лукойл", "Лукойл"},
	{"lukoil", "Лукойл"},
	{"mcdonalds", "McDonald's"},
	{"kfc", "KFC"},
	{"burger king", "Burger King"},
	{"шоколадница", "Шоколадница"},
}

var (
	// "RU/Voronezh/PYATEROCHKA_7642" style merchant locations.
	locationPattern = regexp.MustCompile(`RU/[^/]+/([^,\s]+)`)
	// Payee phrases in transfer descriptions.
	payeePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)в пользу\s+([^,\s]+)`),
		regexp.MustCompile(`(?i)получатель\s+([^,\s]+)`),
	}
)

// ExtractMerchant pulls a merchant display name out of a description:
// known brand substrings first, then RU/city/merchant location tokens,
// then payee phrases. Short tokens are noise and ignored.
func ExtractMerchant(desc string) (string, bool) {
	lower := strings.ToLower(desc)
	for _, m := range knownMerchants {
		if strings.Contains(lower, m.substr) {
			return m.name, true
		}
	}

	if m := locationPattern.FindStringSubmatch(desc); m != nil {
		name := strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
		if len([]rune(name)) > 3 {
			return name, true
		}
	}

	for _, p := range payeePatterns {
		if m := p.FindStringSubmatch(desc); m != nil {
			name := strings.TrimSpace(m[1])
			if len([]rune(name)) > 3 {
				return name, true
			}
		}
	}
	return "", false
}
