package usecase

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Separator conventions by declared site locale. "uk" covers the
// 1,234.56 style; "tr" covers the 1.234,56 style. The convention always
// comes from the site's configuration, never from the string itself:
// guessing would silently misread Turkish "18.900 TL" as 18.9.
type separators struct {
	thousands byte
	decimal   byte
}

var localeSeparators = map[string]separators{
	"uk": {thousands: ',', decimal: '.'},
	"tr": {thousands: '.', decimal: ','},
}

var (
	errUnknownLocale     = errors.New("unknown price locale")
	errNoDigits          = errors.New("no digits in price string")
	errNegativePrice     = errors.New("negative price")
	errBadGrouping       = errors.New("thousands grouping is not in groups of three")
	errRepeatedDecimal   = errors.New("decimal separator appears more than once")
	errSeparatorOrder    = errors.New("thousands separator after decimal separator")
	errAmbiguousGrouping = errors.New("single separator with three trailing digits is ambiguous between thousands and decimal")
)

// ParsePriceString parses a scraped price string ("18.900 TL", "£249.99",
// "1.234,56") under the site's declared locale. Currency symbols, codes
// and whitespace are ignored; only the digit/separator skeleton is parsed.
//
// A lone occurrence of the locale's decimal separator followed by exactly
// three digits is rejected as ambiguous: the other market's convention
// would read it as a thousands group, and misparsing 18.900 as 18.9 is
// exactly the failure this parser exists to prevent.
func ParsePriceString(raw, locale string) (decimal.Decimal, error) {
	seps, ok := localeSeparators[locale]
	if !ok {
		return decimal.Zero, errUnknownLocale
	}

	var b strings.Builder
	for _, c := range raw {
		switch {
		case c >= '0' && c <= '9', c == '.', c == ',':
			b.WriteRune(c)
		case c == '-':
			return decimal.Zero, errNegativePrice
		}
	}
	s := b.String()
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, errNoDigits
	}

	intPart, fracPart, err := splitParts(s, seps)
	if err != nil {
		return decimal.Zero, err
	}

	canonical := intPart
	if fracPart != "" {
		canonical += "." + fracPart
	}
	return decimal.NewFromString(canonical)
}

// splitParts validates the separator skeleton under the given convention
// and returns the bare integer digits and fraction digits
func splitParts(s string, seps separators) (intPart, fracPart string, err error) {
	decCount := strings.Count(s, string(seps.decimal))
	thouCount := strings.Count(s, string(seps.thousands))

	if decCount > 1 {
		return "", "", errRepeatedDecimal
	}

	intDigits := s
	if decCount == 1 {
		idx := strings.IndexByte(s, seps.decimal)
		intDigits, fracPart = s[:idx], s[idx+1:]
		if strings.IndexByte(fracPart, seps.thousands) >= 0 {
			return "", "", errSeparatorOrder
		}
		if fracPart == "" {
			return "", "", errAmbiguousGrouping
		}
		// "18.900" under uk (or "18,900" under tr): nothing in the string
		// disambiguates decimal from a thousands group, so refuse
		if thouCount == 0 && len(fracPart) == 3 {
			return "", "", errAmbiguousGrouping
		}
	}

	if thouCount > 0 {
		groups := strings.Split(intDigits, string(seps.thousands))
		if len(groups[0]) < 1 || len(groups[0]) > 3 {
			return "", "", errBadGrouping
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return "", "", errBadGrouping
			}
		}
		intDigits = strings.Join(groups, "")
	}

	if intDigits == "" {
		intDigits = "0"
	}
	return intDigits, fracPart, nil
}
