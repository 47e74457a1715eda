package money

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownConvention = errors.New("unknown amount convention")
	ErrEmptyAmount       = errors.New("empty amount")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// SignStyle controls how debits are rendered by Format. Parse accepts every style.
type SignStyle int

const (
	SignMinus    SignStyle = iota // -1,234.56
	SignTrailing                  // 1,234.56-
	SignParens                    // (1,234.56)
)

const (
	suffixParens   = "_PAREN"
	suffixTrailing = "_TRAILING"
)

// Convention describes how a source writes amounts: decimal and thousands
// separators, currency, and the debit notation used when formatting.
type Convention struct {
	Name      string
	Currency  string
	Decimal   rune
	Thousands rune
	Negative  SignStyle
}

var baseConventions = map[string]Convention{
	USD: {Currency: USD, Decimal: '.', Thousands: ','},
	CAD: {Currency: CAD, Decimal: '.', Thousands: ','},
	GBP: {Currency: GBP, Decimal: '.', Thousands: ','},
	AUD: {Currency: AUD, Decimal: '.', Thousands: ','},
	EUR: {Currency: EUR, Decimal: ',', Thousands: '.'},
	BRL: {Currency: BRL, Decimal: ',', Thousands: '.'},
	CHF: {Currency: CHF, Decimal: '.', Thousands: '\''},
}

// symbols are stripped before parsing, longest first so "R$" wins over "$".
var symbols = []string{"R$", "US$", "C$", "A$", "CHF", "$", "€", "£", "¥"}

// LookupConvention resolves a named convention such as "USD", "EUR" or
// "USD_PAREN". Names are case-insensitive.
func LookupConvention(name string) (Convention, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	style := SignMinus
	switch {
	case strings.HasSuffix(key, suffixParens):
		style = SignParens
		key = strings.TrimSuffix(key, suffixParens)
	case strings.HasSuffix(key, suffixTrailing):
		style = SignTrailing
		key = strings.TrimSuffix(key, suffixTrailing)
	}

	c, ok := baseConventions[key]
	if !ok {
		return Convention{}, fmt.Errorf("%w: %q", ErrUnknownConvention, name)
	}
	c.Name = strings.ToUpper(strings.TrimSpace(name))
	c.Negative = style
	return c, nil
}

// IsConvention reports whether name is a recognized amount convention.
func IsConvention(name string) bool {
	_, err := LookupConvention(name)
	return err == nil
}

// ConventionNames lists the base convention names, sorted.
func ConventionNames() []string {
	names := make([]string, 0, len(baseConventions))
	for name := range baseConventions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fraction returns the number of minor-unit digits of the convention's currency.
func (c Convention) Fraction() int {
	return fraction(c.Currency)
}

// Parse converts a source amount string into a signed decimal. Currency
// symbols, the thousands separator and whitespace are ignored. A leading
// minus, a trailing minus or surrounding parentheses mark a debit.
func (c Convention) Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	if g := grapheme(c.Currency); g != "" {
		s = strings.ReplaceAll(s, g, "")
	}
	s = strings.ReplaceAll(s, c.Currency, "")
	for _, sym := range symbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasSuffix(s, "-"):
		negative = true
		s = strings.TrimSuffix(s, "-")
	case strings.HasPrefix(s, "-"):
		negative = true
		s = strings.TrimPrefix(s, "-")
	case strings.HasPrefix(s, "+"):
		s = strings.TrimPrefix(s, "+")
	}

	normalized, err := c.normalize(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", err, raw)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalize rewrites digits and separators into a plain "1234.56" form.
func (c Convention) normalize(s string) (string, error) {
	var b strings.Builder
	seenDecimal := false
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == c.Decimal:
			if seenDecimal {
				return "", ErrInvalidAmount
			}
			seenDecimal = true
			b.WriteByte('.')
		case r == c.Thousands || (c.Thousands == '\'' && r == '\u2019'):
			if seenDecimal {
				return "", ErrInvalidAmount
			}
		default:
			return "", ErrInvalidAmount
		}
	}
	if digits == 0 {
		return "", ErrInvalidAmount
	}
	return b.String(), nil
}

// Format renders d the way the source writes it, grouped by the thousands
// separator and with the convention's debit notation. At least the currency's
// minor-unit digits are printed; extra precision in d is preserved.
func (c Convention) Format(d decimal.Decimal) string {
	places := c.Fraction()
	if exp := -int(d.Exponent()); exp > places {
		places = exp
	}

	fixed := d.Abs().StringFixed(int32(places))
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(c.Thousands)
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteRune(c.Decimal)
		b.WriteString(fracPart)
	}
	out := b.String()

	if !d.IsNegative() {
		return out
	}
	switch c.Negative {
	case SignTrailing:
		return out + "-"
	case SignParens:
		return "(" + out + ")"
	default:
		return "-" + out
	}
}
