package mapping

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/FACorreiaa/statement-mapper/pkg/money"
)

var (
	ErrUnknownDateFormat = errors.New("unknown date format")
	ErrInvalidDate       = errors.New("invalid date")
)

// dateFormatRe matches token patterns such as MM/DD/YYYY, YYYY-MM-DD or MM/DD.
var dateFormatRe = regexp.MustCompile(`^(MM|DD|YYYY|YY)([/.\-])(MM|DD|YYYY|YY)(?:([/.\-])(MM|DD|YYYY|YY))?$`)

var dateTokens = map[string]string{
	"MM":   "1",
	"DD":   "2",
	"YYYY": "2006",
	"YY":   "06",
}

// DateFormat is a parsed date token pattern.
type DateFormat struct {
	Pattern string
	layout  string
	partial bool
}

// Partial reports a month/day pattern without a year.
func (f DateFormat) Partial() bool { return f.partial }

// ParseDateFormat validates a token pattern and compiles it to a layout.
// Patterns must use one separator, contain MM and DD once each and at most
// one year token. Month/day-only patterns are returned with Partial set.
func ParseDateFormat(pattern string) (DateFormat, error) {
	p := strings.ToUpper(strings.TrimSpace(pattern))
	m := dateFormatRe.FindStringSubmatch(p)
	if m == nil {
		return DateFormat{}, fmt.Errorf("%w: %q", ErrUnknownDateFormat, pattern)
	}

	tokens := []string{m[1], m[3]}
	if m[5] != "" {
		if m[4] != m[2] {
			return DateFormat{}, fmt.Errorf("%w: %q mixes separators", ErrUnknownDateFormat, pattern)
		}
		tokens = append(tokens, m[5])
	}

	seen := map[string]bool{}
	years := 0
	for _, tok := range tokens {
		if tok == "YYYY" || tok == "YY" {
			years++
		}
		if seen[tok] {
			return DateFormat{}, fmt.Errorf("%w: %q repeats %s", ErrUnknownDateFormat, pattern, tok)
		}
		seen[tok] = true
	}
	if !seen["MM"] || !seen["DD"] || years > 1 {
		return DateFormat{}, fmt.Errorf("%w: %q", ErrUnknownDateFormat, pattern)
	}

	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = dateTokens[tok]
	}
	return DateFormat{
		Pattern: p,
		layout:  strings.Join(parts, m[2]),
		partial: years == 0,
	}, nil
}

// IsDateFormat reports whether pattern is a complete (year-bearing) date format.
func IsDateFormat(pattern string) bool {
	f, err := ParseDateFormat(pattern)
	return err == nil && !f.partial
}

// Parse parses value into a calendar date. A trailing time component
// separated by whitespace is ignored.
func (f DateFormat) Parse(value string) (civil.Date, error) {
	if f.partial {
		return civil.Date{}, fmt.Errorf("%w: %s has no year", ErrInvalidDate, f.Pattern)
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return civil.Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	t, err := time.Parse(f.layout, v)
	if err != nil {
		head, _, found := strings.Cut(v, " ")
		if !found {
			return civil.Date{}, fmt.Errorf("%w: %q does not match %s", ErrInvalidDate, value, f.Pattern)
		}
		if t, err = time.Parse(f.layout, head); err != nil {
			return civil.Date{}, fmt.Errorf("%w: %q does not match %s", ErrInvalidDate, value, f.Pattern)
		}
	}
	return civil.DateOf(t), nil
}

// MonthDay splits a partial value into month and day. It checks shape only;
// range checks happen when the full date is parsed.
func (f DateFormat) MonthDay(value string) (month, day int, ok bool) {
	if !f.partial {
		return 0, 0, false
	}
	sep := f.layout[1:2]
	a, b, found := strings.Cut(strings.TrimSpace(value), sep)
	if !found {
		return 0, 0, false
	}
	x, okA := atoi2(a)
	y, okB := atoi2(b)
	if !okA || !okB {
		return 0, 0, false
	}
	if strings.HasPrefix(f.layout, "2") {
		return y, x, true
	}
	return x, y, true
}

func atoi2(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// ParseDate parses value using a token pattern.
func ParseDate(value, pattern string) (civil.Date, error) {
	f, err := ParseDateFormat(pattern)
	if err != nil {
		return civil.Date{}, err
	}
	return f.Parse(value)
}

// FormatDate renders d with a token pattern, zero-padded.
func FormatDate(d civil.Date, pattern string) (string, error) {
	f, err := ParseDateFormat(pattern)
	if err != nil {
		return "", err
	}
	layout := strings.NewReplacer("2006", "2006", "06", "06", "1", "01", "2", "02").Replace(f.layout)
	return d.In(time.UTC).Format(layout), nil
}

// IsAmountFormat reports whether name is a recognized amount convention.
func IsAmountFormat(name string) bool {
	return money.IsConvention(name)
}

// AmountConvention resolves a named amount convention.
func AmountConvention(name string) (money.Convention, error) {
	return money.LookupConvention(name)
}
