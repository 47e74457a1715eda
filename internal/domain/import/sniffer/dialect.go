package sniffer

import (
	"strings"
)

// Dialect is the inferred regional formatting of a file, expressed in the
// mapping vocabulary ("USD", "EUR", "BRL" and "MM/DD/YYYY"-style patterns).
type Dialect struct {
	AmountFormat string
	DateFormat   string
	Confidence   float64 // 0.0-1.0
	European     bool    // comma decimal separator
}

// ProbeDialect analyzes sample rows to infer amount and date conventions.
// amountIdx or dateIdx may be -1.
func ProbeDialect(rows [][]string, amountIdx, dateIdx int) *Dialect {
	d := &Dialect{
		AmountFormat: "USD",
		DateFormat:   "MM/DD/YYYY",
		Confidence:   0.5,
	}

	european, us := 0, 0
	currency := ""
	dayFirst, monthFirst, yearFirst := false, false, false
	sep := "/"
	shortYear := false

	for _, row := range rows {
		if amountIdx >= 0 && amountIdx < len(row) && row[amountIdx] != "" {
			switch hint := amountHint(row[amountIdx]); {
			case hint > 0:
				european++
			case hint < 0:
				us++
			}
		}

		if dateIdx >= 0 && dateIdx < len(row) && row[dateIdx] != "" {
			order, s, short := dateHint(row[dateIdx])
			switch order {
			case orderDayFirst:
				dayFirst = true
			case orderMonthFirst:
				monthFirst = true
			case orderYearFirst:
				yearFirst = true
			}
			if s != "" {
				sep = s
			}
			shortYear = shortYear || short
		}

		for _, cell := range row {
			switch {
			case strings.Contains(cell, "R$") || strings.Contains(cell, "BRL"):
				currency = "BRL"
				european++
			case strings.Contains(cell, "€") || strings.Contains(cell, "EUR"):
				currency = "EUR"
				european++
			case strings.Contains(cell, "$"):
				if currency == "" {
					currency = "USD"
				}
				us++
			}
		}
	}

	if european > us {
		d.European = true
		d.AmountFormat = "EUR"
		if currency == "BRL" {
			d.AmountFormat = "BRL"
		}
	}
	if total := european + us; total > 0 {
		win := max(european, us)
		d.Confidence = float64(win) / float64(total)
	}

	year := "YYYY"
	if shortYear {
		year = "YY"
	}
	switch {
	case yearFirst:
		d.DateFormat = strings.Join([]string{"YYYY", "MM", "DD"}, sep)
	case dayFirst && !monthFirst:
		d.DateFormat = strings.Join([]string{"DD", "MM", year}, sep)
	case monthFirst && !dayFirst:
		d.DateFormat = strings.Join([]string{"MM", "DD", year}, sep)
	case d.European:
		// Ambiguous days: follow the amount hints.
		d.DateFormat = strings.Join([]string{"DD", "MM", year}, sep)
	default:
		d.DateFormat = strings.Join([]string{"MM", "DD", year}, sep)
	}
	return d
}

// amountHint returns >0 for European, <0 for US and 0 when ambiguous.
func amountHint(val string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			return r
		}
		return -1
	}, val)
	if cleaned == "" {
		return 0
	}

	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return 1 // 1.234,56
		}
		return -1 // 1,234.56
	case comma >= 0:
		if len(cleaned)-comma-1 <= 2 {
			return 1
		}
	case dot >= 0:
		if len(cleaned)-dot-1 <= 2 {
			return -1
		}
	}
	return 0
}

type dateOrder int

const (
	orderUnknown dateOrder = iota
	orderDayFirst
	orderMonthFirst
	orderYearFirst
)

// dateHint classifies one date value. Only values whose first or second
// part exceeds 12 are conclusive.
func dateHint(val string) (dateOrder, string, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(val), " ")
	sep := ""
	for _, s := range []string{"/", "-", "."} {
		if strings.Contains(head, s) {
			sep = s
			break
		}
	}
	if sep == "" {
		return orderUnknown, "", false
	}

	parts := strings.Split(head, sep)
	if len(parts) != 3 {
		return orderUnknown, sep, false
	}
	if len(parts[0]) == 4 {
		return orderYearFirst, sep, false
	}
	short := len(parts[2]) == 2

	first, second := atoi(parts[0]), atoi(parts[1])
	switch {
	case first > 12 && first <= 31:
		return orderDayFirst, sep, short
	case second > 12 && second <= 31:
		return orderMonthFirst, sep, short
	}
	return orderUnknown, sep, short
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
