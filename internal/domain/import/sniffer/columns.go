package sniffer

import (
	"strings"
)

// ColumnSuggestions are header indices guessed from header names; -1 when
// nothing matched.
type ColumnSuggestions struct {
	Date        int
	Description int
	Amount      int
	Debit       int
	Credit      int
	// Others lists the remaining columns in header order.
	Others []int
}

// IsDoubleEntry reports separate debit and credit columns without a single
// signed amount column.
func (s *ColumnSuggestions) IsDoubleEntry() bool {
	return s.Amount == -1 && s.Debit != -1 && s.Credit != -1
}

var (
	dateHints        = []string{"posting date", "transaction date", "date", "data mov", "fecha"}
	descriptionHints = []string{"original description", "description", "descri", "merchant", "payee", "memo", "ref", "name", "nome"}
	amountHints      = []string{"amount", "total", "net", "valor", "importe", "montante"}
	debitHints       = []string{"debit", "débito", "debito", "cargo", "withdrawal"}
	creditHints      = []string{"credit", "crédito", "credito", "abono", "deposit"}
)

// SuggestColumns matches header names against common statement vocabulary.
// Hints are tried in order, so "Posting Date" beats a later "Value Date" and
// an exact "Amount" beats "Amount Due".
func SuggestColumns(headers []string) *ColumnSuggestions {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	used := map[int]bool{}
	pick := func(hints []string) int {
		for _, exact := range []bool{true, false} {
			for _, hint := range hints {
				for i, h := range lower {
					if used[i] || h == "" {
						continue
					}
					if (exact && h == hint) || (!exact && strings.Contains(h, hint)) {
						used[i] = true
						return i
					}
				}
			}
		}
		return -1
	}

	s := &ColumnSuggestions{}
	s.Date = pick(dateHints)
	s.Debit = pick(debitHints)
	s.Credit = pick(creditHints)
	s.Amount = pick(amountHints)
	s.Description = pick(descriptionHints)

	for i, h := range lower {
		if !used[i] && h != "" {
			s.Others = append(s.Others, i)
		}
	}
	return s
}
