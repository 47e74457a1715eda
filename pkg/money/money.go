// Package money provides currency-aware amount handling for statement data.
// Canonical amounts are shopspring decimals; Total accumulates them in the
// currency's minor units through go-money for statement totals and display.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes (ISO-4217) that have an amount convention.
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	BRL = "BRL"
	CHF = "CHF"
	CAD = "CAD"
	AUD = "AUD"
)

// Total is a running sum of amounts in one currency, rounded per amount to
// the currency's minor unit the way a statement total is printed.
type Total struct {
	m *money.Money
}

// NewTotal starts an empty total in currencyCode.
func NewTotal(currencyCode string) *Total {
	return &Total{m: money.New(0, currencyCode)}
}

// Sum totals amounts in currencyCode.
func Sum(currencyCode string, amounts ...decimal.Decimal) *Total {
	t := NewTotal(currencyCode)
	for _, a := range amounts {
		t.Add(a)
	}
	return t
}

// Add rounds amount half away from zero to minor units and adds it.
func (t *Total) Add(amount decimal.Decimal) {
	minor := amount.Shift(int32(t.fraction())).Round(0).IntPart()
	// Same currency on both sides, Add cannot fail.
	t.m, _ = t.m.Add(money.New(minor, t.m.Currency().Code))
}

// Minor returns the total in minor units (cents).
func (t *Total) Minor() int64 { return t.m.Amount() }

// Currency returns the ISO-4217 code.
func (t *Total) Currency() string { return t.m.Currency().Code }

// Decimal returns the total with the currency's scale.
func (t *Total) Decimal() decimal.Decimal {
	return decimal.New(t.m.Amount(), -int32(t.fraction()))
}

// Display formats the total with the currency symbol, e.g. "$1,234.56".
func (t *Total) Display() string { return t.m.Display() }

// String returns the total as a plain decimal, e.g. "-275.83".
func (t *Total) String() string {
	return t.Decimal().StringFixed(int32(t.fraction()))
}

func (t *Total) fraction() int { return t.m.Currency().Fraction }

func fraction(currencyCode string) int {
	if c := money.GetCurrency(currencyCode); c != nil {
		return c.Fraction
	}
	return 2
}

func grapheme(currencyCode string) string {
	if c := money.GetCurrency(currencyCode); c != nil {
		return c.Grapheme
	}
	return ""
}
