// Package transaction defines the canonical transaction record every source
// converges to after normalization.
package transaction

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Canonical column names used by exporters.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
)

// Record is one normalized transaction. Debits are negative, credits positive.
// A Record is built once by the normalizer and never mutated afterwards.
type Record struct {
	date        civil.Date
	description string
	amount      decimal.Decimal
	attributes  map[string]string
	sourceRow   int
}

// NewRecord builds a record. The attribute map is copied.
func NewRecord(date civil.Date, description string, amount decimal.Decimal, attrs map[string]string, sourceRow int) Record {
	var copied map[string]string
	if len(attrs) > 0 {
		copied = make(map[string]string, len(attrs))
		for k, v := range attrs {
			copied[k] = v
		}
	}
	return Record{
		date:        date,
		description: description,
		amount:      amount,
		attributes:  copied,
		sourceRow:   sourceRow,
	}
}

func (r Record) Date() civil.Date { return r.date }
func (r Record) Description() string { return r.description }
func (r Record) Amount() decimal.Decimal { return r.amount }
func (r Record) SourceRow() int { return r.sourceRow }
func (r Record) IsDebit() bool { return r.amount.IsNegative() }

// Attribute returns an auxiliary value carried from an optional mapping.
func (r Record) Attribute(name string) (string, bool) {
	v, ok := r.attributes[name]
	return v, ok
}

// Attributes returns a copy of the auxiliary attribute bag.
func (r Record) Attributes() map[string]string {
	out := make(map[string]string, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

// AttributeNames returns the union of attribute keys across records, in the
// order given by preferred first and then alphabetically for the rest.
func AttributeNames(records []Record, preferred ...string) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r.attributes {
			seen[k] = true
		}
	}

	names := make([]string, 0, len(seen))
	for _, p := range preferred {
		if seen[p] {
			names = append(names, p)
			delete(seen, p)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Amounts extracts the amount column, e.g. for totals.
func Amounts(records []Record) []decimal.Decimal {
	out := make([]decimal.Decimal, len(records))
	for i, r := range records {
		out[i] = r.amount
	}
	return out
}
