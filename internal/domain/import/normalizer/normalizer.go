// Package normalizer applies a mapping configuration to a columnar table and
// produces canonical transaction records plus a per-row validation report.
// Both the tabular and the PDF extraction paths end here.
package normalizer

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/internal/domain/transaction"
	"github.com/FACorreiaa/statement-mapper/pkg/money"
)

// Options tunes a normalization run.
type Options struct {
	// SkipValidation proceeds even when expected columns are missing from the
	// table header; rows lacking them are then reported individually.
	SkipValidation bool
	// HeaderChecked tells the normalizer the caller already validated the
	// header against the configuration, as the PDF extractor does.
	HeaderChecked bool
}

// Normalize converts every row of table. Rows are independent: a failing row
// is reported and skipped, never aborting the batch. The only error returned
// is a table-level one: a header that cannot satisfy the configuration, or a
// configuration with unusable formats. No records are produced then.
func Normalize(table *parser.Table, cfg *mapping.Config, opts Options) ([]transaction.Record, *validation.Report, error) {
	report := validation.NewReport()
	for _, issue := range table.Issues {
		report.Reject(issue)
	}

	p, err := newPlan(table, cfg)
	if err != nil {
		return nil, report, err
	}

	if !opts.HeaderChecked {
		missing := table.MissingColumns(cfg.ExpectedColumns)
		if err := validation.CheckTable(validation.TableCheck{
			Rows:           len(table.Rows),
			Expected:       cfg.ExpectedColumns,
			MissingColumns: missing,
		}, opts.SkipValidation); err != nil {
			return nil, report, err
		}
	}

	records := make([]transaction.Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		if rec, ok := p.row(row, report); ok {
			records = append(records, rec)
		}
	}

	report.Sort()
	return records, report, nil
}

// field is a mapping resolved against one table's header.
type field struct {
	mapping.FieldMapping
	header  string // actual header name, empty when the table lacks the column
	kind    mapping.ValueType
	date    mapping.DateFormat
	amount  money.Convention
}

type plan struct {
	required    []field
	date        field
	description field
	amount      field
	optional    []field
}

func newPlan(table *parser.Table, cfg *mapping.Config) (*plan, error) {
	resolve := func(f mapping.FieldMapping, kind mapping.ValueType) (field, error) {
		out := field{FieldMapping: f, kind: kind}
		out.header, _ = table.Lookup(f.SourceColumn)

		var err error
		switch kind {
		case mapping.ValueDate:
			out.date, err = mapping.ParseDateFormat(cfg.DateFormatFor(f))
			if err == nil && out.date.Partial() {
				err = fmt.Errorf("%w: %s has no year", mapping.ErrUnknownDateFormat, out.date.Pattern)
			}
		case mapping.ValueAmount:
			out.amount, err = mapping.AmountConvention(cfg.AmountFormatFor(f))
		}
		if err != nil {
			return out, fmt.Errorf("%w: %s: %v", mapping.ErrConfigInvalid, f.SourceColumn, err)
		}
		return out, nil
	}

	p := &plan{}
	var err error
	if p.date, err = resolve(cfg.DateMapping, mapping.ValueDate); err != nil {
		return nil, err
	}
	if p.description, err = resolve(cfg.DescriptionMapping, mapping.ValueText); err != nil {
		return nil, err
	}
	if p.amount, err = resolve(cfg.AmountMapping, mapping.ValueAmount); err != nil {
		return nil, err
	}
	for _, f := range cfg.OptionalMappings {
		of, err := resolve(f, f.Kind())
		if err != nil {
			return nil, err
		}
		p.optional = append(p.optional, of)
	}

	// Date and amount cannot be defaulted, so an empty one is reported as
	// missing whether or not required_columns lists it. An empty description
	// passes through unless required_columns names its column.
	seen := map[string]bool{}
	for _, col := range cfg.RequiredColumns {
		if seen[col] {
			continue
		}
		seen[col] = true
		header, _ := table.Lookup(col)
		p.required = append(p.required, field{FieldMapping: mapping.FieldMapping{SourceColumn: col}, header: header})
	}
	for _, f := range []field{p.date, p.amount} {
		if !seen[f.SourceColumn] {
			seen[f.SourceColumn] = true
			p.required = append(p.required, f)
		}
	}
	return p, nil
}

func (f field) value(row parser.Row) (string, bool) {
	if f.header == "" {
		return "", false
	}
	v, ok := row.Get(f.header)
	return strings.TrimSpace(v), ok
}

func (p *plan) row(row parser.Row, report *validation.Report) (transaction.Record, bool) {
	var missing []string
	for _, f := range p.required {
		if v, _ := f.value(row); v == "" {
			missing = append(missing, f.SourceColumn)
		}
	}
	if len(missing) > 0 {
		report.Reject(validation.Issue{
			Row:     row.Index,
			Kind:    validation.KindMissingRequired,
			Column:  strings.Join(missing, ", "),
			Message: fmt.Sprintf("required column(s) missing or empty: %s", strings.Join(missing, ", ")),
		})
		return transaction.Record{}, false
	}

	rawDate, _ := p.date.value(row)
	date, err := p.date.date.Parse(rawDate)
	if err != nil {
		report.Reject(validation.Issue{
			Row:     row.Index,
			Kind:    validation.KindDateParse,
			Column:  p.date.SourceColumn,
			Value:   rawDate,
			Message: fmt.Sprintf("cannot parse %q as %s", rawDate, p.date.date.Pattern),
		})
		return transaction.Record{}, false
	}

	rawAmount, _ := p.amount.value(row)
	amount, err := p.amount.amount.Parse(rawAmount)
	if err != nil {
		report.Reject(validation.Issue{
			Row:     row.Index,
			Kind:    validation.KindAmountParse,
			Column:  p.amount.SourceColumn,
			Value:   rawAmount,
			Message: fmt.Sprintf("cannot parse %q as %s amount", rawAmount, p.amount.amount.Name),
		})
		return transaction.Record{}, false
	}

	description, _ := p.description.value(row)

	var attrs map[string]string
	for _, f := range p.optional {
		raw, _ := f.value(row)
		if raw == "" {
			if f.Required {
				report.Warn(validation.Issue{
					Row:     row.Index,
					Kind:    validation.KindMissingOptional,
					Column:  f.SourceColumn,
					Message: fmt.Sprintf("%s is marked required but empty", f.SourceColumn),
				})
			}
			continue
		}

		value, err := f.convert(raw)
		if err != nil {
			report.Warn(validation.Issue{
				Row:     row.Index,
				Kind:    validation.KindMissingOptional,
				Column:  f.SourceColumn,
				Value:   raw,
				Message: fmt.Sprintf("kept raw value, %v", err),
			})
			value = raw
		}
		if attrs == nil {
			attrs = make(map[string]string, len(p.optional))
		}
		attrs[f.TargetField] = value
	}

	report.Accept()
	return transaction.NewRecord(date, description, amount, attrs, row.Index), true
}

// convert renders a typed optional value canonically: amounts as plain
// decimals, dates as ISO dates.
func (f field) convert(raw string) (string, error) {
	switch f.kind {
	case mapping.ValueAmount:
		d, err := f.amount.Parse(raw)
		if err != nil {
			return "", err
		}
		return canonicalAmount(d, f.amount.Fraction()), nil
	case mapping.ValueDate:
		d, err := f.date.Parse(raw)
		if err != nil {
			return "", err
		}
		return isoDate(d), nil
	}
	return raw, nil
}

func canonicalAmount(d decimal.Decimal, fraction int) string {
	places := max(fraction, -int(d.Exponent()))
	return d.StringFixed(int32(places))
}

func isoDate(d civil.Date) string {
	return d.String()
}
