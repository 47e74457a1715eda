package normalizer

import (
	"fmt"
	"sort"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/internal/domain/transaction"
)

// SuccessThreshold is the conversion rate below which a field is flagged.
const SuccessThreshold = 0.8

const maxFailureSamples = 3

// FieldResult is the conversion outcome of one mapping across sample rows.
// Rows counts the rows considered: all of them for the canonical fields, only
// those with a value for optional ones.
type FieldResult struct {
	Column    string
	Target    string
	Rows      int
	Converted int
	Failures  []string
}

// SuccessRate is the share of rows whose value converted.
func (f FieldResult) SuccessRate() float64 {
	if f.Rows == 0 {
		return 0
	}
	return float64(f.Converted) / float64(f.Rows)
}

// SampleReport is the outcome of trying a configuration on sample rows.
type SampleReport struct {
	Rows     int
	Fields   []FieldResult
	Records  []transaction.Record
	Report   *validation.Report
	Warnings []string
}

// TrySamples runs a configuration over sample rows, by default its own
// example_data, and reports per-field conversion rates. Fields converting
// fewer than SuccessThreshold of the rows produce a warning.
func TrySamples(cfg *mapping.Config, rows []map[string]string) (*SampleReport, error) {
	if rows == nil {
		rows = cfg.ExampleData
	}

	table := sampleTable(cfg, rows)
	records, report, err := Normalize(table, cfg, Options{SkipValidation: true})
	if err != nil {
		return nil, err
	}
	p, err := newPlan(table, cfg)
	if err != nil {
		return nil, err
	}

	out := &SampleReport{Rows: len(rows), Records: records, Report: report}
	fields := append([]field{p.date, p.description, p.amount}, p.optional...)
	for i, f := range fields {
		res := FieldResult{Column: f.SourceColumn, Target: f.TargetField}
		for _, row := range table.Rows {
			raw, _ := f.value(row)
			// Empty optional values are not conversion failures.
			if raw == "" && i >= 3 {
				continue
			}
			res.Rows++
			if raw == "" {
				continue
			}
			if _, err := f.convert(raw); err != nil {
				if len(res.Failures) < maxFailureSamples {
					res.Failures = append(res.Failures, raw)
				}
				continue
			}
			res.Converted++
		}
		out.Fields = append(out.Fields, res)

		if res.Rows > 0 && res.SuccessRate() < SuccessThreshold {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: only %.0f%% of values converted", f.SourceColumn, res.SuccessRate()*100))
		}
	}
	if len(rows) == 0 {
		out.Warnings = append(out.Warnings, "no sample rows")
	}
	return out, nil
}

// sampleTable lays sample rows out as a table whose header is line 1.
func sampleTable(cfg *mapping.Config, rows []map[string]string) *parser.Table {
	seen := map[string]bool{}
	var headers []string
	for _, c := range cfg.Columns() {
		if !seen[c] {
			seen[c] = true
			headers = append(headers, c)
		}
	}
	var extra []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	headers = append(headers, extra...)

	table := &parser.Table{Headers: headers}
	for i, row := range rows {
		cells := make([]string, len(headers))
		for j, h := range headers {
			cells[j] = row[h]
		}
		table.AddRow(i+2, cells)
	}
	return table
}
