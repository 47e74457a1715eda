// Package validation collects row-level issues, table-level failures and the
// optional debug trace shared by the tabular and PDF extraction paths.
package validation

import (
	"fmt"
	"sort"
)

// Kind classifies a row issue.
type Kind string

const (
	KindMissingRequired Kind = "missing-required-field"
	KindDateParse       Kind = "date-parse-error"
	KindAmountParse     Kind = "amount-parse-error"
	KindMissingOptional Kind = "missing-optional-field"
	KindUnparseableRow  Kind = "unparseable-row"
)

// Severity of an issue. Warnings never exclude the row from output.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Severity returns the severity implied by the kind.
func (k Kind) Severity() Severity {
	if k == KindMissingOptional {
		return SeverityWarning
	}
	return SeverityError
}

// Issue is a structured, non-fatal diagnostic attached to one input row.
// Row is 1-based and counts the header line, matching the row's position in
// the original input.
type Issue struct {
	Row     int    `json:"row"`
	Kind    Kind   `json:"kind"`
	Column  string `json:"column,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (i Issue) Severity() Severity { return i.Kind.Severity() }

func (i Issue) String() string {
	if i.Column != "" {
		return fmt.Sprintf("row %d, column %s: %s: %s", i.Row, i.Column, i.Kind, i.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", i.Row, i.Kind, i.Message)
}

// Report holds the per-invocation outcome counts and issues.
type Report struct {
	ValidRows   int     `json:"valid_rows"`
	InvalidRows int     `json:"invalid_rows"`
	Issues      []Issue `json:"issues"`
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{Issues: make([]Issue, 0)}
}

// Accept records a row that produced a canonical record.
func (r *Report) Accept() {
	r.ValidRows++
}

// Reject records a row excluded from output along with the reason.
func (r *Report) Reject(issue Issue) {
	r.InvalidRows++
	r.Issues = append(r.Issues, issue)
}

// Warn records a warning for a row that is still emitted.
func (r *Report) Warn(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// Merge folds other into r and keeps issues ordered by row.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.ValidRows += other.ValidRows
	r.InvalidRows += other.InvalidRows
	r.Issues = append(r.Issues, other.Issues...)
	r.Sort()
}

// Sort orders issues by row, keeping the recording order within a row.
func (r *Report) Sort() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		return r.Issues[i].Row < r.Issues[j].Row
	})
}

// TotalRows is the number of data rows considered.
func (r *Report) TotalRows() int {
	return r.ValidRows + r.InvalidRows
}

// Errors returns issues that excluded a row.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns issues that did not exclude a row.
func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity() == sev {
			out = append(out, i)
		}
	}
	return out
}

// CountByKind tallies issues per kind.
func (r *Report) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, i := range r.Issues {
		counts[i.Kind]++
	}
	return counts
}

// InvalidRatio is the share of rows rejected, 0 when nothing was processed.
func (r *Report) InvalidRatio() float64 {
	total := r.TotalRows()
	if total == 0 {
		return 0
	}
	return float64(r.InvalidRows) / float64(total)
}
