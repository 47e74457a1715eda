// Package export writes canonical records and row issues to files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/transaction"
)

// Canonical column names, always first and in this order.
const (
	ColumnDate        = "date"
	ColumnDescription = "description"
	ColumnAmount      = "amount"
)

// Header returns the output columns for records: the canonical columns
// followed by every auxiliary attribute, preferred names first.
func Header(records []transaction.Record, preferred ...string) []string {
	cols := []string{ColumnDate, ColumnDescription, ColumnAmount}
	return append(cols, transaction.AttributeNames(records, preferred...)...)
}

func cells(r transaction.Record, header []string) []string {
	out := make([]string, len(header))
	out[0] = r.Date().String()
	out[1] = r.Description()
	out[2] = amountString(r.Amount())
	for i, name := range header[3:] {
		out[i+3], _ = r.Attribute(name)
	}
	return out
}

// amountString keeps the scale the amount was parsed with.
func amountString(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// WriteCSV writes records in acceptance order with dates as YYYY-MM-DD and
// amounts as plain signed decimals.
func WriteCSV(w io.Writer, records []transaction.Record, preferred ...string) error {
	header := Header(records, preferred...)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(cells(r, header)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Transactions"

// WriteXLSX writes records to a single-sheet workbook. Amounts are numeric
// cells so totals work in a spreadsheet.
func WriteXLSX(w io.Writer, records []transaction.Record, preferred ...string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	header := Header(records, preferred...)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return err
	}

	for n, r := range records {
		row := n + 2
		for i, v := range cells(r, header) {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			var value any = v
			if i == 2 {
				value, _ = r.Amount().Float64()
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
		cell, _ := excelize.CoordinatesToCellName(3, row)
		if err := f.SetCellStyle(sheetName, cell, cell, amountStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return err
	}
	return f.Write(w)
}

// issueRow is the CSV shape of a row issue.
type issueRow struct {
	Row      int    `csv:"row"`
	Severity string `csv:"severity"`
	Kind     string `csv:"kind"`
	Column   string `csv:"column"`
	Value    string `csv:"value"`
	Message  string `csv:"message"`
}

// WriteIssues writes the report's issues as CSV, one line per issue.
func WriteIssues(w io.Writer, issues []validation.Issue) error {
	rows := make([]*issueRow, len(issues))
	for i, is := range issues {
		rows[i] = &issueRow{
			Row:      is.Row,
			Severity: string(is.Severity()),
			Kind:     string(is.Kind),
			Column:   is.Column,
			Value:    is.Value,
			Message:  is.Message,
		}
	}
	return gocsv.Marshal(rows, w)
}

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the format from an output path's extension, CSV by default.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Write writes records in format.
func Write(w io.Writer, format Format, records []transaction.Record, preferred ...string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records, preferred...)
	case FormatXLSX:
		return WriteXLSX(w, records, preferred...)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// OutputPath derives the output file from the input path: the same name and
// directory with a .csv extension.
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".csv"
}

// IssuesPath is the issue report written next to an output file.
func IssuesPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".issues.csv"
}
