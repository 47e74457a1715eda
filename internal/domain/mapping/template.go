package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

var (
	sampleDate   = civil.Date{Year: 2024, Month: 1, Day: 15}
	sampleAmount = decimal.RequireFromString("-421.50")
)

// Columns returns the columns a source file carries: expected_columns when
// declared, otherwise every mapped source column in mapping order.
func (c *Config) Columns() []string {
	if len(c.ExpectedColumns) > 0 {
		out := make([]string, len(c.ExpectedColumns))
		copy(out, c.ExpectedColumns)
		return out
	}
	var cols []string
	for _, f := range c.Mappings() {
		cols = append(cols, f.SourceColumn)
	}
	return cols
}

// Template builds one sample row in the source's own conventions, suitable
// as a starting point for a test file.
func Template(cfg *Config) map[string]string {
	row := make(map[string]string, len(cfg.Columns()))
	for _, col := range cfg.Columns() {
		row[col] = ""
	}

	for _, f := range cfg.Mappings() {
		row[f.SourceColumn] = sampleValue(cfg, f)
	}
	return row
}

func sampleValue(cfg *Config, f FieldMapping) string {
	kind := f.Kind()
	switch f.MappingType {
	case TypeDate:
		kind = ValueDate
	case TypeAmount:
		kind = ValueAmount
	case TypeDescription:
		return "SAMPLE TRANSACTION"
	}

	switch kind {
	case ValueDate:
		if s, err := FormatDate(sampleDate, cfg.DateFormatFor(f)); err == nil {
			return s
		}
	case ValueAmount:
		if conv, err := AmountConvention(cfg.AmountFormatFor(f)); err == nil {
			return conv.Format(sampleAmount)
		}
	}
	return "sample " + f.TargetField
}

// WriteTemplate writes a header line and one sample row as CSV.
func WriteTemplate(w io.Writer, cfg *Config) error {
	cols := cfg.Columns()
	row := Template(cfg)
	values := make([]string, len(cols))
	for i, col := range cols {
		values[i] = row[col]
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	if err := cw.Write(values); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ReadExamples loads sample rows from a CSV with a header line.
func ReadExamples(r io.Reader) ([]map[string]string, error) {
	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read example rows: %w", err)
	}
	return rows, nil
}

// Summary is a human-oriented overview of a configuration.
type Summary struct {
	SourceID        string
	DisplayName     string
	DateColumn      string
	DateFormat      string
	Description     string
	AmountColumn    string
	AmountFormat    string
	Optional        []string
	RequiredColumns []string
	PDF             string
}

// Summarize describes how a configuration maps its source.
func Summarize(cfg *Config) Summary {
	s := Summary{
		SourceID:        cfg.SourceID,
		DisplayName:     cfg.DisplayName,
		DateColumn:      cfg.DateMapping.SourceColumn,
		DateFormat:      cfg.DateFormatFor(cfg.DateMapping),
		Description:     cfg.DescriptionMapping.SourceColumn,
		AmountColumn:    cfg.AmountMapping.SourceColumn,
		AmountFormat:    cfg.AmountFormatFor(cfg.AmountMapping),
		RequiredColumns: append([]string(nil), cfg.RequiredColumns...),
		PDF:             "disabled",
	}
	for _, f := range cfg.OptionalMappings {
		s.Optional = append(s.Optional, fmt.Sprintf("%s -> %s (%s)", f.SourceColumn, f.TargetField, f.Kind()))
	}
	sort.Strings(s.Optional)

	if cfg.PDFEnabled() {
		p := cfg.PDFExtraction
		s.PDF = fmt.Sprintf("section %q, %d columns, min %d rows", p.SectionHeader, len(p.ExpectedColumns), p.MinRows())
	}
	return s
}

// String renders the summary as aligned "key: value" lines.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source:      %s (%s)\n", s.SourceID, s.DisplayName)
	fmt.Fprintf(&b, "date:        %s [%s]\n", s.DateColumn, s.DateFormat)
	fmt.Fprintf(&b, "description: %s\n", s.Description)
	fmt.Fprintf(&b, "amount:      %s [%s]\n", s.AmountColumn, s.AmountFormat)
	if len(s.Optional) > 0 {
		fmt.Fprintf(&b, "optional:    %s\n", strings.Join(s.Optional, ", "))
	}
	if len(s.RequiredColumns) > 0 {
		fmt.Fprintf(&b, "required:    %s\n", strings.Join(s.RequiredColumns, ", "))
	}
	fmt.Fprintf(&b, "pdf:         %s\n", s.PDF)
	return b.String()
}
