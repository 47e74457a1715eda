// Package parser reads tabular statement exports (delimited text and XLSX)
// into a columnar Table of named fields, the shape consumed by the
// normalizer. The PDF extractor produces the same Table.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrSheetNotFound     = errors.New("sheet not found")
)

// Row is one data row. Index is the row's 1-based position in the original
// input, counting preamble and header lines.
type Row struct {
	Index  int
	Values map[string]string
}

// Get returns the trimmed value of column and whether the row has it.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Table is a columnar record set. Issues holds rows the reader could not
// split into fields.
type Table struct {
	Headers []string
	Rows    []Row
	Issues  []validation.Issue
}

// Lookup resolves a configured column name to the table's header, exactly
// first and then ignoring case and surrounding space.
func (t *Table) Lookup(column string) (string, bool) {
	for _, h := range t.Headers {
		if h == column {
			return h, true
		}
	}
	want := strings.TrimSpace(column)
	for _, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return h, true
		}
	}
	return "", false
}

// MissingColumns lists the columns that no header resolves to.
func (t *Table) MissingColumns(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if _, ok := t.Lookup(c); !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// AddRow maps cells onto the headers. Cells beyond the headers are dropped,
// missing trailing cells are absent, and for duplicate header names the
// first column wins.
func (t *Table) AddRow(index int, cells []string) {
	values := make(map[string]string, len(t.Headers))
	for i, h := range t.Headers {
		if h == "" || i >= len(cells) {
			continue
		}
		if _, dup := values[h]; dup {
			continue
		}
		values[h] = strings.TrimSpace(cells[i])
	}
	t.Rows = append(t.Rows, Row{Index: index, Values: values})
}

// Options controls header detection and sheet selection.
type Options struct {
	// HeaderRow is the 0-based header row; -1 detects it.
	HeaderRow int
	// Delimiter overrides delimiter detection for text input.
	Delimiter rune
	// Keywords are the column names the header is expected to contain.
	Keywords []string
	// Sheet selects an XLSX sheet by name.
	Sheet string
}

// DefaultOptions detects the header, preferring rows naming the given columns.
func DefaultOptions(keywords ...string) Options {
	return Options{HeaderRow: -1, Keywords: keywords}
}

func (o Options) sniff() sniffer.Options {
	return sniffer.Options{HeaderRow: o.HeaderRow, Delimiter: o.Delimiter, Keywords: o.Keywords}
}

// Format is the container format of an input file.
type Format string

const (
	FormatDelimited Format = "delimited"
	FormatXLSX      Format = "xlsx"
	FormatPDF       Format = "pdf"
)

var (
	zipMagic = []byte("PK\x03\x04")
	pdfMagic = []byte("%PDF")
)

// DetectFormat identifies the container format from the content, falling
// back to the file extension.
func DetectFormat(name string, data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF, nil
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt", "":
		return FormatDelimited, nil
	case ".pdf":
		return FormatPDF, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
}

// Parse reads a tabular file, choosing the reader by format. PDF input is
// rejected here; it goes through the PDF extractor.
func Parse(name string, data []byte, opts Options) (*Table, error) {
	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ParseExcel(bytes.NewReader(data), opts)
	case FormatDelimited:
		return ParseDelimited(data, opts)
	}
	return nil, fmt.Errorf("%w: %s is not tabular", ErrUnsupportedFormat, format)
}
