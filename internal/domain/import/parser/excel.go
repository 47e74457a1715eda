package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/sniffer"
)

// preferredSheets are tried, case-insensitively, before falling back to the
// first sheet of the workbook.
var preferredSheets = []string{
	"transactions", "statement", "movimentos", "extrato", "data", "sheet1",
}

// ParseExcel reads an XLSX workbook. Row indices are spreadsheet row numbers.
func ParseExcel(r io.Reader, opts Options) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	headerRow := opts.HeaderRow
	if headerRow < 0 {
		if headerRow, err = sniffer.FindHeaderRow(rows, opts.Keywords); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	if headerRow >= len(rows) {
		return nil, fmt.Errorf("sheet %s: %w", sheet, sniffer.ErrNoHeadersFound)
	}

	headers := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for i := headerRow + 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}
		table.AddRow(i+1, rows[i])
	}
	return table, nil
}

func pickSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}

	for _, preferred := range preferredSheets {
		for _, s := range sheets {
			if strings.EqualFold(s, preferred) {
				return s, nil
			}
		}
	}
	return sheets[0], nil
}

// Sheets lists the workbook's sheet names.
func Sheets(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
