package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
)

// ParseDelimited reads CSV, TSV, semicolon or pipe separated text. The
// delimiter and header row are detected unless opts fixes them. Fully blank
// records are dropped; records the CSV reader rejects become unparseable-row
// issues.
func ParseDelimited(data []byte, opts Options) (*Table, error) {
	layout, err := sniffer.Detect(data, opts.sniff())
	if err != nil {
		return nil, fmt.Errorf("failed to detect file layout: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	body := strings.Join(lines[layout.SkipLines+1:], "")
	// Physical line of the header; body line n is headerLine+n.
	headerLine := layout.SkipLines + 1

	reader := csv.NewReader(strings.NewReader(body))
	reader.Comma = layout.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	table := &Table{Headers: layout.Headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			table.Issues = append(table.Issues, validation.Issue{
				Row:     headerLine + line,
				Kind:    validation.KindUnparseableRow,
				Message: err.Error(),
			})
			continue
		}
		if blank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		table.AddRow(headerLine+line, record)
	}
	return table, nil
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
