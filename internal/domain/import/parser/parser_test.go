package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseDelimited(t *testing.T) {
	t.Run("parses standard CSV", func(t *testing.T) {
		csv := `Status,Date,Original Description,Amount
Posted,01/15/2024,VERIZON WIRELESS,-421.50
Posted,01/20/2024,GROCERY STORE,-45.67`

		table, err := ParseDelimited([]byte(csv), DefaultOptions())
		require.NoError(t, err)

		assert.Equal(t, []string{"Status", "Date", "Original Description", "Amount"}, table.Headers)
		require.Len(t, table.Rows, 2)
		assert.Empty(t, table.Issues)

		row := table.Rows[0]
		assert.Equal(t, 2, row.Index)
		assert.Equal(t, "VERIZON WIRELESS", row.Values["Original Description"])
		assert.Equal(t, "-421.50", row.Values["Amount"])
		assert.Equal(t, 3, table.Rows[1].Index)
	})

	t.Run("row indices count preamble and blank lines", func(t *testing.T) {
		csv := "Account;12345\nPeriod;January\n\nData;Descrição;Valor\n02/01/2024;Café;-3,50\n\n05/01/2024;Salário;1.500,00\n"

		table, err := ParseDelimited([]byte(csv), DefaultOptions())
		require.NoError(t, err)

		require.Len(t, table.Rows, 2)
		assert.Equal(t, 5, table.Rows[0].Index)
		assert.Equal(t, 7, table.Rows[1].Index)
		assert.Equal(t, "1.500,00", table.Rows[1].Values["Valor"])
	})

	t.Run("quoted fields spanning lines keep physical numbering", func(t *testing.T) {
		csv := "Date,Description,Total\n01/15/2024,\"MEAT\nPRODUCTS\",225.50\n01/20/2024,DAIRY,85.67\n"

		table, err := ParseDelimited([]byte(csv), DefaultOptions())
		require.NoError(t, err)

		require.Len(t, table.Rows, 2)
		assert.Equal(t, 2, table.Rows[0].Index)
		assert.Equal(t, "MEAT\nPRODUCTS", table.Rows[0].Values["Description"])
		assert.Equal(t, 4, table.Rows[1].Index)
	})

	t.Run("ragged rows", func(t *testing.T) {
		csv := "Date,Description,Total,Note\n01/15/2024,MEAT,225.50\n01/16/2024,FISH,10.00,x,extra\n"

		table, err := ParseDelimited([]byte(csv), DefaultOptions())
		require.NoError(t, err)

		require.Len(t, table.Rows, 2)
		_, ok := table.Rows[0].Get("Note")
		assert.False(t, ok)
		assert.Len(t, table.Rows[1].Values, 4)
	})

	t.Run("blank records are dropped", func(t *testing.T) {
		csv := "Date,Description,Total\n01/15/2024,MEAT,225.50\n,,\n"

		table, err := ParseDelimited([]byte(csv), DefaultOptions())
		require.NoError(t, err)
		assert.Len(t, table.Rows, 1)
	})

	t.Run("keywords pick the configured header", func(t *testing.T) {
		csv := "Merchant,Number,Period,Region,Branch\nGross,R&C,Net,Date,Ref\n1.00,0.00,1.00,2024-01-02,B1\n"

		table, err := ParseDelimited([]byte(csv), DefaultOptions("Gross", "R&C", "Net", "Date", "Ref"))
		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, 3, table.Rows[0].Index)
		assert.Equal(t, "B1", table.Rows[0].Values["Ref"])
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseDelimited(nil, DefaultOptions())
		assert.Error(t, err)
	})
}

func TestParseDelimitedUnterminatedQuote(t *testing.T) {
	csv := "Date,Description,Total\n01/15/2024,MEAT,225.50\n01/16/2024,\"broken,10.00\n"

	table, err := ParseDelimited([]byte(csv), DefaultOptions())
	require.NoError(t, err)

	// The open quote swallows the rest of the line, leaving Total absent for
	// the normalizer to report.
	require.Len(t, table.Rows, 2)
	row := table.Rows[1]
	assert.Equal(t, 3, row.Index)
	assert.Equal(t, "broken,10.00", row.Values["Description"])
	_, ok := row.Get("Total")
	assert.False(t, ok)
}

func TestTableLookup(t *testing.T) {
	table := &Table{Headers: []string{"Posting Date", " Description ", "Amount"}}

	tests := []struct {
		column string
		want   string
		found  bool
	}{
		{"Posting Date", "Posting Date", true},
		{"posting date", "Posting Date", true},
		{"Description", " Description ", true},
		{"Balance", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, ok := table.Lookup(tt.column)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"Balance", "Type"}, table.MissingColumns([]string{"Amount", "Balance", "Type"}))
}

func TestAddRowDuplicateHeaders(t *testing.T) {
	table := &Table{Headers: []string{"Amount", "Amount", ""}}
	table.AddRow(2, []string{" 1.00 ", "2.00", "ignored"})

	require.Len(t, table.Rows, 1)
	assert.Equal(t, map[string]string{"Amount": "1.00"}, table.Rows[0].Values)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Format
		wantErr bool
	}{
		{"statement.csv", []byte("a,b"), FormatDelimited, false},
		{"statement.TSV", []byte("a\tb"), FormatDelimited, false},
		{"export", []byte("a,b"), FormatDelimited, false},
		{"renamed.csv", []byte("%PDF-1.7"), FormatPDF, false},
		{"statement.pdf", []byte("garbage"), FormatPDF, false},
		{"book.xlsx", []byte("PK\x03\x04rest"), FormatXLSX, false},
		{"book.bin", []byte("PK\x03\x04rest"), FormatXLSX, false},
		{"image.png", []byte{0x89, 'P', 'N', 'G'}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsPDF(t *testing.T) {
	_, err := Parse("statement.pdf", []byte("%PDF-1.4"), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func workbook(t testing.TB, sheet string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseExcel(t *testing.T) {
	data := workbook(t, "Transactions", [][]any{
		{"Sysco Corporation"},
		{},
		{"Date", "Description", "Total"},
		{"01/15/2024", "PRODUCE DELIVERY", "310.20"},
		{"01/22/2024", "PAPER GOODS", "64.99"},
	})

	table, err := ParseExcel(bytes.NewReader(data), DefaultOptions("Date", "Description", "Total"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Description", "Total"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 4, table.Rows[0].Index)
	assert.Equal(t, "PRODUCE DELIVERY", table.Rows[0].Values["Description"])
	assert.Equal(t, "64.99", table.Rows[1].Values["Total"])

	t.Run("dispatches from Parse", func(t *testing.T) {
		table, err := Parse("upload.xlsx", data, DefaultOptions())
		require.NoError(t, err)
		assert.Len(t, table.Rows, 2)
	})

	t.Run("explicit sheet must exist", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Sheet = "Missing"
		_, err := ParseExcel(bytes.NewReader(data), opts)
		assert.ErrorIs(t, err, ErrSheetNotFound)
	})

	t.Run("lists sheets", func(t *testing.T) {
		sheets, err := Sheets(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"Transactions"}, sheets)
	})
}

func generateCSV(rows int) []byte {
	var b strings.Builder
	b.WriteString("Posting Date,Description,Amount,Type,Balance\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "01/%02d/2024,MERCHANT %d,-%d.%02d,DEBIT,%d.00\n", i%28+1, i, i%500, i%100, 10000-i)
	}
	return []byte(b.String())
}

func BenchmarkParseDelimited(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		data := generateCSV(size)
		b.Run(fmt.Sprintf("%d_rows", size), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := ParseDelimited(data, DefaultOptions()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
