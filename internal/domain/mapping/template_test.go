package mapping

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate(t *testing.T) {
	t.Run("card export", func(t *testing.T) {
		row := Template(Defaults()["chase"])

		assert.Equal(t, map[string]string{
			"Posting Date":    "01/15/2024",
			"Description":     "SAMPLE TRANSACTION",
			"Amount":          "-421.50",
			"Details":         "sample details",
			"Type":            "sample type",
			"Balance":         "-421.50",
			"Check or Slip #": "sample check_number",
		}, row)
	})

	t.Run("merchant batches use their own conventions", func(t *testing.T) {
		row := Template(Defaults()["gg"])

		assert.Equal(t, "2024-01-15", row["Date"])
		assert.Equal(t, "421.50-", row["Net"])
		assert.Equal(t, "421.50-", row["Gross"])
		assert.Equal(t, "SAMPLE TRANSACTION", row["Ref"])
	})
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, Defaults()["sysco"]))
	assert.Equal(t, "Date,Description,Total\n01/15/2024,SAMPLE TRANSACTION,-421.50\n", buf.String())
}

func TestReadExamples(t *testing.T) {
	rows, err := ReadExamples(strings.NewReader("Date,Description,Total\n01/15/2024,MEAT PRODUCTS,225.50\n01/20/2024,DAIRY,85.67\n"))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "MEAT PRODUCTS", rows[0]["Description"])
	assert.Equal(t, "85.67", rows[1]["Total"])
}

func TestSummarize(t *testing.T) {
	s := Summarize(Defaults()["gg"])

	assert.Equal(t, "gg", s.SourceID)
	assert.Equal(t, "Date", s.DateColumn)
	assert.Equal(t, "YYYY-MM-DD", s.DateFormat)
	assert.Equal(t, "USD_TRAILING", s.AmountFormat)
	assert.Equal(t, []string{
		"Gross -> gross (amount)",
		"R&C -> returns_chargebacks (amount)",
	}, s.Optional)
	assert.Equal(t, `section "SUMMARY OF MONETARY BATCHES", 5 columns, min 1 rows`, s.PDF)
	assert.Contains(t, s.String(), "amount:      Net [USD_TRAILING]")

	assert.Equal(t, "disabled", Summarize(Defaults()["sysco"]).PDF)
}

func TestColumnsWithoutExpectedColumns(t *testing.T) {
	cfg := Defaults()["bankofamerica"]
	cfg.ExpectedColumns = nil
	cfg.RequiredColumns = nil

	assert.Equal(t, []string{"Date", "Original Description", "Amount", "Status"}, cfg.Columns())
}
