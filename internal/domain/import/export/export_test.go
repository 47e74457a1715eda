package export

import (
	"bytes"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/transaction"
)

func sampleRecords() []transaction.Record {
	return []transaction.Record{
		transaction.NewRecord(civil.Date{Year: 2024, Month: 1, Day: 15}, "VERIZON WIRELESS",
			decimal.RequireFromString("-421.50"), map[string]string{"status": "Posted"}, 2),
		transaction.NewRecord(civil.Date{Year: 2024, Month: 1, Day: 20}, "REFUND, STORE",
			decimal.RequireFromString("45.67"), map[string]string{"balance": "100.00", "status": "Pending"}, 3),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords(), "status"))

	want := "date,description,amount,status,balance\n" +
		"2024-01-15,VERIZON WIRELESS,-421.50,Posted,\n" +
		"2024-01-20,\"REFUND, STORE\",45.67,Pending,100.00\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "date,description,amount\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "description", "amount", "balance", "status"}, rows[0])
	assert.Equal(t, "2024-01-20", rows[2][0])
	assert.Equal(t, "Pending", rows[2][4])

	raw, err := f.GetCellValue(sheetName, "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "-421.5", raw)
}

func TestWriteIssues(t *testing.T) {
	issues := []validation.Issue{
		{Row: 3, Kind: validation.KindDateParse, Column: "Date", Value: "13/45", Message: "cannot parse"},
		{Row: 5, Kind: validation.KindMissingOptional, Column: "Balance", Value: "n/a", Message: "kept raw value"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteIssues(&buf, issues))
	want := "row,severity,kind,column,value,message\n" +
		"3,error,date-parse-error,Date,13/45,cannot parse\n" +
		"5,warning,missing-optional-field,Balance,n/a,kept raw value\n"
	assert.Equal(t, want, buf.String())
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "statements/gg_2024.csv", OutputPath("statements/gg_2024.pdf"))
	assert.Equal(t, "out/gg.issues.csv", IssuesPath("out/gg.csv"))
	assert.Equal(t, FormatXLSX, FormatFor("out/GG.XLSX"))
	assert.Equal(t, FormatCSV, FormatFor("out/gg"))

	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Format("json"), nil))
}
