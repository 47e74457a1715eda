package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/internal/fixtures"
	"github.com/FACorreiaa/statement-mapper/pkg/logger"
	"github.com/FACorreiaa/statement-mapper/pkg/metrics"
	"github.com/FACorreiaa/statement-mapper/pkg/money"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewService(mapping.NewRegistry(nil, logger.Discard()), logger.Discard()).WithMetrics(m)
}

func TestExtractTabular(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("generated export", func(t *testing.T) {
		cfg := mapping.Defaults()["bankofamerica"]
		txs := fixtures.New(3).Transactions(25)
		data, err := fixtures.CSV(cfg, txs)
		require.NoError(t, err)

		res, err := svc.ExtractTabular(ctx, Request{SourceID: "BankOfAmerica", Filename: "boa.csv", Data: data})
		require.NoError(t, err)
		assert.Equal(t, "bankofamerica", res.SourceID)
		assert.Equal(t, KindTabular, res.Kind)
		assert.NotEqual(t, uuid.Nil, res.RunID)
		require.Len(t, res.Records, len(txs))
		assert.Equal(t, len(txs), res.Report.ValidRows)
		for i, r := range res.Records {
			assert.True(t, txs[i].Amount.Equal(r.Amount()))
			assert.Equal(t, i+2, r.SourceRow())
		}

		assert.Equal(t, "USD", res.Currency)
		var amounts []decimal.Decimal
		for _, tx := range txs {
			amounts = append(amounts, tx.Amount)
		}
		assert.Equal(t, money.Sum("USD", amounts...).Minor(), res.Total("EUR").Minor())
	})

	t.Run("total falls back when the source did not resolve", func(t *testing.T) {
		res := &Result{}
		assert.Equal(t, "EUR", res.Total("EUR").Currency())
	})

	t.Run("windows-1252 input", func(t *testing.T) {
		data := []byte("Status,Date,Original Description,Amount\nPosted,01/15/2024,CAF\xc9 ROMA,-4.50\n")
		res, err := svc.ExtractTabular(ctx, Request{SourceID: "bankofamerica", Filename: "boa.csv", Data: data})
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "CAFÉ ROMA", res.Records[0].Description())
	})

	t.Run("row issues do not fail the file", func(t *testing.T) {
		data := []byte("Status,Date,Original Description,Amount\nPosted,01/15/2024,A,-4.50\nPosted,13/45/2024,B,1.00\n")
		res, err := svc.ExtractTabular(ctx, Request{SourceID: "bankofamerica", Filename: "boa.csv", Data: data})
		require.NoError(t, err)
		assert.Len(t, res.Records, 1)
		assert.Equal(t, 1, res.Report.InvalidRows)
		assert.Equal(t, validation.KindDateParse, res.Report.Issues[0].Kind)
	})

	t.Run("unknown source", func(t *testing.T) {
		res, err := svc.ExtractTabular(ctx, Request{SourceID: "nope", Data: []byte("a,b\n1,2\n")})
		require.ErrorIs(t, err, mapping.ErrConfigNotFound)
		require.NotNil(t, res)
		assert.NotNil(t, res.Report)
	})

	t.Run("no data", func(t *testing.T) {
		_, err := svc.ExtractTabular(ctx, Request{SourceID: "chase"})
		assert.ErrorIs(t, err, ErrNoInput)
	})
}

func TestExtractPDF(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cfg := mapping.Defaults()["gg"]

	t.Run("statement text", func(t *testing.T) {
		txs := fixtures.New(5).Transactions(12)
		text, err := fixtures.Statement(cfg, txs, 5)
		require.NoError(t, err)

		res, err := svc.ExtractPDF(ctx, PDFRequest{SourceID: "gg", Text: text, Year: 2024, Debug: true})
		require.NoError(t, err)
		assert.Equal(t, KindPDF, res.Kind)
		require.Len(t, res.Records, len(txs))
		require.NotNil(t, res.Extraction)
		assert.Len(t, res.Extraction.Sections, 3)
		assert.NotNil(t, res.Trace)
		assert.Equal(t, len(txs), res.Report.ValidRows)
	})

	t.Run("failure keeps the trace", func(t *testing.T) {
		res, err := svc.ExtractPDF(ctx, PDFRequest{SourceID: "gg", Text: "NOTHING HERE\n", Year: 2024, Debug: true})
		require.ErrorIs(t, err, validation.ErrSectionNotFound)
		require.NotNil(t, res.Extraction)
		assert.NotNil(t, res.Trace)
		assert.Empty(t, res.Records)
	})

	t.Run("process defaults apply when the source sets none", func(t *testing.T) {
		text := "SUMMARY OF MONETARY BATCHES\nfiller\nfiller\nGross R&C Net Date Ref\n1.00 0.00 1.00 01/01 A1\n"
		narrow := NewService(mapping.NewRegistry(nil, logger.Discard()), logger.Discard()).WithPDFDefaults(2, 0)
		_, err := narrow.ExtractPDF(ctx, PDFRequest{SourceID: "gg", Text: text, Year: 2024})
		assert.ErrorIs(t, err, validation.ErrHeaderNotFound)

		res, err := svc.ExtractPDF(ctx, PDFRequest{SourceID: "gg", Text: text, Year: 2024})
		require.NoError(t, err)
		assert.Len(t, res.Records, 1)
	})

	t.Run("not a pdf", func(t *testing.T) {
		_, err := svc.ExtractPDF(ctx, PDFRequest{SourceID: "gg", Data: []byte("plain"), Year: 2024})
		assert.Error(t, err)
	})

	t.Run("no input", func(t *testing.T) {
		_, err := svc.ExtractPDF(ctx, PDFRequest{SourceID: "gg", Year: 2024})
		assert.True(t, errors.Is(err, ErrNoInput))
	})

	t.Run("source without pdf layout", func(t *testing.T) {
		_, err := svc.ExtractPDF(ctx, PDFRequest{SourceID: "chase", Text: strings.Repeat("x\n", 3), Year: 2024})
		assert.Error(t, err)
	})
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "naïve", string(decodeText([]byte("naïve"))))
	assert.Equal(t, "naïve", string(decodeText([]byte("na\xefve"))))
	zip := []byte("PK\x03\x04\xff\xfe")
	assert.Equal(t, zip, decodeText(zip))
}
