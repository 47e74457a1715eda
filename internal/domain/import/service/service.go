// Package service provides the extraction orchestration logic: it resolves a
// source's mapping configuration and runs the tabular or PDF pipeline over
// one input file.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/pdf"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/internal/domain/transaction"
	"github.com/FACorreiaa/statement-mapper/pkg/metrics"
	"github.com/FACorreiaa/statement-mapper/pkg/money"
	"github.com/FACorreiaa/statement-mapper/pkg/pdftext"
)

const (
	KindTabular = "tabular"
	KindPDF     = "pdf"
)

var ErrNoInput = errors.New("no input data")

// ConfigSource resolves a source id to its configuration.
type ConfigSource interface {
	Get(ctx context.Context, sourceID string) (*mapping.Config, error)
}

// Request is one tabular file to extract.
type Request struct {
	SourceID string
	// Filename selects the reader when the content is ambiguous.
	Filename string
	Data     []byte
	// Sheet picks an XLSX sheet; the first one is used when empty.
	Sheet          string
	SkipValidation bool
}

// PDFRequest is one PDF statement. Text is the already extracted layout
// text; when empty, Data is run through the text extractor first.
type PDFRequest struct {
	SourceID       string
	Text           string
	Data           []byte
	Year           int
	SkipValidation bool
	Debug          bool
}

// Result is the outcome of one extraction. Report counts rows across the
// extraction and normalization stages; deciding whether the invalid share is
// acceptable is left to the caller.
type Result struct {
	RunID      uuid.UUID
	SourceID   string
	Kind       string
	Records    []transaction.Record
	Report     *validation.Report
	Trace      *validation.Trace
	Extraction *pdf.Extraction
	Elapsed    time.Duration
	// Currency is the currency of the source's amount convention, empty when
	// the configuration did not resolve.
	Currency string

	started time.Time
}

// Total sums the accepted amounts in the result's currency, or in
// fallback when the result has none.
func (r *Result) Total(fallback string) *money.Total {
	currency := r.Currency
	if currency == "" {
		currency = fallback
	}
	t := money.NewTotal(currency)
	for _, rec := range r.Records {
		t.Add(rec.Amount())
	}
	return t
}

// Service runs extractions. It holds no per-file state and is safe for
// concurrent use.
type Service struct {
	configs ConfigSource
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	pdfOpts pdf.Options
}

// NewService creates a service resolving configurations through configs.
func NewService(configs ConfigSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		configs: configs,
		tracer:  otel.Tracer("statement-mapper/import"),
		logger:  logger,
	}
}

// WithMetrics records every extraction in m.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// WithPDFDefaults sets the header search window and similarity threshold
// used when a source's configuration does not set its own.
func (s *Service) WithPDFDefaults(window int, minSimilarity float64) *Service {
	s.pdfOpts.HeaderWindow = window
	s.pdfOpts.MinSimilarity = minSimilarity
	return s
}

// ExtractTabular parses a CSV, TSV or XLSX file and normalizes its rows.
func (s *Service) ExtractTabular(ctx context.Context, req Request) (res *Result, err error) {
	ctx, span, res := s.start(ctx, KindTabular, req.SourceID)
	defer func() { s.finish(span, res, err) }()

	if len(req.Data) == 0 {
		return res, ErrNoInput
	}
	cfg, err := s.configs.Get(ctx, req.SourceID)
	if err != nil {
		return res, err
	}
	res.Currency = currencyOf(cfg)

	opts := parser.DefaultOptions(cfg.Columns()...)
	opts.Sheet = req.Sheet
	table, err := parser.Parse(req.Filename, decodeText(req.Data), opts)
	if err != nil {
		return res, fmt.Errorf("failed to parse %s: %w", req.Filename, err)
	}
	span.AddEvent("parsed", trace.WithAttributes(attribute.Int("rows", len(table.Rows))))

	records, report, err := normalizer.Normalize(table, cfg, normalizer.Options{SkipValidation: req.SkipValidation})
	if err != nil {
		return res, err
	}
	res.Records, res.Report = records, report
	return res, nil
}

// ExtractPDF locates the configured table in a statement and normalizes its
// rows. On table-location or table-level failures the result still carries
// the extraction and its trace for diagnosis.
func (s *Service) ExtractPDF(ctx context.Context, req PDFRequest) (res *Result, err error) {
	ctx, span, res := s.start(ctx, KindPDF, req.SourceID)
	defer func() { s.finish(span, res, err) }()

	cfg, err := s.configs.Get(ctx, req.SourceID)
	if err != nil {
		return res, err
	}
	res.Currency = currencyOf(cfg)

	text := req.Text
	if text == "" {
		if len(req.Data) == 0 {
			return res, ErrNoInput
		}
		if text, err = pdftext.Extract(req.Data); err != nil {
			return res, err
		}
		span.AddEvent("text extracted", trace.WithAttributes(attribute.Int("bytes", len(text))))
	}

	// A source's own window and threshold win over the process defaults.
	opts := pdf.Options{Year: req.Year, SkipValidation: req.SkipValidation, Debug: req.Debug}
	if p := cfg.PDFExtraction; p != nil {
		if p.HeaderWindow <= 0 {
			opts.HeaderWindow = s.pdfOpts.HeaderWindow
		}
		if p.MinSimilarity <= 0 {
			opts.MinSimilarity = s.pdfOpts.MinSimilarity
		}
	}

	x, err := pdf.Extract(text, cfg, opts)
	if x != nil {
		res.Extraction, res.Trace, res.Report = x, x.Trace, x.Report
	}
	if err != nil {
		if req.Debug && x != nil {
			s.logTrace(ctx, x.Trace)
		}
		return res, err
	}

	records, report, err := normalizer.Normalize(x.Table, cfg, normalizer.Options{
		SkipValidation: req.SkipValidation,
		HeaderChecked:  true,
	})
	if err != nil {
		return res, err
	}
	res.Records, res.Report = records, report
	if req.Debug {
		s.logTrace(ctx, x.Trace)
	}
	return res, nil
}

func (s *Service) start(ctx context.Context, kind, sourceID string) (context.Context, trace.Span, *Result) {
	res := &Result{RunID: uuid.New(), SourceID: mapping.NormalizeKey(sourceID), Kind: kind, started: time.Now()}
	ctx, span := s.tracer.Start(ctx, "extract."+kind, trace.WithAttributes(
		attribute.String("source_id", res.SourceID),
		attribute.String("run_id", res.RunID.String()),
	))
	return ctx, span, res
}

func (s *Service) finish(span trace.Span, res *Result, err error) {
	defer span.End()
	res.Elapsed = time.Since(res.started)
	if res.Report == nil {
		res.Report = validation.NewReport()
	}
	valid, invalid := res.Report.ValidRows, res.Report.InvalidRows
	s.metrics.ObserveExtraction(res.SourceID, res.Kind, err, valid, invalid, res.Elapsed)

	attrs := []slog.Attr{
		slog.String("run_id", res.RunID.String()),
		slog.String("source_id", res.SourceID),
		slog.String("kind", res.Kind),
		slog.Int("valid_rows", valid),
		slog.Int("invalid_rows", invalid),
		slog.Duration("elapsed", res.Elapsed),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "extraction failed", append(attrs, slog.Any("error", err))...)
		return
	}
	span.SetAttributes(attribute.Int("valid_rows", valid), attribute.Int("invalid_rows", invalid))
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "extraction completed", attrs...)
}

func (s *Service) logTrace(ctx context.Context, t *validation.Trace) {
	if t == nil {
		return
	}
	s.logger.DebugContext(ctx, "extraction trace",
		slog.Int("sections", len(t.Sections)),
		slog.Int("candidates", len(t.Candidates)),
		slog.Int("skipped", len(t.Skipped)),
		slog.Any("notes", t.Notes),
	)
}

func currencyOf(cfg *mapping.Config) string {
	conv, err := mapping.AmountConvention(cfg.AmountFormatFor(cfg.AmountMapping))
	if err != nil {
		return ""
	}
	return conv.Currency
}

// decodeText accepts UTF-8 as is and reads anything else as Windows-1252,
// the usual encoding of bank exports that are not UTF-8.
func decodeText(data []byte) []byte {
	if utf8.Valid(data) || isZip(data) {
		return data
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return out
}

func isZip(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "PK\x03\x04"
}
