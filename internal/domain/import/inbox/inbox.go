// Package inbox processes the files dropped into each source's input area:
// every file is extracted, its canonical CSV is written to the output area
// and the input is moved to processed or failed.
package inbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/export"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/service"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/pkg/storage"
)

// Extractor runs one extraction. *service.Service implements it.
type Extractor interface {
	ExtractTabular(ctx context.Context, req service.Request) (*service.Result, error)
	ExtractPDF(ctx context.Context, req service.PDFRequest) (*service.Result, error)
}

// ErrTooManyInvalid rejects a file whose share of invalid rows exceeds the
// configured limit.
var ErrTooManyInvalid = errors.New("too many invalid rows")

// Options tunes a processing pass.
type Options struct {
	// MaxInvalidRatio fails a file when more than this share of its rows is
	// invalid. Zero disables the check.
	MaxInvalidRatio float64
}

// Summary counts the outcome of one pass over all inboxes.
type Summary struct {
	Files     int
	Succeeded int
	Failed    int
	Records   int
}

// Inbox moves files through the storage areas of every configured source.
type Inbox struct {
	store   storage.Storage
	extract Extractor
	configs service.ConfigSource
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

func New(store storage.Storage, extract Extractor, configs service.ConfigSource, opts Options, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		store:   store,
		extract: extract,
		configs: configs,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Process handles every file currently waiting in an input area. A failing
// file does not stop the pass; only storage errors do.
func (in *Inbox) Process(ctx context.Context) (Summary, error) {
	var sum Summary

	sources, err := in.store.Sources(ctx)
	if err != nil {
		return sum, err
	}
	for _, source := range sources {
		cfg, err := in.configs.Get(ctx, source)
		if errors.Is(err, mapping.ErrConfigNotFound) {
			in.logger.Debug("skipping directory without a mapping", slog.String("source_id", source))
			continue
		}
		if err != nil {
			return sum, err
		}

		files, err := in.store.List(ctx, source, storage.AreaInput)
		if err != nil {
			return sum, err
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			sum.Files++
			n, err := in.processFile(ctx, cfg, f)
			if err != nil {
				sum.Failed++
				in.logger.Warn("inbox file failed",
					slog.String("source_id", source),
					slog.String("file", f.Name),
					slog.Any("error", err),
				)
				if _, merr := in.store.Move(ctx, f, storage.AreaFailed); merr != nil {
					return sum, fmt.Errorf("failed to move %s to %s: %w", f.Name, storage.AreaFailed, merr)
				}
				continue
			}
			sum.Succeeded++
			sum.Records += n
			if _, err := in.store.Move(ctx, f, storage.AreaProcessed); err != nil {
				return sum, fmt.Errorf("failed to move %s to %s: %w", f.Name, storage.AreaProcessed, err)
			}
		}
	}
	return sum, nil
}

func (in *Inbox) processFile(ctx context.Context, cfg *mapping.Config, f *storage.FileInfo) (int, error) {
	data, err := in.read(ctx, f)
	if err != nil {
		return 0, err
	}

	res, err := in.run(ctx, cfg, f.Name, data)
	if err != nil {
		return 0, err
	}
	if limit := in.opts.MaxInvalidRatio; limit > 0 && res.Report.InvalidRatio() > limit {
		return 0, fmt.Errorf("%w: %d of %d", ErrTooManyInvalid, res.Report.InvalidRows, res.Report.TotalRows())
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, res.Records); err != nil {
		return 0, err
	}
	out := export.OutputPath(f.Name)
	if _, err := in.store.Put(ctx, f.SourceID, storage.AreaOutput, out, &buf); err != nil {
		return 0, err
	}
	if len(res.Report.Issues) > 0 {
		buf.Reset()
		if err := export.WriteIssues(&buf, res.Report.Issues); err != nil {
			return 0, err
		}
		if _, err := in.store.Put(ctx, f.SourceID, storage.AreaOutput, export.IssuesPath(out), &buf); err != nil {
			return 0, err
		}
	}

	in.logger.Info("inbox file processed",
		slog.String("source_id", f.SourceID),
		slog.String("file", f.Name),
		slog.String("output", out),
		slog.Int("records", len(res.Records)),
		slog.Int("issues", len(res.Report.Issues)),
	)
	return len(res.Records), nil
}

// run picks the pipeline. Plain text dropped for a PDF source is taken as
// already extracted layout text.
func (in *Inbox) run(ctx context.Context, cfg *mapping.Config, name string, data []byte) (*service.Result, error) {
	format, err := parser.DetectFormat(name, data)
	if err != nil {
		return nil, err
	}

	isText := strings.EqualFold(filepath.Ext(name), ".txt")
	switch {
	case format == parser.FormatPDF:
		return in.extract.ExtractPDF(ctx, service.PDFRequest{SourceID: cfg.SourceID, Data: data, Year: in.yearOf(name)})
	case isText && cfg.PDFEnabled():
		return in.extract.ExtractPDF(ctx, service.PDFRequest{SourceID: cfg.SourceID, Text: string(data), Year: in.yearOf(name)})
	default:
		return in.extract.ExtractTabular(ctx, service.Request{SourceID: cfg.SourceID, Filename: name, Data: data})
	}
}

func (in *Inbox) read(ctx context.Context, f *storage.FileInfo) ([]byte, error) {
	r, err := in.store.Open(ctx, f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// yearOf returns the last four-digit group in a file name that reads as a
// year, e.g. gg_2025.pdf, or the current year.
func (in *Inbox) yearOf(name string) int {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	runs := digitRun.FindAllString(stem, -1)
	for i := len(runs) - 1; i >= 0; i-- {
		if len(runs[i]) != 4 {
			continue
		}
		if y, err := strconv.Atoi(runs[i]); err == nil && y >= 1900 && y < 2100 {
			return y
		}
	}
	return in.now().Year()
}
