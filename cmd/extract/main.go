// Command extract pulls the transaction table out of a PDF statement and
// writes it as canonical CSV (or XLSX when the output ends in .xlsx).
//
//	extract --pdf statement.pdf --vendor gg --year 2024 [--output out.csv]
//	        [--no-validate] [--verbose] [--debug]
//
// A .txt input is read as text already extracted from the PDF.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/FACorreiaa/statement-mapper/internal/app"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/export"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/service"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/pkg/config"
	"github.com/FACorreiaa/statement-mapper/pkg/logger"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitTable   = 3
	exitConfig  = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	pdf        string
	vendor     string
	year       int
	output     string
	noValidate bool
	verbose    bool
	debug      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.pdf, "pdf", "", "statement PDF, or its extracted text as .txt (required)")
	fs.StringVar(&o.vendor, "vendor", "", "source id of the mapping configuration (required)")
	fs.IntVar(&o.year, "year", 0, "statement year for MM/DD dates (required)")
	fs.StringVar(&o.output, "output", "", "output file; defaults to the input name with .csv")
	fs.BoolVar(&o.noValidate, "no-validate", false, "skip table-level checks, rows are still parsed")
	fs.BoolVar(&o.verbose, "verbose", false, "log progress and list every row issue")
	fs.BoolVar(&o.debug, "debug", false, "print the extraction trace")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var missing []string
	if o.pdf == "" {
		missing = append(missing, "--pdf")
	}
	if o.vendor == "" {
		missing = append(missing, "--vendor")
	}
	if o.year <= 0 {
		missing = append(missing, "--year")
	}
	if len(missing) > 0 {
		fs.Usage()
		return nil, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "extract:", err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "extract:", err)
		return exitFailure
	}
	level := "warn"
	if o.verbose || o.debug {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: cfg.Logging.Format}, stderr)

	deps, err := app.InitDependencies(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "extract:", err)
		return exitFailure
	}
	defer deps.Cleanup()

	data, err := os.ReadFile(o.pdf)
	if err != nil {
		fmt.Fprintln(stderr, "extract:", err)
		return exitFailure
	}
	req := service.PDFRequest{
		SourceID:       o.vendor,
		Year:           o.year,
		SkipValidation: o.noValidate,
		Debug:          o.debug,
	}
	if strings.EqualFold(filepath.Ext(o.pdf), ".txt") {
		req.Text = string(data)
	} else {
		req.Data = data
	}

	res, err := deps.ImportService.ExtractPDF(ctx, req)
	if o.debug && res != nil && res.Trace != nil {
		_, _ = res.Trace.WriteTo(stderr)
	}
	if err != nil {
		fmt.Fprintln(stderr, "extract:", err)
		return exitCode(err)
	}

	out := outputPath(o, cfg.Storage.OutputDir)
	if err := writeResult(out, res); err != nil {
		fmt.Fprintln(stderr, "extract:", err)
		return exitFailure
	}

	fmt.Fprintf(stdout, "wrote %d records to %s, total %s", len(res.Records), out, res.Total(cfg.PDF.DefaultCurrency).Display())
	if n := res.Report.InvalidRows; n > 0 {
		fmt.Fprintf(stdout, " (%d rows skipped, see %s)", n, export.IssuesPath(out))
	}
	fmt.Fprintln(stdout)
	if o.verbose {
		for _, is := range res.Report.Issues {
			fmt.Fprintln(stdout, " ", is)
		}
	}
	return exitOK
}

// exitCode separates a table that could not be located or accepted from
// configuration and I/O failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, validation.ErrSectionNotFound),
		errors.Is(err, validation.ErrHeaderNotFound),
		validation.IsTableLevel(err):
		return exitTable
	}
	if errors.Is(err, mapping.ErrConfigNotFound) || errors.Is(err, mapping.ErrConfigInvalid) {
		return exitConfig
	}
	return exitFailure
}

func outputPath(o *options, outputDir string) string {
	if o.output != "" {
		return o.output
	}
	out := export.OutputPath(o.pdf)
	if outputDir != "" {
		out = filepath.Join(outputDir, filepath.Base(out))
	}
	return out
}

func writeResult(path string, res *service.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := writeFile(path, func(w io.Writer) error {
		return export.Write(w, export.FormatFor(path), res.Records)
	}); err != nil {
		return err
	}
	if len(res.Report.Issues) == 0 {
		return nil
	}
	return writeFile(export.IssuesPath(path), func(w io.Writer) error {
		return export.WriteIssues(w, res.Report.Issues)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
