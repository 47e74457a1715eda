package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/export"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/service"
)

func runNormalize(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("normalize", e)
	source := fs.String("source", "", "source id of the mapping configuration (required)")
	sheet := fs.String("sheet", "", "XLSX sheet, the first one by default")
	year := fs.Int("year", time.Now().Year(), "statement year for PDF input")
	output := fs.String("output", "", "output file; defaults to the input name with .csv")
	noValidate := fs.Bool("no-validate", false, "skip table-level checks")
	verbose := fs.Bool("verbose", false, "debug logging and every row issue")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" || fs.NArg() != 1 {
		return usageError("--source and one input file are required")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	deps, err := e.deps(ctx, *verbose)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	format, err := parser.DetectFormat(path, data)
	if err != nil {
		return err
	}
	var res *service.Result
	if format == parser.FormatPDF {
		res, err = deps.ImportService.ExtractPDF(ctx, service.PDFRequest{
			SourceID: *source, Data: data, Year: *year, SkipValidation: *noValidate,
		})
	} else {
		res, err = deps.ImportService.ExtractTabular(ctx, service.Request{
			SourceID: *source, Filename: filepath.Base(path), Data: data, Sheet: *sheet, SkipValidation: *noValidate,
		})
	}
	if err != nil {
		return err
	}

	out := *output
	if out == "" {
		out = export.OutputPath(path)
		if dir := e.cfg.Storage.OutputDir; dir != "" {
			out = filepath.Join(dir, filepath.Base(out))
		}
	}
	if out == path {
		return fmt.Errorf("output %s would overwrite the input, pass --output", out)
	}
	if err := writeOutputs(out, res); err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "%s: %d records, %d rows skipped, total %s -> %s\n",
		res.SourceID, len(res.Records), res.Report.InvalidRows, res.Total(e.cfg.PDF.DefaultCurrency).Display(), out)
	if *verbose {
		for _, is := range res.Report.Issues {
			fmt.Fprintln(e.stdout, " ", is)
		}
	}
	return nil
}

// writeOutputs writes the records, and the issue report when there is one,
// next to it.
func writeOutputs(path string, res *service.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, export.FormatFor(path), res.Records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if len(res.Report.Issues) == 0 {
		return nil
	}

	f, err = os.Create(export.IssuesPath(path))
	if err != nil {
		return err
	}
	if err := export.WriteIssues(f, res.Report.Issues); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
