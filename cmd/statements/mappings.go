package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/FACorreiaa/statement-mapper/internal/app"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
)

const mappingsUsage = "mappings list | show <id> | validate [file...] | test <id> [--samples file.csv] | template <id> | suggest --source <id> [--name n] [--save] <file>"

func runMappings(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usageError(mappingsUsage)
	}

	var cmd func(context.Context, *env, *app.Dependencies, []string) error
	switch args[0] {
	case "list":
		cmd = mappingsList
	case "show":
		cmd = mappingsShow
	case "validate":
		cmd = mappingsValidate
	case "test":
		cmd = mappingsTest
	case "template":
		cmd = mappingsTemplate
	case "suggest":
		cmd = mappingsSuggest
	default:
		return usageError("unknown subcommand %q; %s", args[0], mappingsUsage)
	}

	deps, err := e.deps(ctx, false)
	if err != nil {
		return err
	}
	defer deps.Cleanup()
	return cmd(ctx, e, deps, args[1:])
}

func mappingsList(_ context.Context, e *env, deps *app.Dependencies, _ []string) error {
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tNAME\tDATE\tAMOUNT\tPDF")
	for _, cfg := range deps.Mappings.List() {
		s := mapping.Summarize(cfg)
		pdf := "no"
		if cfg.PDFEnabled() {
			pdf = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.SourceID, s.DisplayName, s.DateFormat, s.AmountFormat, pdf)
	}
	return tw.Flush()
}

func mappingsShow(ctx context.Context, e *env, deps *app.Dependencies, args []string) error {
	fs := newFlagSet("mappings show", e)
	summary := fs.Bool("summary", false, "print a readable summary instead of JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("mappings show [--summary] <id>")
	}

	cfg, err := deps.Mappings.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *summary {
		fmt.Fprint(e.stdout, mapping.Summarize(cfg))
		return nil
	}
	data, err := mapping.Encode(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, string(data))
	return nil
}

// mappingsValidate checks the given files, or every stored configuration
// when none is named.
func mappingsValidate(ctx context.Context, e *env, deps *app.Dependencies, args []string) error {
	type entry struct {
		name string
		cfg  *mapping.Config
		err  error
	}
	var entries []entry

	if len(args) == 0 {
		stored, err := deps.MappingRepo.List(ctx)
		if err != nil && !errors.Is(err, mapping.ErrConfigInvalid) {
			return err
		}
		if err != nil {
			entries = append(entries, entry{name: "store", err: err})
		}
		for _, cfg := range stored {
			entries = append(entries, entry{name: cfg.SourceID, cfg: cfg})
		}
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		cfg, err := mapping.Decode(data)
		entries = append(entries, entry{name: filepath.Base(path), cfg: cfg, err: err})
	}

	failed := 0
	for _, en := range entries {
		err := en.err
		if err == nil {
			err = mapping.Validate(en.cfg)
		}
		if err != nil {
			failed++
			fmt.Fprintf(e.stdout, "%s: %v\n", en.name, err)
			continue
		}
		fmt.Fprintf(e.stdout, "%s: ok\n", en.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d configurations invalid", failed, len(entries))
	}
	return nil
}

func mappingsTest(ctx context.Context, e *env, deps *app.Dependencies, args []string) error {
	fs := newFlagSet("mappings test", e)
	samples := fs.String("samples", "", "CSV of sample rows; the configuration's example_data by default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("mappings test [--samples file.csv] <id>")
	}

	cfg, err := deps.Mappings.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	var rows []map[string]string
	if *samples != "" {
		f, err := os.Open(*samples)
		if err != nil {
			return err
		}
		rows, err = mapping.ReadExamples(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	rep, err := normalizer.TrySamples(cfg, rows)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTARGET\tCONVERTED\tRATE\tFAILURES")
	for _, f := range rep.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.0f%%\t%v\n", f.Column, f.Target, f.Converted, f.Rows, f.SuccessRate()*100, f.Failures)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%d of %d sample rows produced a record\n", len(rep.Records), rep.Rows)
	for _, w := range rep.Warnings {
		fmt.Fprintln(e.stdout, "warning:", w)
	}
	return nil
}

func mappingsTemplate(ctx context.Context, e *env, deps *app.Dependencies, args []string) error {
	if len(args) != 1 {
		return usageError("mappings template <id>")
	}
	cfg, err := deps.Mappings.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return mapping.WriteTemplate(e.stdout, cfg)
}

// mappingsSuggest drafts a configuration from a sample export and, with
// --save, stores it.
func mappingsSuggest(ctx context.Context, e *env, deps *app.Dependencies, args []string) error {
	fs := newFlagSet("mappings suggest", e)
	source := fs.String("source", "", "source id for the new configuration (required)")
	name := fs.String("name", "", "display name, the source id by default")
	save := fs.Bool("save", false, "store the draft in the mapping store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" || fs.NArg() != 1 {
		return usageError("mappings suggest --source <id> [--name n] [--save] <file>")
	}
	if *name == "" {
		*name = *source
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	cfg, err := mapping.Draft(*source, *name, data)
	if err != nil {
		return err
	}
	out, err := mapping.Encode(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, string(out))

	if *save {
		if err := deps.Mappings.Put(ctx, cfg); err != nil {
			return err
		}
		fmt.Fprintf(e.stderr, "saved %s\n", cfg.SourceID)
	}
	return nil
}
