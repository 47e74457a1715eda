// Command statements is the operator tool around the extraction engine.
//
//	statements normalize --source <id> [--sheet name] [--year y] [--output path] [--no-validate] <file>
//	statements mappings list|show|validate|test|template|suggest ...
//	statements worker [--once]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/FACorreiaa/statement-mapper/internal/app"
	"github.com/FACorreiaa/statement-mapper/pkg/config"
	"github.com/FACorreiaa/statement-mapper/pkg/logger"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage")

const usage = `usage: statements <command> [arguments]

commands:
  normalize   extract one CSV, XLSX or PDF file into canonical CSV
  mappings    list, show, validate, test, template or suggest mapping configurations
  worker      process the per-source inboxes on a schedule
`

// env carries what every command needs.
type env struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

// deps loads configuration and wires the services. verbose lowers the log
// level to debug for this invocation.
func (e *env) deps(ctx context.Context, verbose bool) (*app.Dependencies, error) {
	level := e.cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: e.cfg.Logging.Format}, e.stderr)
	return app.InitDependencies(ctx, e.cfg, log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	var cmd func(context.Context, *env, []string) error
	switch args[0] {
	case "normalize":
		cmd = runNormalize
	case "mappings":
		cmd = runMappings
	case "worker":
		cmd = runWorker
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "statements: unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "statements:", err)
		return exitFailure
	}

	err = cmd(ctx, &env{stdout: stdout, stderr: stderr, cfg: cfg}, args[1:])
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "statements %s: %v\n", args[0], err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "statements %s: %v\n", args[0], err)
		return exitFailure
	}
}

func newFlagSet(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}
