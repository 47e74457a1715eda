package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/inbox"
	"github.com/FACorreiaa/statement-mapper/pkg/cron"
	"github.com/FACorreiaa/statement-mapper/pkg/metrics"
)

// runWorker processes the inboxes under STORAGE_LOCAL_PATH on the configured
// schedule until interrupted, or once with --once.
func runWorker(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("worker", e)
	once := fs.Bool("once", false, "process the inboxes once and exit")
	maxInvalid := fs.Float64("max-invalid", 0, "fail files with a larger share of invalid rows (0 disables)")
	schedule := fs.String("schedule", e.cfg.Worker.Schedule, "cron schedule")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *maxInvalid < 0 || *maxInvalid > 1 {
		return usageError("--max-invalid must be within [0, 1]")
	}

	deps, err := e.deps(ctx, false)
	if err != nil {
		return err
	}
	defer deps.Cleanup()
	if err := deps.InitInbox(inbox.Options{MaxInvalidRatio: *maxInvalid}); err != nil {
		return err
	}

	if *once {
		sum, err := deps.Inbox.Process(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%d files: %d processed, %d failed, %d records\n",
			sum.Files, sum.Succeeded, sum.Failed, sum.Records)
		return nil
	}

	if deps.Config.Observability.MetricsEnabled {
		go func() {
			addr := deps.Config.Observability.MetricsAddr()
			if err := metrics.Serve(ctx, addr, deps.MetricsRegistry, deps.Logger); err != nil {
				deps.Logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	scheduler := cron.NewScheduler(deps.Inbox, *schedule, deps.Logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", *schedule, err)
	}
	scheduler.RunNow()

	<-ctx.Done()
	<-scheduler.Stop().Done()
	deps.Logger.Info("worker stopped")
	return nil
}
