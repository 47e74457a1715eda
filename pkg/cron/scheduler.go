// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/inbox"
)

// Processor runs one pass over the inboxes. *inbox.Inbox implements it.
type Processor interface {
	Process(ctx context.Context) (inbox.Summary, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	processor Processor
	schedule  string
	timeout   time.Duration
	logger    *slog.Logger

	// A pass still running when the next one fires is skipped.
	running sync.Mutex
}

// NewScheduler creates a new job scheduler running processor on schedule, a
// standard 5-field cron expression.
func NewScheduler(processor Processor, schedule string, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		processor: processor,
		schedule:  schedule,
		timeout:   30 * time.Minute,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.processInboxes)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers an inbox pass outside the schedule.
func (s *Scheduler) RunNow() {
	go s.processInboxes()
}

// processInboxes extracts everything waiting in the input areas.
func (s *Scheduler) processInboxes() {
	if !s.running.TryLock() {
		s.logger.Warn("inbox pass still running, skipping")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("starting inbox pass")
	start := time.Now()

	sum, err := s.processor.Process(ctx)
	if err != nil {
		s.logger.Error("inbox pass aborted",
			slog.Int("files_processed", sum.Succeeded),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Info("inbox pass completed",
		slog.Int("files", sum.Files),
		slog.Int("files_processed", sum.Succeeded),
		slog.Int("files_failed", sum.Failed),
		slog.Int("records", sum.Records),
		slog.Duration("elapsed", time.Since(start)),
	)
}
