// Package app wires the configuration, stores and services shared by the
// command-line tools.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/inbox"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/service"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/pkg/config"
	"github.com/FACorreiaa/statement-mapper/pkg/db"
	"github.com/FACorreiaa/statement-mapper/pkg/metrics"
	"github.com/FACorreiaa/statement-mapper/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	MappingRepo mapping.Repository
	Mappings    *mapping.Registry

	// Services
	MetricsRegistry *prometheus.Registry
	Metrics         *metrics.Metrics
	ImportService   *service.Service
	FileStorage     storage.Storage
	Inbox           *inbox.Inbox
}

// InitDependencies initializes all application dependencies. Invalid stored
// mapping configurations are logged and skipped, the rest stay usable.
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if cfg.Mappings.Backend == config.BackendPostgres {
		if err := deps.initDatabase(ctx); err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	// Initialize repositories
	if err := deps.initRepositories(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories opens the mapping store and loads every configuration.
func (d *Dependencies) initRepositories(ctx context.Context) error {
	if d.DB != nil {
		d.MappingRepo = mapping.NewPostgresRepository(d.DB.Pool)
	} else {
		repo, err := mapping.NewFileRepository(d.Config.Mappings.Dir)
		if err != nil {
			return err
		}
		d.MappingRepo = repo
	}

	d.Mappings = mapping.NewRegistry(d.MappingRepo, d.Logger)
	if err := d.Mappings.LoadAll(ctx); err != nil {
		d.Logger.Warn("some mapping configurations were rejected", slog.Any("error", err))
	}
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.MetricsRegistry = prometheus.NewRegistry()
	d.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(d.MetricsRegistry)
	if err != nil {
		return err
	}
	d.Metrics = m

	d.ImportService = service.NewService(d.Mappings, d.Logger).
		WithMetrics(d.Metrics).
		WithPDFDefaults(d.Config.PDF.HeaderWindow, d.Config.PDF.MinSimilarity)

	d.Logger.Debug("services initialized")
	return nil
}

// InitInbox opens the file storage and builds the inbox processor.
func (d *Dependencies) InitInbox(opts inbox.Options) error {
	fileStorage, err := storage.New(&storage.Config{LocalPath: d.Config.Storage.LocalPath})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage
	d.Inbox = inbox.New(d.FileStorage, d.ImportService, d.Mappings, opts, d.Logger)
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Debug("cleanup completed")
}
