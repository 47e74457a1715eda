package mapping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Repository persists configurations. Implementations return configurations
// that have been decoded but not validated.
type Repository interface {
	List(ctx context.Context) ([]*Config, error)
	Save(ctx context.Context, cfg *Config) error
	Delete(ctx context.Context, sourceID string) error
}

// Registry is the configuration store handed to extraction components.
// Readers see an immutable snapshot; writers validate, persist and then swap
// in a new snapshot, so configurations are never mutated in place.
type Registry struct {
	repo   Repository
	logger *slog.Logger

	mu      sync.RWMutex
	configs map[string]*Config
}

// NewRegistry creates a registry seeded with the built-in defaults. repo may
// be nil for an in-memory registry.
func NewRegistry(repo Repository, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		repo:    repo,
		logger:  logger,
		configs: Defaults(),
	}
}

// LoadAll reloads every configuration: built-in defaults first, then the
// repository's entries on top. Invalid stored configurations are rejected and
// reported in the returned error; valid ones are still loaded.
func (r *Registry) LoadAll(ctx context.Context) error {
	next := Defaults()
	if r.repo == nil {
		r.swap(next)
		return nil
	}

	stored, err := r.repo.List(ctx)
	if err != nil && !errors.Is(err, ErrConfigInvalid) {
		return fmt.Errorf("failed to list mapping configurations: %w", err)
	}

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for _, cfg := range stored {
		if err := Validate(cfg); err != nil {
			r.logger.Warn("rejected mapping configuration",
				slog.String("source_id", cfg.SourceID),
				slog.Any("error", err),
			)
			errs = append(errs, err)
			continue
		}
		next[cfg.Key()] = cfg
	}

	r.swap(next)
	r.logger.Info("loaded mapping configurations",
		slog.Int("count", len(next)),
		slog.Int("stored", len(stored)),
		slog.Int("rejected", len(errs)),
	)
	return errors.Join(errs...)
}

// Get returns the configuration for sourceID (case-insensitive).
func (r *Registry) Get(_ context.Context, sourceID string) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[NormalizeKey(sourceID)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, sourceID)
	}
	return cfg, nil
}

// List returns all configurations ordered by source id.
func (r *Registry) List() []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Put validates, persists and publishes a configuration, replacing any
// existing one with the same source id.
func (r *Registry) Put(ctx context.Context, cfg *Config) error {
	stored := cfg.Clone()
	stored.applyDefaults()
	if err := Validate(stored); err != nil {
		return err
	}
	if r.repo != nil {
		if err := r.repo.Save(ctx, stored); err != nil {
			return fmt.Errorf("failed to save mapping configuration %q: %w", stored.SourceID, err)
		}
	}

	r.mu.Lock()
	next := make(map[string]*Config, len(r.configs)+1)
	for k, v := range r.configs {
		next[k] = v
	}
	next[stored.Key()] = stored
	r.configs = next
	r.mu.Unlock()

	r.logger.Info("saved mapping configuration", slog.String("source_id", stored.SourceID))
	return nil
}

// Delete removes a configuration from the store and the registry.
func (r *Registry) Delete(ctx context.Context, sourceID string) error {
	key := NormalizeKey(sourceID)

	r.mu.RLock()
	_, ok := r.configs[key]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrConfigNotFound, sourceID)
	}

	if r.repo != nil {
		if err := r.repo.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete mapping configuration %q: %w", sourceID, err)
		}
	}

	r.mu.Lock()
	next := make(map[string]*Config, len(r.configs))
	for k, v := range r.configs {
		if k != key {
			next[k] = v
		}
	}
	r.configs = next
	r.mu.Unlock()

	r.logger.Info("deleted mapping configuration", slog.String("source_id", key))
	return nil
}

func (r *Registry) swap(next map[string]*Config) {
	r.mu.Lock()
	r.configs = next
	r.mu.Unlock()
}
