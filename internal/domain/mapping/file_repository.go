package mapping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileRepository stores one JSON file per source, named <source_id>.json.
type FileRepository struct {
	dir string
}

// NewFileRepository creates the directory if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mappings directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

// Dir returns the backing directory.
func (r *FileRepository) Dir() string { return r.dir }

// List decodes every *.json file; the file stem is the source id. Files that
// cannot be decoded, or that name a different source_id, are skipped and
// reported as *InvalidError values joined into the returned error.
func (r *FileRepository) List(_ context.Context) ([]*Config, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	configs := make([]*Config, 0, len(names))
	var invalid []error
	for _, name := range names {
		stem := NormalizeKey(strings.TrimSuffix(name, ".json"))
		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		cfg, err := Decode(data)
		if err != nil {
			invalid = append(invalid, &InvalidError{SourceID: stem, Reasons: []string{fmt.Sprintf("%s: %v", name, err)}})
			continue
		}
		switch {
		case cfg.SourceID == "":
			cfg.SourceID = stem
		case cfg.Key() != stem:
			invalid = append(invalid, &InvalidError{SourceID: stem, Reasons: []string{
				fmt.Sprintf("%s: source_id %q does not match the file name", name, cfg.SourceID),
			}})
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, errors.Join(invalid...)
}

// Load reads and validates a single source's file.
func (r *FileRepository) Load(sourceID string) (*Config, error) {
	key := NormalizeKey(sourceID)
	data, err := os.ReadFile(r.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, sourceID)
		}
		return nil, fmt.Errorf("failed to read mapping configuration: %w", err)
	}

	cfg, err := Decode(data)
	if err != nil {
		return nil, &InvalidError{SourceID: key, Reasons: []string{fmt.Sprintf("%s: %v", r.path(key), err)}}
	}
	if cfg.SourceID == "" {
		cfg.SourceID = key
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration atomically.
func (r *FileRepository) Save(_ context.Context, cfg *Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode mapping configuration: %w", err)
	}

	target := r.path(cfg.Key())
	tmp, err := os.CreateTemp(r.dir, ".mapping-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write mapping configuration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write mapping configuration: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace mapping configuration: %w", err)
	}
	return nil
}

// Delete removes the source's file. A missing file is not an error since the
// source may be a built-in default.
func (r *FileRepository) Delete(_ context.Context, sourceID string) error {
	if err := os.Remove(r.path(NormalizeKey(sourceID))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete mapping configuration: %w", err)
	}
	return nil
}

func (r *FileRepository) path(key string) string {
	return filepath.Join(r.dir, key+".json")
}
