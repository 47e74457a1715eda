// Package storage provides the per-source file areas the statement worker
// reads inputs from and writes results to.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// Area is one stage of a source's file lifecycle.
type Area string

const (
	AreaInput     Area = "input"
	AreaOutput    Area = "output"
	AreaProcessed Area = "processed"
	AreaFailed    Area = "failed"
)

var ErrFileNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID       uuid.UUID `json:"id"`
	SourceID string    `json:"source_id"`
	Area     Area      `json:"area"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Sources returns the source ids that have a storage area.
	Sources(ctx context.Context) ([]string, error)

	// List returns the files of one area, oldest first.
	List(ctx context.Context, sourceID string, area Area) ([]*FileInfo, error)

	// Open returns a reader for a file.
	Open(ctx context.Context, f *FileInfo) (io.ReadCloser, error)

	// Put stores r under name in an area, replacing an existing file.
	Put(ctx context.Context, sourceID string, area Area, name string, r io.Reader) (*FileInfo, error)

	// Move transfers a file to another area of the same source. A name
	// already taken there gets a unique prefix.
	Move(ctx context.Context, f *FileInfo, to Area) (*FileInfo, error)
}

// Config holds storage configuration
type Config struct {
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	return NewLocalStorage(cfg.LocalPath)
}

// fileNamespace seeds the stable file ids derived from storage paths.
var fileNamespace = uuid.MustParse("6f1c1f3e-5a8b-4c1e-9a55-2f0d8f7b9c21")

func fileID(sourceID string, area Area, name string) uuid.UUID {
	return uuid.NewSHA1(fileNamespace, []byte(sourceID+"/"+string(area)+"/"+name))
}
