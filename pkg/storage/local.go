package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage implements Storage using the local filesystem as
// <base>/<source>/<area>/<name>.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) dir(sourceID string, area Area) string {
	return filepath.Join(s.basePath, sanitizeFilename(sourceID), string(area))
}

func (s *LocalStorage) path(f *FileInfo) string {
	return filepath.Join(s.dir(f.SourceID, f.Area), f.Name)
}

// Sources lists the directories under the base path.
func (s *LocalStorage) Sources(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// List returns the regular files of an area, oldest first. A missing area is
// empty.
func (s *LocalStorage) List(_ context.Context, sourceID string, area Area) ([]*FileInfo, error) {
	entries, err := os.ReadDir(s.dir(sourceID, area))
	if os.IsNotExist(err) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s/%s: %w", sourceID, area, err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, &FileInfo{
			ID:       fileID(sourceID, area, e.Name()),
			SourceID: sourceID,
			Area:     area,
			Name:     e.Name(),
			Size:     st.Size(),
			ModTime:  st.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// Open returns a reader for a file
func (s *LocalStorage) Open(_ context.Context, f *FileInfo) (io.ReadCloser, error) {
	r, err := os.Open(s.path(f))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrFileNotFound, f.SourceID, f.Area, f.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return r, nil
}

// Put writes through a temporary file so readers never see partial content.
func (s *LocalStorage) Put(_ context.Context, sourceID string, area Area, name string, r io.Reader) (*FileInfo, error) {
	dir := s.dir(sourceID, area)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	name = sanitizeFilename(name)

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	target := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	st, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	return &FileInfo{
		ID:       fileID(sourceID, area, name),
		SourceID: sourceID,
		Area:     area,
		Name:     name,
		Size:     size,
		ModTime:  st.ModTime(),
	}, nil
}

// Move renames the file into the target area.
func (s *LocalStorage) Move(_ context.Context, f *FileInfo, to Area) (*FileInfo, error) {
	dir := s.dir(f.SourceID, to)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	name := f.Name
	if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
		name = fmt.Sprintf("%s_%s", uuid.New().String()[:8], name)
	}
	if err := os.Rename(s.path(f), filepath.Join(dir, name)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s/%s", ErrFileNotFound, f.SourceID, f.Area, f.Name)
		}
		return nil, fmt.Errorf("failed to move file: %w", err)
	}

	moved := *f
	moved.Area = to
	moved.Name = name
	moved.ID = fileID(f.SourceID, to, name)
	return &moved, nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
