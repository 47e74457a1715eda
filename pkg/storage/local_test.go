package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := New(&Config{LocalPath: t.TempDir()})
	require.NoError(t, err)

	f, err := s.Put(ctx, "gg", AreaInput, "gg_2024.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), f.Size)
	assert.Equal(t, fileID("gg", AreaInput, "gg_2024.pdf"), f.ID)

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gg"}, sources)

	files, err := s.List(ctx, "gg", AreaInput)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, f.ID, files[0].ID)

	r, err := s.Open(ctx, files[0])
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "%PDF-1.4", string(data))

	moved, err := s.Move(ctx, files[0], AreaProcessed)
	require.NoError(t, err)
	assert.Equal(t, AreaProcessed, moved.Area)
	assert.Equal(t, "gg_2024.pdf", moved.Name)

	left, err := s.List(ctx, "gg", AreaInput)
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = s.Open(ctx, files[0])
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorageMoveCollision(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	first, err := s.Put(ctx, "chase", AreaInput, "jan.csv", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = s.Move(ctx, first, AreaProcessed)
	require.NoError(t, err)

	second, err := s.Put(ctx, "chase", AreaInput, "jan.csv", strings.NewReader("b"))
	require.NoError(t, err)
	moved, err := s.Move(ctx, second, AreaProcessed)
	require.NoError(t, err)
	assert.NotEqual(t, "jan.csv", moved.Name)
	assert.True(t, strings.HasSuffix(moved.Name, "_jan.csv"))

	processed, err := s.List(ctx, "chase", AreaProcessed)
	require.NoError(t, err)
	assert.Len(t, processed, 2)
}

func TestLocalStorageMissingArea(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	files, err := s.List(context.Background(), "sysco", AreaInput)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "__etc_passwd", sanitizeFilename("../etc/passwd"))
	assert.Equal(t, "a_b.csv", sanitizeFilename("a:b.csv"))
}
