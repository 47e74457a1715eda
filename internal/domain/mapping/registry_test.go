package mapping

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// supplierConfig is a minimal valid configuration for a new source.
func supplierConfig(id string) *Config {
	cfg := Defaults()["sysco"]
	cfg.SourceID = id
	cfg.DisplayName = "Supplier " + id
	return cfg
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(nil, testLogger())

	cfg, err := r.Get(context.Background(), "  CHASE ")
	require.NoError(t, err)
	assert.Equal(t, "chase", cfg.SourceID)

	_, err = r.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry(nil, testLogger())

	var ids []string
	for _, cfg := range r.List() {
		ids = append(ids, cfg.SourceID)
	}
	assert.Equal(t, []string{"ar", "bankofamerica", "chase", "gg", "restaurantdepot", "sysco"}, ids)
}

func TestRegistryPutReplacesOnSave(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	r := NewRegistry(repo, testLogger())

	before, err := r.Get(ctx, "chase")
	require.NoError(t, err)

	updated := before.Clone()
	updated.DisplayName = "Chase Bank"
	require.NoError(t, r.Put(ctx, updated))

	after, err := r.Get(ctx, "chase")
	require.NoError(t, err)
	assert.Equal(t, "Chase Bank", after.DisplayName)
	// Earlier readers keep their snapshot.
	assert.Equal(t, "Chase", before.DisplayName)

	// Put stores a copy; later edits by the caller do not leak in.
	updated.DisplayName = "mutated"
	again, err := r.Get(ctx, "chase")
	require.NoError(t, err)
	assert.Equal(t, "Chase Bank", again.DisplayName)

	_, err = os.Stat(filepath.Join(repo.Dir(), "chase.json"))
	assert.NoError(t, err)
}

func TestRegistryPutRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	r := NewRegistry(repo, testLogger())

	cfg := supplierConfig("acme")
	cfg.AmountMapping.AmountFormat = "DOGE"

	err = r.Put(ctx, cfg)
	assert.ErrorIs(t, err, ErrConfigInvalid)

	_, err = r.Get(ctx, "acme")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	_, err = os.Stat(filepath.Join(repo.Dir(), "acme.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRegistryLoadAll(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, supplierConfig("acme")))

	override := Defaults()["sysco"]
	override.DisplayName = "Sysco Foods"
	require.NoError(t, repo.Save(ctx, override))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))

	invalid := supplierConfig("badformat")
	invalid.DefaultDateFormat = "whenever"
	require.NoError(t, repo.Save(ctx, invalid))

	r := NewRegistry(repo, testLogger())
	err = r.LoadAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, err.Error(), "broken.json")
	assert.Contains(t, err.Error(), "badformat")

	acme, err := r.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Supplier acme", acme.DisplayName)

	sysco, err := r.Get(ctx, "sysco")
	require.NoError(t, err)
	assert.Equal(t, "Sysco Foods", sysco.DisplayName)

	_, err = r.Get(ctx, "broken")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	_, err = r.Get(ctx, "badformat")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	// Built-in defaults survive alongside stored entries.
	_, err = r.Get(ctx, "gg")
	assert.NoError(t, err)
}

func TestRegistryDelete(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	r := NewRegistry(repo, testLogger())

	require.NoError(t, r.Put(ctx, supplierConfig("acme")))
	require.NoError(t, r.Delete(ctx, "ACME"))

	_, err = r.Get(ctx, "acme")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	_, err = os.Stat(filepath.Join(repo.Dir(), "acme.json"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, r.Delete(ctx, "acme"), ErrConfigNotFound)

	// Deleting a built-in without a stored file only unpublishes it.
	require.NoError(t, r.Delete(ctx, "sysco"))
	_, err = r.Get(ctx, "sysco")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestRegistryConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cfg, err := r.Get(ctx, "chase")
				if assert.NoError(t, err) {
					assert.NoError(t, Validate(cfg))
				}
				_ = r.List()
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, r.Put(ctx, supplierConfig(fmt.Sprintf("supplier-%d-%d", i, j))))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.List(), 6+8*10)
}
