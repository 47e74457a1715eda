package inbox

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/service"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/internal/fixtures"
	"github.com/FACorreiaa/statement-mapper/pkg/logger"
	"github.com/FACorreiaa/statement-mapper/pkg/storage"
)

type harness struct {
	store *storage.LocalStorage
	inbox *Inbox
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	registry := mapping.NewRegistry(nil, logger.Discard())
	svc := service.NewService(registry, logger.Discard())
	in := New(store, svc, registry, opts, logger.Discard())
	in.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return &harness{store: store, inbox: in}
}

func (h *harness) drop(t *testing.T, source, name string, data []byte) {
	t.Helper()
	_, err := h.store.Put(context.Background(), source, storage.AreaInput, name, bytes.NewReader(data))
	require.NoError(t, err)
}

func (h *harness) names(t *testing.T, source string, area storage.Area) []string {
	t.Helper()
	files, err := h.store.List(context.Background(), source, area)
	require.NoError(t, err)
	var out []string
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func (h *harness) read(t *testing.T, source string, area storage.Area, name string) string {
	t.Helper()
	r, err := h.store.Open(context.Background(), &storage.FileInfo{SourceID: source, Area: area, Name: name})
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestProcessTabular(t *testing.T) {
	h := newHarness(t, Options{})
	txs := fixtures.New(11).Transactions(8)
	data, err := fixtures.CSV(mapping.Defaults()["bankofamerica"], txs)
	require.NoError(t, err)
	h.drop(t, "bankofamerica", "boa_jan.csv", data)

	sum, err := h.inbox.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Files: 1, Succeeded: 1, Records: len(txs)}, sum)

	assert.Empty(t, h.names(t, "bankofamerica", storage.AreaInput))
	assert.Equal(t, []string{"boa_jan.csv"}, h.names(t, "bankofamerica", storage.AreaProcessed))
	assert.Equal(t, []string{"boa_jan.csv"}, h.names(t, "bankofamerica", storage.AreaOutput))

	out := h.read(t, "bankofamerica", storage.AreaOutput, "boa_jan.csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "date,description,amount"))
	assert.Len(t, lines, len(txs)+1)
}

func TestProcessStatementText(t *testing.T) {
	h := newHarness(t, Options{})
	txs := fixtures.New(4).Transactions(6)
	text, err := fixtures.Statement(mapping.Defaults()["gg"], txs, 0)
	require.NoError(t, err)
	h.drop(t, "gg", "gg_statement_2023.txt", []byte(text))

	sum, err := h.inbox.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, len(txs), sum.Records)

	out := h.read(t, "gg", storage.AreaOutput, "gg_statement_2023.csv")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n")[1:] {
		assert.True(t, strings.HasPrefix(line, "2023-"), line)
	}
}

func TestProcessIssuesReport(t *testing.T) {
	h := newHarness(t, Options{})
	data := []byte("Status,Date,Original Description,Amount\nPosted,01/15/2024,A,-4.50\nPosted,13/45/2024,B,1.00\n")
	h.drop(t, "bankofamerica", "mixed.csv", data)

	sum, err := h.inbox.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 1, sum.Records)
	assert.ElementsMatch(t, []string{"mixed.csv", "mixed.issues.csv"}, h.names(t, "bankofamerica", storage.AreaOutput))
	assert.Contains(t, h.read(t, "bankofamerica", storage.AreaOutput, "mixed.issues.csv"), "13/45/2024")
}

func TestProcessFailures(t *testing.T) {
	t.Run("unsupported file", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.drop(t, "chase", "notes.doc", []byte("hello"))

		sum, err := h.inbox.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Summary{Files: 1, Failed: 1}, sum)
		assert.Equal(t, []string{"notes.doc"}, h.names(t, "chase", storage.AreaFailed))
		assert.Empty(t, h.names(t, "chase", storage.AreaOutput))
	})

	t.Run("invalid share over the limit", func(t *testing.T) {
		h := newHarness(t, Options{MaxInvalidRatio: 0.25})
		data := []byte("Status,Date,Original Description,Amount\nPosted,01/15/2024,A,-4.50\nPosted,13/45/2024,B,1.00\n")
		h.drop(t, "bankofamerica", "mixed.csv", data)

		sum, err := h.inbox.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Failed)
		assert.Equal(t, []string{"mixed.csv"}, h.names(t, "bankofamerica", storage.AreaFailed))
	})

	t.Run("directory without a mapping", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.drop(t, "unknownbank", "a.csv", []byte("x,y\n1,2\n"))

		sum, err := h.inbox.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Summary{}, sum)
		assert.Equal(t, []string{"a.csv"}, h.names(t, "unknownbank", storage.AreaInput))
	})

	t.Run("cancelled", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.drop(t, "chase", "a.csv", []byte("x\n"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h.inbox.Process(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestYearOf(t *testing.T) {
	in := &Inbox{now: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }}
	tests := []struct {
		name string
		want int
	}{
		{"gg_2025.pdf", 2025},
		{"statement_2023_2024.pdf", 2024},
		{"ar-2022-06.pdf", 2022},
		{"batch_20240115.pdf", 2026},
		{"statement.pdf", 2026},
		{"acct_1234.pdf", 2026},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, in.yearOf(tt.name))
		})
	}
}
