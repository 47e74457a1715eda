package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/internal/fixtures"
)

type cli struct {
	dir      string
	mappings string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	c := &cli{dir: dir, mappings: filepath.Join(dir, "mappings")}
	t.Setenv("MAPPINGS_DIR", c.mappings)
	t.Setenv("MAPPINGS_BACKEND", "file")
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("PDF_MIN_SIMILARITY", "")
	return c
}

func (c *cli) statement(t *testing.T, name string, n int) string {
	t.Helper()
	text, err := fixtures.Statement(mapping.Defaults()["gg"], fixtures.New(9).Transactions(n), 5)
	require.NoError(t, err)
	path := filepath.Join(c.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func (c *cli) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunWritesCanonicalCSV(t *testing.T) {
	c := newCLI(t)
	in := c.statement(t, "gg_jan.txt", 12)

	code, stdout, stderr := c.run(t, "--pdf", in, "--vendor", "GG", "--year", "2024")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "wrote 12 records")

	data, err := os.ReadFile(filepath.Join(c.dir, "gg_jan.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 13)
	assert.True(t, strings.HasPrefix(lines[0], "date,description,amount"))
	assert.True(t, strings.HasPrefix(lines[1], "2024-"))
}

func TestRunOutputOptions(t *testing.T) {
	c := newCLI(t)
	in := c.statement(t, "gg_jan.txt", 6)

	t.Run("explicit xlsx output", func(t *testing.T) {
		out := filepath.Join(c.dir, "out", "gg.xlsx")
		code, _, stderr := c.run(t, "--pdf", in, "--vendor", "gg", "--year", "2024", "--output", out)
		require.Equal(t, exitOK, code, stderr)
		assert.FileExists(t, out)
	})

	t.Run("output directory from the environment", func(t *testing.T) {
		t.Setenv("OUTPUT_DIR", filepath.Join(c.dir, "exports"))
		code, _, stderr := c.run(t, "--pdf", in, "--vendor", "gg", "--year", "2024")
		require.Equal(t, exitOK, code, stderr)
		assert.FileExists(t, filepath.Join(c.dir, "exports", "gg_jan.csv"))
	})
}

func TestRunDebugTrace(t *testing.T) {
	c := newCLI(t)
	in := c.statement(t, "gg_jan.txt", 12)

	code, _, stderr := c.run(t, "--pdf", in, "--vendor", "gg", "--year", "2024", "--debug")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "[DEBUG] section found at line")
}

func TestRunExitCodes(t *testing.T) {
	c := newCLI(t)
	in := c.statement(t, "gg_jan.txt", 3)
	empty := filepath.Join(c.dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("NO TABLE IN THIS STATEMENT\n"), 0644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing flags", []string{"--pdf", in}, exitUsage},
		{"help", []string{"-h"}, exitOK},
		{"unknown vendor", []string{"--pdf", in, "--vendor", "nope", "--year", "2024"}, exitConfig},
		{"section not found", []string{"--pdf", empty, "--vendor", "gg", "--year", "2024"}, exitTable},
		{"missing input", []string{"--pdf", filepath.Join(c.dir, "absent.txt"), "--vendor", "gg", "--year", "2024"}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := c.run(t, tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRunNoValidate(t *testing.T) {
	c := newCLI(t)
	cfg := mapping.Defaults()["gg"]
	minRows := 50
	cfg.PDFExtraction.ValidationRules.MinRows = &minRows
	repo, err := mapping.NewFileRepository(c.mappings)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), cfg))
	in := c.statement(t, "gg_jan.txt", 4)

	code, _, _ := c.run(t, "--pdf", in, "--vendor", "gg", "--year", "2024")
	assert.Equal(t, exitTable, code)

	code, stdout, stderr := c.run(t, "--pdf", in, "--vendor", "gg", "--year", "2024", "--no-validate")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "wrote 4 records")
}
