// Package sniffer detects the layout of delimited statement exports: the
// delimiter, where the header row sits below any preamble, and the regional
// conventions of dates and amounts.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode"
)

// Common statement header keywords (multi-language)
var headerKeywords = []string{
	// English
	"date", "description", "amount", "debit", "credit", "balance", "total", "posting", "merchant",
	"status", "reference", "gross", "net",
	// Portuguese
	"data mov", "descrição", "descricao", "débito", "debito", "crédito", "credito", "saldo", "valor",
	// Spanish
	"fecha", "descripción", "descripcion", "importe", "cargo", "abono",
}

// maxHeaderSearch bounds how far into a file the header row may appear.
const maxHeaderSearch = 20

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// FileConfig holds the detected layout of a delimited file.
type FileConfig struct {
	Delimiter   rune
	SkipLines   int // lines before the header row
	Headers     []string
	Fingerprint string
	SampleRows  [][]string
}

// Options overrides detection. The zero value auto-detects everything except
// the header row, so callers wanting auto-detection set HeaderRow to -1 or use
// Auto.
type Options struct {
	// HeaderRow is the 0-based line of the header row; -1 auto-detects.
	HeaderRow int
	// Delimiter overrides the detected delimiter when non-zero.
	Delimiter rune
	// Keywords are column names expected in the header, typically a mapping
	// configuration's expected columns. Lines containing them rank first.
	Keywords []string
}

// Auto returns options that detect the header row, preferring lines that
// contain the given column names.
func Auto(keywords ...string) Options {
	return Options{HeaderRow: -1, Keywords: keywords}
}

// Detect analyzes a delimited file and returns its layout.
func Detect(data []byte, opts Options) (*FileConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")

	var (
		delimiter rune
		skipLines int
		err       error
	)
	if opts.HeaderRow >= 0 {
		if opts.HeaderRow >= len(lines) {
			return nil, ErrNoHeadersFound
		}
		skipLines = opts.HeaderRow
		delimiter = opts.Delimiter
		if delimiter == 0 {
			delimiter, _ = detectDelimiter(cleanLine(lines[skipLines], skipLines == 0))
			if delimiter == 0 {
				return nil, ErrInvalidDelimiter
			}
		}
	} else {
		delimiter, skipLines, err = findHeaderRow(lines, opts.Delimiter, opts.Keywords)
		if err != nil {
			return nil, err
		}
	}

	headers, err := splitHeader(cleanLine(lines[skipLines], skipLines == 0), delimiter)
	if err != nil {
		return nil, err
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skipLines,
		Headers:     headers,
		Fingerprint: Fingerprint(headers),
		SampleRows:  sampleRows(strings.Join(lines[skipLines+1:], "\n"), delimiter, 5),
	}, nil
}

func splitHeader(line string, delimiter rune) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	return headers, nil
}

// findHeaderRow picks the best-scoring line among the first lines of the file.
func findHeaderRow(lines []string, forced rune, keywords []string) (rune, int, error) {
	bestIndex, bestScore := -1, 0
	var bestDelimiter rune

	for i, line := range lines {
		if i > maxHeaderSearch {
			break
		}
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}

		delimiter, count := forced, 0
		if forced != 0 {
			count = strings.Count(line, string(forced))
		} else {
			delimiter, count = detectDelimiter(line)
		}
		if count < 1 {
			continue
		}

		cells, err := splitHeader(line, delimiter)
		if err != nil {
			continue
		}
		if score := ScoreHeader(cells, keywords); bestIndex == -1 || score > bestScore {
			bestIndex, bestScore, bestDelimiter = i, score, delimiter
		}
	}

	if bestIndex == -1 {
		return 0, 0, ErrNoHeadersFound
	}
	return bestDelimiter, bestIndex, nil
}

// FindHeaderRow picks the header among already split rows, as read from a
// spreadsheet. Rows with fewer than two non-empty cells are never headers.
func FindHeaderRow(rows [][]string, keywords []string) (int, error) {
	bestIndex, bestScore := -1, 0
	for i, row := range rows {
		if i > maxHeaderSearch {
			break
		}
		filled := 0
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				filled++
			}
		}
		if filled < 2 {
			continue
		}
		if score := ScoreHeader(row, keywords); bestIndex == -1 || score > bestScore {
			bestIndex, bestScore = i, score
		}
	}
	if bestIndex == -1 {
		return 0, ErrNoHeadersFound
	}
	return bestIndex, nil
}

// ScoreHeader rates how much cells look like a header row. Cells equal to an
// expected column name dominate, generic header keywords come next, and
// numeric cells count against the row.
func ScoreHeader(cells []string, expected []string) int {
	score := 0
	for _, cell := range cells {
		c := strings.ToLower(strings.TrimSpace(cell))
		if c == "" {
			continue
		}
		score++
		if looksNumeric(c) {
			score -= 5
		}
		for _, kw := range expected {
			if c == strings.ToLower(strings.TrimSpace(kw)) {
				score += 100
				break
			}
		}
		for _, kw := range headerKeywords {
			if strings.Contains(c, kw) {
				score += 10
				break
			}
		}
	}
	return score
}

// looksNumeric flags cells that are data rather than labels.
func looksNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune(" .,-/()$€£'", r):
		default:
			return false
		}
	}
	return digits > 0
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// Fingerprint hashes normalized header names so that files from the same
// source can be recognized regardless of case and punctuation.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

// sampleRows returns up to maxRows records of body.
func sampleRows(body string, delimiter rune, maxRows int) [][]string {
	reader := csv.NewReader(strings.NewReader(body))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for len(rows) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, record)
	}
	return rows
}
