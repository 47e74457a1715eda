// Package pdftext turns a PDF into layout text: one line per row of glyphs,
// words kept in reading order with column gaps rendered as runs of spaces,
// and pages separated by a form feed.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dslipak/pdf"
)

var ErrNoText = errors.New("pdf has no extractable text")

// Extract returns the layout text of an in-memory PDF.
func Extract(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	return read(r)
}

// ExtractFile returns the layout text of the PDF at path.
func ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Extract(data)
}

func read(r *pdf.Reader) (text string, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("read pdf: %v", p)
		}
	}()

	pages := make([]string, 0, r.NumPage())
	found := false
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		lines := Layout(p.Content().Text)
		if len(lines) > 0 {
			found = true
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	if !found {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\f"), nil
}

// Layout groups positioned glyphs into lines, top to bottom. Glyphs whose
// baselines are within half a font size share a line; a horizontal gap wider
// than a quarter of the font size becomes at least one space, wider gaps
// proportionally more.
func Layout(texts []pdf.Text) []string {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			glyphs = append(glyphs, t)
		}
	}
	if len(glyphs) == 0 {
		return nil
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].Y > glyphs[j].Y
	})

	var rows [][]pdf.Text
	for _, g := range glyphs {
		n := len(rows)
		if n > 0 && math.Abs(rows[n-1][0].Y-g.Y) <= tolerance(g) {
			rows[n-1] = append(rows[n-1], g)
			continue
		}
		rows = append(rows, []pdf.Text{g})
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = render(row)
	}
	return lines
}

func tolerance(t pdf.Text) float64 {
	if t.FontSize <= 0 {
		return 2
	}
	return t.FontSize / 2
}

func render(row []pdf.Text) string {
	sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

	var b strings.Builder
	end := row[0].X
	for i, g := range row {
		if i > 0 {
			size := g.FontSize
			if size <= 0 {
				size = 10
			}
			if gap := g.X - end; gap > size/4 {
				b.WriteString(strings.Repeat(" ", max(1, int(gap/(size/2)))))
			}
		}
		b.WriteString(g.S)
		end = math.Max(end, g.X+g.W)
	}
	return strings.TrimRight(b.String(), " ")
}
