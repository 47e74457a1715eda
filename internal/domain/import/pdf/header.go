package pdf

import (
	"sort"
	"strings"
)

// maxSpanCap bounds how many whitespace-separated tokens one header cell may span.
const maxSpanCap = 6

// headerMatch is the outcome of comparing one line against the expected columns.
type headerMatch struct {
	Line     int
	Text     string
	Score    float64
	Columns  map[string]string // expected column -> header text found
	Position map[string]int    // expected column -> token index in the line
	Missing  []string
}

// headerMatcher finds expected column names in a line regardless of their
// order and spacing.
type headerMatcher struct {
	expected  []string
	norms     []string
	maxSpan   int
	threshold float64
	need      int
}

func newHeaderMatcher(expected []string, threshold float64) *headerMatcher {
	h := &headerMatcher{
		expected:  expected,
		norms:     make([]string, len(expected)),
		maxSpan:   1,
		threshold: threshold,
		need:      max(len(expected)-1, 1),
	}
	for i, e := range expected {
		h.norms[i] = normalizeName(e)
		h.maxSpan = max(h.maxSpan, len(strings.Fields(e))+1)
	}
	h.maxSpan = min(h.maxSpan, maxSpanCap)
	return h
}

type cell struct {
	col   int
	start int
	span  int
	score float64
}

// match assigns header cells to expected columns one-to-one, best scores
// first and longer cells first among equal scores, so "Post Date" is not
// split to feed a "Date" column. A cell is a run of one or more adjacent
// tokens.
func (h *headerMatcher) match(lineNo int, line string) headerMatch {
	fields := strings.Fields(line)
	norms := make([]string, len(fields))
	for i, f := range fields {
		norms[i] = normalizeName(f)
	}

	var cells []cell
	for c, want := range h.norms {
		if want == "" {
			continue
		}
		for s := range fields {
			joined := ""
			for l := 1; l <= h.maxSpan && s+l <= len(fields); l++ {
				joined += norms[s+l-1]
				if l > 1 && norms[s+l-1] == "" {
					continue
				}
				if score := similarity(want, joined); score >= h.threshold {
					cells = append(cells, cell{col: c, start: s, span: l, score: score})
				}
			}
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]
		switch {
		case a.score != b.score:
			return a.score > b.score
		case a.span != b.span:
			return a.span > b.span
		case a.col != b.col:
			return a.col < b.col
		}
		return a.start < b.start
	})

	m := headerMatch{
		Line:     lineNo,
		Text:     strings.TrimSpace(line),
		Columns:  map[string]string{},
		Position: map[string]int{},
	}
	used := make([]bool, len(fields))
	assigned := make([]bool, len(h.expected))
	total := 0.0
	for _, c := range cells {
		if assigned[c.col] || anyUsed(used[c.start:c.start+c.span]) {
			continue
		}
		assigned[c.col] = true
		for i := c.start; i < c.start+c.span; i++ {
			used[i] = true
		}
		col := h.expected[c.col]
		m.Columns[col] = strings.Join(fields[c.start:c.start+c.span], " ")
		m.Position[col] = c.start
		total += c.score
	}
	for i, col := range h.expected {
		if !assigned[i] {
			m.Missing = append(m.Missing, col)
		}
	}
	if len(h.expected) > 0 {
		m.Score = total / float64(len(h.expected))
	}
	return m
}

// accepts reports whether enough columns were found for the line to be the
// table header. One expected column may be missing.
func (h *headerMatcher) accepts(m headerMatch) bool {
	return len(m.Columns) >= h.need
}

func anyUsed(used []bool) bool {
	for _, u := range used {
		if u {
			return true
		}
	}
	return false
}
