package validation

import (
	"fmt"
	"io"
	"strings"
)

// PreviewLines is how many lines of a located section the trace keeps.
const PreviewLines = 10

// HeaderCandidate is one line considered as the table header.
type HeaderCandidate struct {
	Line     int               `json:"line"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Matched  map[string]string `json:"matched,omitempty"`
	Accepted bool              `json:"accepted"`
}

// SkippedLine records why a line did not become a row.
type SkippedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Section records one occurrence of the section marker.
type Section struct {
	Line    int      `json:"line"`
	Preview []string `json:"preview"`
}

// Trace is the debug record of an extraction. All methods are safe on a nil
// receiver so callers record unconditionally; a nil trace records nothing.
type Trace struct {
	Sections   []Section         `json:"sections"`
	Candidates []HeaderCandidate `json:"candidates"`
	Skipped    []SkippedLine     `json:"skipped"`
	Notes      []string          `json:"notes,omitempty"`
}

// NewTrace returns a trace when enabled, nil otherwise.
func NewTrace(enabled bool) *Trace {
	if !enabled {
		return nil
	}
	return &Trace{}
}

func (t *Trace) Enabled() bool { return t != nil }

// SectionFound records a section marker and the lines that follow it.
func (t *Trace) SectionFound(line int, following []string) {
	if t == nil {
		return
	}
	n := min(len(following), PreviewLines)
	preview := make([]string, n)
	copy(preview, following[:n])
	t.Sections = append(t.Sections, Section{Line: line, Preview: preview})
}

// Candidate records a header candidate with its similarity score.
func (t *Trace) Candidate(c HeaderCandidate) {
	if t == nil {
		return
	}
	t.Candidates = append(t.Candidates, c)
}

// Skip records a line that was not turned into a row.
func (t *Trace) Skip(line int, text, reason string) {
	if t == nil {
		return
	}
	t.Skipped = append(t.Skipped, SkippedLine{Line: line, Text: text, Reason: reason})
}

// Notef records a free-form note.
func (t *Trace) Notef(format string, args ...any) {
	if t == nil {
		return
	}
	t.Notes = append(t.Notes, fmt.Sprintf(format, args...))
}

// WriteTo renders the trace for humans.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	if t == nil {
		return 0, nil
	}
	var b strings.Builder
	for _, s := range t.Sections {
		fmt.Fprintf(&b, "[DEBUG] section found at line %d\n", s.Line)
		fmt.Fprintf(&b, "[DEBUG] first %d lines of section:\n", len(s.Preview))
		for _, l := range s.Preview {
			fmt.Fprintf(&b, "    %s\n", l)
		}
	}
	for _, c := range t.Candidates {
		mark := " "
		if c.Accepted {
			mark = "*"
		}
		fmt.Fprintf(&b, "[DEBUG]%s header candidate line %d score %.2f: %s\n", mark, c.Line, c.Score, c.Text)
		if len(c.Matched) > 0 {
			fmt.Fprintf(&b, "[DEBUG]   mapping: %v\n", c.Matched)
		}
	}
	for _, s := range t.Skipped {
		fmt.Fprintf(&b, "[DEBUG] skipped line %d (%s): %s\n", s.Line, s.Reason, s.Text)
	}
	for _, n := range t.Notes {
		fmt.Fprintf(&b, "[DEBUG] %s\n", n)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
