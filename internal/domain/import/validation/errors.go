package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Table-location and table-level policy failures. Structured error types below
// carry the diagnostic context and match these sentinels with errors.Is.
var (
	ErrSectionNotFound  = errors.New("section not found")
	ErrHeaderNotFound   = errors.New("header not found")
	ErrFormatMismatch   = errors.New("format mismatch")
	ErrInsufficientRows = errors.New("insufficient rows")
)

// SectionNotFoundError reports that the section marker never appeared.
type SectionNotFoundError struct {
	SectionHeader string
	LinesScanned  int
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("section %q not found in %d lines", e.SectionHeader, e.LinesScanned)
}

func (e *SectionNotFoundError) Is(target error) bool { return target == ErrSectionNotFound }

// HeaderNotFoundError reports that no line near any section marker resembled
// the expected header. Candidates are the best-scoring lines considered.
type HeaderNotFoundError struct {
	Expected     []string
	SectionLines []int
	Candidates   []HeaderCandidate
}

func (e *HeaderNotFoundError) Error() string {
	msg := fmt.Sprintf("no header matching %v after section at line(s) %v", e.Expected, e.SectionLines)
	if best, ok := bestCandidate(e.Candidates); ok {
		msg += fmt.Sprintf("; best candidate line %d scored %.2f (%q)", best.Line, best.Score, best.Text)
	}
	return msg
}

func (e *HeaderNotFoundError) Is(target error) bool { return target == ErrHeaderNotFound }

// FormatMismatchError reports expected columns the detected header lacks.
type FormatMismatchError struct {
	Expected []string
	Missing  []string
	Line     int
	Score    float64
}

func (e *FormatMismatchError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("header at line %d (score %.2f) is missing expected columns: %s",
			e.Line, e.Score, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("input is missing expected columns: %s", strings.Join(e.Missing, ", "))
}

func (e *FormatMismatchError) Is(target error) bool { return target == ErrFormatMismatch }

// InsufficientRowsError reports a table smaller than the configured minimum.
type InsufficientRowsError struct {
	Rows    int
	MinRows int
}

func (e *InsufficientRowsError) Error() string {
	return fmt.Sprintf("extracted %d rows, minimum required: %d", e.Rows, e.MinRows)
}

func (e *InsufficientRowsError) Is(target error) bool { return target == ErrInsufficientRows }

// IsTableLevel reports whether err is a policy failure that skip-validation
// mode is allowed to suppress.
func IsTableLevel(err error) bool {
	return errors.Is(err, ErrFormatMismatch) || errors.Is(err, ErrInsufficientRows)
}

func bestCandidate(cs []HeaderCandidate) (HeaderCandidate, bool) {
	if len(cs) == 0 {
		return HeaderCandidate{}, false
	}
	best := cs[0]
	for _, c := range cs[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}
