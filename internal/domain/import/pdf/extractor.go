// Package pdf locates a source's statement table inside text extracted from
// a PDF and turns it into the same columnar Table the tabular readers
// produce. It relies on the section marker, a fuzzy header match and a typed
// row grammar rather than fixed character offsets, so spacing and OCR noise
// that vary between statement instances do not matter.
package pdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-mapper/internal/domain/import/validation"
	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
)

var (
	ErrPDFDisabled  = errors.New("pdf extraction not enabled for source")
	ErrYearRequired = errors.New("statement year required for month/day dates")
)

// Options tunes one extraction. Zero HeaderWindow and MinSimilarity use the
// source's configuration.
type Options struct {
	// Year completes month/day dates.
	Year int
	// SkipValidation suppresses the table-level checks (missing header
	// columns, minimum row count). Row parsing is unchanged.
	SkipValidation bool
	// Debug records a diagnostics trace.
	Debug         bool
	HeaderWindow  int
	MinSimilarity float64
}

// Extraction is the outcome of scanning one document. Report counts parsed
// rows as valid and unparseable lines as invalid; the same unparseable-row
// issues are carried on Table.Issues for the normalizer.
type Extraction struct {
	Table       *parser.Table
	Report      *validation.Report
	Trace       *validation.Trace
	Sections    []int
	HeaderLines []int
	HeaderScore float64
	Missing     []string
	// Rollovers are lines whose month/day went backwards, a hint that the
	// statement crosses a year boundary. Dates are not adjusted.
	Rollovers []int

	candidates []validation.HeaderCandidate
}

// Rows is the number of table rows extracted.
func (x *Extraction) Rows() int {
	return len(x.Table.Rows)
}

// Extractor is bound to one source configuration and is safe for
// concurrent use.
type Extractor struct {
	pdf        *mapping.PDFExtraction
	opts       Options
	section    string
	window     int
	header     *headerMatcher
	grammar    *grammar
	stops      *keywords
	noise      *keywords
	dateColumn string
	monthDay   mapping.DateFormat
	fullDates  bool
}

// New prepares an extractor for cfg.
func New(cfg *mapping.Config, opts Options) (*Extractor, error) {
	if !cfg.PDFEnabled() {
		return nil, fmt.Errorf("%w: %s", ErrPDFDisabled, cfg.SourceID)
	}
	p := cfg.PDFExtraction

	e := &Extractor{
		pdf:        p,
		opts:       opts,
		section:    lineKey(p.SectionHeader),
		window:     p.Window(),
		stops:      newKeywords(p.StopHeaders),
		noise:      newKeywords(p.NoisePatterns),
		dateColumn: p.DateColumn,
	}
	if opts.HeaderWindow > 0 {
		e.window = opts.HeaderWindow
	}
	threshold := p.Threshold()
	if opts.MinSimilarity > 0 {
		threshold = opts.MinSimilarity
	}
	e.header = newHeaderMatcher(p.ExpectedColumns, threshold)
	if e.dateColumn == "" {
		e.dateColumn = cfg.DateMapping.SourceColumn
	}

	rule := p.ValidationRules.DateFormat
	explicit := rule != ""
	if !explicit {
		rule = "MM/DD"
	}
	f, err := mapping.ParseDateFormat(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: validation_rules.date_format: %v", mapping.ErrConfigInvalid, err)
	}
	if f.Partial() {
		e.monthDay = f
		if explicit && opts.Year <= 0 {
			return nil, ErrYearRequired
		}
	} else {
		e.fullDates = true
	}

	if e.grammar, err = newGrammar(cfg, separator(f.Pattern)); err != nil {
		return nil, err
	}
	return e, nil
}

// Extract runs New and Extract in one call.
func Extract(text string, cfg *mapping.Config, opts Options) (*Extraction, error) {
	e, err := New(cfg, opts)
	if err != nil {
		return nil, err
	}
	return e.Extract(text)
}

type state int

const (
	seekSection state = iota
	parseRows
)

// Extract scans text top to bottom. Every occurrence of the section marker
// starts a header search; rows found after any accepted header accumulate in
// one table, so page breaks do not show in the result. A later section
// without its own header continues with the last one. The Extraction is
// returned together with any error so callers can show the trace.
func (e *Extractor) Extract(text string) (*Extraction, error) {
	lines := splitLines(text)
	x := &Extraction{
		Table:  &parser.Table{Headers: append([]string(nil), e.pdf.ExpectedColumns...)},
		Report: validation.NewReport(),
		Trace:  validation.NewTrace(e.opts.Debug),
	}

	st := seekSection
	var g *grammar
	blank, lastMonth := 0, 0

	for i := 0; i < len(lines); {
		line := lines[i]
		lineNo := i + 1

		if st == seekSection {
			if e.isSection(line) {
				if m, ok := e.enterSection(x, lines, i); ok {
					g = e.grammar.ordered(m)
					st, blank = parseRows, 0
					i = m.Line
					continue
				}
				if g != nil {
					// Continuation without a repeated header.
					x.Trace.Notef("section at line %d continues the table under the header at line %d", lineNo, x.HeaderLines[len(x.HeaderLines)-1])
					st, blank = parseRows, 0
				}
			}
			i++
			continue
		}

		fields := strings.Fields(line)
		switch {
		case len(fields) == 0:
			blank++
			if blank >= e.pdf.BlankLines() {
				x.Trace.Notef("table ended by %d blank lines at line %d", blank, lineNo)
				st = seekSection
			}
			i++
			continue
		case e.isSection(line):
			st = seekSection
			continue
		}
		blank = 0

		if stop, ok := e.stops.leading(line); ok {
			x.Trace.Skip(lineNo, line, "terminator "+strings.TrimSpace(stop))
			st = seekSection
			i++
			continue
		}

		if values, ok := g.match(fields); ok {
			lastMonth = e.addRow(x, lineNo, values, lastMonth)
			i++
			continue
		}

		switch m := e.header.match(lineNo, line); {
		case e.header.accepts(m):
			x.Trace.Skip(lineNo, line, "repeated header")
			g = e.grammar.ordered(m)
		case e.noiseLine(line):
			x.Trace.Skip(lineNo, line, "noise")
		case !g.looksLikeData(fields):
			x.Trace.Skip(lineNo, line, "no amounts or dates")
		default:
			issue := validation.Issue{
				Row:     lineNo,
				Kind:    validation.KindUnparseableRow,
				Value:   strings.TrimSpace(line),
				Message: fmt.Sprintf("%d tokens do not fit the %d-slot row grammar", len(fields), len(g.slots)),
			}
			x.Table.Issues = append(x.Table.Issues, issue)
			x.Report.Reject(issue)
			x.Trace.Skip(lineNo, line, "unparseable")
		}
		i++
	}

	if len(x.Sections) == 0 {
		return x, &validation.SectionNotFoundError{SectionHeader: e.pdf.SectionHeader, LinesScanned: len(lines)}
	}
	if len(x.HeaderLines) == 0 {
		return x, &validation.HeaderNotFoundError{
			Expected:     e.pdf.ExpectedColumns,
			SectionLines: x.Sections,
			Candidates:   x.candidates,
		}
	}

	err := validation.CheckTable(validation.TableCheck{
		Rows:           x.Rows(),
		MinRows:        e.pdf.MinRows(),
		Expected:       e.pdf.ExpectedColumns,
		MissingColumns: x.Missing,
		HeaderLine:     x.HeaderLines[0],
		HeaderScore:    x.HeaderScore,
	}, e.opts.SkipValidation)
	return x, err
}

// enterSection records a section marker at index i and looks for the header
// within the window that follows. The best accepted candidate wins.
func (e *Extractor) enterSection(x *Extraction, lines []string, i int) (headerMatch, bool) {
	x.Sections = append(x.Sections, i+1)
	x.Trace.SectionFound(i+1, lines[i+1:])

	var best headerMatch
	found := false
	start := len(x.candidates)
	end := min(len(lines), i+1+e.window)
	for j := i + 1; j < end; j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		if j > i+1 && e.isSection(lines[j]) {
			break
		}
		m := e.header.match(j+1, lines[j])
		if len(m.Columns) == 0 {
			continue
		}
		accepted := e.header.accepts(m)
		c := validation.HeaderCandidate{Line: m.Line, Text: m.Text, Score: m.Score, Matched: m.Columns}
		x.candidates = append(x.candidates, c)
		if accepted && (!found || m.Score > best.Score) {
			best, found = m, true
		}
	}

	for k := start; k < len(x.candidates); k++ {
		x.candidates[k].Accepted = found && x.candidates[k].Line == best.Line
		x.Trace.Candidate(x.candidates[k])
	}
	if !found {
		x.Trace.Notef("no header within %d lines of section at line %d", e.window, i+1)
		return best, false
	}

	if len(x.HeaderLines) == 0 {
		x.HeaderScore = best.Score
		x.Missing = best.Missing
	}
	x.HeaderLines = append(x.HeaderLines, best.Line)
	return best, true
}

func (e *Extractor) addRow(x *Extraction, lineNo int, values map[string]string, lastMonth int) int {
	if raw, ok := values[e.dateColumn]; ok && !e.fullDates {
		if month, day, ok := e.monthDay.MonthDay(raw); ok {
			if month < lastMonth {
				x.Rollovers = append(x.Rollovers, lineNo)
				x.Trace.Notef("month went from %d to %d at line %d, statement may span two years", lastMonth, month, lineNo)
			}
			lastMonth = month
			if e.opts.Year > 0 {
				values[e.dateColumn] = fmt.Sprintf("%04d-%02d-%02d", e.opts.Year, month, day)
			}
		}
	}

	cells := make([]string, len(x.Table.Headers))
	for i, h := range x.Table.Headers {
		cells[i] = values[h]
	}
	x.Table.AddRow(lineNo, cells)
	x.Report.Accept()
	return lastMonth
}

func (e *Extractor) isSection(line string) bool {
	return e.section != "" && strings.Contains(lineKey(line), e.section)
}

func (e *Extractor) noiseLine(line string) bool {
	_, ok := e.noise.find(line)
	return ok
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n")

func splitLines(text string) []string {
	return strings.Split(lineBreaks.Replace(text), "\n")
}

// separator returns the separator of a date token pattern.
func separator(pattern string) string {
	for _, r := range pattern {
		if r < 'A' || r > 'Z' {
			return string(r)
		}
	}
	return "/"
}
