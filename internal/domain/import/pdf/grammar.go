package pdf

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/pkg/money"
)

// maxRowTokens bounds backtracking on pathological lines.
const maxRowTokens = 64

var referenceRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-_/#]*$`)

// grammar is an ordered list of typed slots matched against the whitespace
// tokens of a line. Text slots absorb one or more tokens; the others take
// exactly one. Optional slots may be absent anywhere in the row.
type grammar struct {
	slots    []mapping.Slot
	amounts  map[string]money.Convention
	fallback money.Convention
	date     *regexp.Regexp
}

func newGrammar(cfg *mapping.Config, dateSep string) (*grammar, error) {
	fallback, err := mapping.AmountConvention(cfg.DefaultAmountFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: default amount format: %v", mapping.ErrConfigInvalid, err)
	}
	g := &grammar{
		slots:    cfg.Grammar(),
		amounts:  map[string]money.Convention{},
		fallback: fallback,
		date:     dateShape(dateSep),
	}
	for _, f := range cfg.Mappings() {
		if f.MappingType != mapping.TypeAmount && f.Kind() != mapping.ValueAmount {
			continue
		}
		c, err := mapping.AmountConvention(cfg.AmountFormatFor(f))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", mapping.ErrConfigInvalid, f.SourceColumn, err)
		}
		g.amounts[f.SourceColumn] = c
	}
	return g, nil
}

// dateShape matches month/day with an optional year using sep.
func dateShape(sep string) *regexp.Regexp {
	s := regexp.QuoteMeta(sep)
	return regexp.MustCompile(`^\d{1,4}` + s + `\d{1,2}(?:` + s + `\d{1,4})?$`)
}

// ordered returns a copy of g with slots arranged in the order the header
// shows the columns. Slots whose column the header lacks keep their place
// relative to the preceding slot and become optional.
func (g *grammar) ordered(m headerMatch) *grammar {
	type keyed struct {
		slot mapping.Slot
		key  float64
	}
	ks := make([]keyed, len(g.slots))
	prev := -1.0
	for i, s := range g.slots {
		key := prev + 0.5
		if pos, ok := m.Position[s.Column]; ok {
			key = float64(pos)
		} else {
			s.Optional = true
		}
		ks[i] = keyed{slot: s, key: key}
		prev = key
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })

	out := *g
	out.slots = make([]mapping.Slot, len(ks))
	for i, k := range ks {
		out.slots[i] = k.slot
	}
	return &out
}

// match fits tokens to the slots. All tokens must be consumed. Among the
// fits, the one filling the most optional slots wins, so a text slot never
// swallows a value an optional slot after it could take.
func (g *grammar) match(fields []string) (map[string]string, bool) {
	if len(fields) == 0 || len(fields) > maxRowTokens {
		return nil, false
	}
	f := &fitter{g: g, fields: fields, memo: map[[2]int]int{}}
	if f.best(0, 0) < 0 {
		return nil, false
	}
	values := make(map[string]string, len(g.slots))
	ti := 0
	for si, s := range g.slots {
		values[s.Column], ti = f.take(si, ti)
	}
	return values, true
}

// fitter memoizes, per slot and token position, how many optional slots the
// rest of the line can fill.
type fitter struct {
	g      *grammar
	fields []string
	memo   map[[2]int]int
}

type choice struct {
	value  string
	next   int
	filled int
}

// best returns the most optional slots fillable from slot si and token ti
// on, or -1 when the remaining tokens cannot be matched.
func (f *fitter) best(si, ti int) int {
	if si == len(f.g.slots) {
		if ti == len(f.fields) {
			return 0
		}
		return -1
	}
	key := [2]int{si, ti}
	if v, ok := f.memo[key]; ok {
		return v
	}
	v := -1
	for _, c := range f.choices(si, ti) {
		if r := f.best(si+1, c.next); r >= 0 && r+c.filled > v {
			v = r + c.filled
		}
	}
	f.memo[key] = v
	return v
}

// choices lists the ways slot si can start at token ti, preferred first:
// longer text spans before shorter ones, an empty optional slot last.
func (f *fitter) choices(si, ti int) []choice {
	slot := f.g.slots[si]
	filled := 0
	if slot.Optional {
		filled = 1
	}
	var cs []choice
	if ti < len(f.fields) {
		if slot.Kind == mapping.SlotText {
			for end := len(f.fields); end > ti; end-- {
				cs = append(cs, choice{value: strings.Join(f.fields[ti:end], " "), next: end, filled: filled})
			}
		} else if f.g.accepts(slot, f.fields[ti]) {
			cs = append(cs, choice{value: f.fields[ti], next: ti + 1, filled: filled})
		}
	}
	if slot.Optional {
		cs = append(cs, choice{next: ti})
	}
	return cs
}

// take returns the value of slot si in the best fit and the next token.
func (f *fitter) take(si, ti int) (string, int) {
	want := f.best(si, ti)
	for _, c := range f.choices(si, ti) {
		if r := f.best(si+1, c.next); r >= 0 && r+c.filled == want {
			return c.value, c.next
		}
	}
	return "", ti
}

func (g *grammar) accepts(slot mapping.Slot, tok string) bool {
	switch slot.Kind {
	case mapping.SlotNumeric:
		return g.numeric(slot.Column, tok)
	case mapping.SlotDate:
		return g.date.MatchString(tok)
	case mapping.SlotReference:
		return referenceRe.MatchString(tok)
	}
	return tok != ""
}

func (g *grammar) numeric(column, tok string) bool {
	if !strings.ContainsFunc(tok, unicode.IsDigit) {
		return false
	}
	conv, ok := g.amounts[column]
	if !ok {
		conv = g.fallback
	}
	_, err := conv.Parse(tok)
	return err == nil
}

// looksLikeData reports whether a line carries an amount or a date, which
// makes a grammar miss worth reporting rather than skipping.
func (g *grammar) looksLikeData(fields []string) bool {
	for _, f := range fields {
		if g.date.MatchString(f) || (g.numeric("", f) && strings.ContainsAny(f, ".,")) {
			return true
		}
	}
	return false
}
