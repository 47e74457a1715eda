package pdf

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// keywords finds any of a fixed set of phrases in a line with a single pass.
// Matching ignores case and collapses runs of whitespace.
type keywords struct {
	matcher  *ahocorasick.Matcher
	patterns []string
}

func newKeywords(patterns []string) *keywords {
	k := &keywords{}
	for _, p := range patterns {
		key := lineKey(p)
		if key == "" {
			continue
		}
		k.patterns = append(k.patterns, key)
	}
	if len(k.patterns) > 0 {
		k.matcher = ahocorasick.NewStringMatcher(k.patterns)
	}
	return k
}

// find returns the first configured phrase contained in line.
func (k *keywords) find(line string) (string, bool) {
	hits := k.hits(line)
	if len(hits) == 0 {
		return "", false
	}
	return k.patterns[hits[0]], true
}

// leading returns a configured phrase that line starts with.
func (k *keywords) leading(line string) (string, bool) {
	key := lineKey(line)
	for _, idx := range k.hits(line) {
		if strings.HasPrefix(key, k.patterns[idx]) {
			return k.patterns[idx], true
		}
	}
	return "", false
}

func (k *keywords) hits(line string) []int {
	if k.matcher == nil {
		return nil
	}
	hits := k.matcher.Match([]byte(lineKey(line)))
	sort.Ints(hits)
	return hits
}

// lineKey upper-cases a line and collapses its whitespace.
func lineKey(line string) string {
	return strings.ToUpper(strings.Join(strings.Fields(line), " "))
}
