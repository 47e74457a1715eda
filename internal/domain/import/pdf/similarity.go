package pdf

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ocrFold maps digits that OCR commonly confuses with letters.
var ocrFold = strings.NewReplacer("0", "o", "1", "l", "5", "s", "8", "b")

// normalizeName folds a header token for comparison: lower case, no
// diacritics, letters and digits only, OCR look-alike digits folded.
func normalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return ocrFold.Replace(b.String())
}

// similarity scores two normalized names in [0,1]. It is the Levenshtein
// ratio, raised for names where one contains the other.
func similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}

	longest := max(la, lb)
	score := 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(longest)

	shortest := min(la, lb)
	if shortest >= 3 && (strings.Contains(a, b) || strings.Contains(b, a)) {
		score = max(score, 0.75+0.25*float64(shortest)/float64(longest))
	}
	return max(score, 0)
}
