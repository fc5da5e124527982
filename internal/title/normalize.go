// Package title normalizes movie titles for matching. Scraped listings and
// TMDB frequently disagree on punctuation, articles and casing for the same
// film, so all cross-source comparison happens on normalized form.
package title

import (
	"regexp"
	"strings"
)

var (
	punct      = regexp.MustCompile(`[^\p{L}\p{N} ]+`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
	// Trailing edition tags vendors tack onto titles ("4K", "Extended Cut").
	editionSuffix = regexp.MustCompile(`(?i)\s*[\(\[][^)\]]*(4k|uhd|extended|unrated|director'?s cut|special edition)[^)\]]*[\)\]]\s*$`)
)

// Normalize lowercases, strips punctuation and edition suffixes, and
// collapses whitespace.
func Normalize(t string) string {
	n := editionSuffix.ReplaceAllString(strings.TrimSpace(t), "")
	n = strings.ToLower(n)
	n = punct.ReplaceAllString(n, " ")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// Similarity returns a 0..1 score between two titles using trigram overlap
// on normalized form. 1.0 means the normalized titles are identical.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		if na == "" {
			return 0
		}
		return 1
	}

	ta, tb := trigrams(na), trigrams(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	// Dice coefficient over the trigram sets.
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}

func trigrams(s string) map[string]struct{} {
	runes := []rune("  " + s + "  ")
	grams := make(map[string]struct{})
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = struct{}{}
	}
	return grams
}
