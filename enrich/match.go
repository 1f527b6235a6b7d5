package enrich

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// matchThreshold is the minimum similarity for accepting a candidate.
const matchThreshold = 0.6

// Similarity returns the normalized Levenshtein similarity of two cleaned,
// lowercased names: 1 for identical strings, 0 for nothing in common.
func Similarity(a, b string) float64 {
	a = strings.ToLower(CleanProductName(a))
	b = strings.ToLower(CleanProductName(b))

	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}

	distance := matchr.Levenshtein(a, b)
	return 1 - float64(distance)/float64(longest)
}

// BestMatch picks the candidate most similar to the target name. It
// returns false when no candidate clears the acceptance threshold.
func BestMatch(target string, candidates []Candidate) (Candidate, bool) {
	var best Candidate
	bestScore := 0.0

	for _, candidate := range candidates {
		if candidate.ProductName == "" {
			continue
		}
		if score := Similarity(target, candidate.ProductName); score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	return best, bestScore > matchThreshold
}
