// Package enrich backfills nutrition facts and product images from
// OpenFoodFacts, matching scraped product names against search results
// with fuzzy string similarity.
package enrich

import (
	"regexp"
	"strings"
)

var (
	brandRe     = regexp.MustCompile(`(?i)Hacendado|Deliplus|Bosque Verde`)
	parensRe    = regexp.MustCompile(`\([^)]*\)`)
	quantityRe  = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(ml|l|g|kg|units|x|\*|cans|bricks|bottles|packs?)\b`)
	packagingRe = regexp.MustCompile(`(?i)\b(bottle|brick|can|package|pot|jar|tablet|tub)s?\b`)
	symbolRe    = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// CleanProductName strips store brands, packaging details and quantities
// from a scraped product name, leaving the terms worth searching for.
// Single-character leftovers are dropped.
func CleanProductName(name string) string {
	name = brandRe.ReplaceAllString(name, "")
	name = parensRe.ReplaceAllString(name, "")
	name = quantityRe.ReplaceAllString(name, "")
	name = packagingRe.ReplaceAllString(name, "")
	name = symbolRe.ReplaceAllString(name, " ")
	name = spaceRe.ReplaceAllString(name, " ")
	name = strings.ReplaceAll(name, "-", " ")

	words := make([]string, 0, 8)
	for _, word := range strings.Fields(name) {
		if len([]rune(word)) > 1 {
			words = append(words, word)
		}
	}
	return strings.Join(words, " ")
}
