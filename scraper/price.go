package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParsePrice extracts a price in euros from storefront text such as
// "1,23 €", "2.45€/ud" or "1.234,56 EUR". The comma is the decimal
// separator; a dot followed by exactly three digits and a comma is a
// thousands separator.
func ParsePrice(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "€", "")
	cleaned = strings.ReplaceAll(cleaned, "EUR", "")
	cleaned = strings.TrimSpace(cleaned)

	// "1.234,56" -> "1234,56"
	if i := strings.Index(cleaned, ","); i > 0 {
		cleaned = strings.ReplaceAll(cleaned[:i], ".", "") + cleaned[i:]
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	match := priceRe.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("no price in %q", text)
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", text, err)
	}
	return price, nil
}

// NormalizeQuantity collapses whitespace in a quantity label such as
// "1 L" or "Pack 6 x 33 cl". It returns "" when nothing useful remains.
func NormalizeQuantity(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
