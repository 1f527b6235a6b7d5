package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("Leche entera", "Leche entera"), 0.001)
	assert.InDelta(t, 1.0, Similarity("Leche entera Hacendado 1L", "leche entera"), 0.001,
		"cleaning normalizes brand and quantity away")
	assert.Greater(t, Similarity("Leche entera", "Leche entera fresca"), 0.6)
	assert.Less(t, Similarity("Leche entera", "Detergente lavadora"), 0.4)
	assert.Equal(t, 0.0, Similarity("", ""))
}

func TestBestMatch_PicksClosestCandidate(t *testing.T) {
	candidates := []Candidate{
		{ProductName: "Detergente lavadora"},
		{ProductName: "Leche entera fresca"},
		{ProductName: "Leche condensada"},
	}

	match, ok := BestMatch("Leche entera 1L", candidates)
	assert.True(t, ok)
	assert.Equal(t, "Leche entera fresca", match.ProductName)
}

func TestBestMatch_RejectsBelowThreshold(t *testing.T) {
	candidates := []Candidate{
		{ProductName: "Pintura plástica blanca"},
		{ProductName: "Taladro percutor"},
	}

	_, ok := BestMatch("Leche entera", candidates)
	assert.False(t, ok)
}

func TestBestMatch_IgnoresUnnamedCandidates(t *testing.T) {
	_, ok := BestMatch("Leche entera", []Candidate{{ProductName: ""}})
	assert.False(t, ok)
}
