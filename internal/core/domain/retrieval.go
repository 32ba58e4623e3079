package domain

import (
	"fmt"
	"unicode/utf8"
)

// Default retrieval parameters, used when QueryOptions leaves them unset.
const (
	DefaultTopK     = 5
	DefaultMinScore = 0.6
)

// QueryOptions configures a retrieval query.
type QueryOptions struct {
	// K is the maximum number of passages to return (default 5).
	K int

	// MinScore drops results scoring below this similarity. Nil means the
	// default 0.6; an explicit zero keeps every non-negative score.
	MinScore *float64

	// Tags restricts results to documents carrying at least one of these
	// tags. Empty means no tag filtering.
	Tags []string
}

// RetrievedPassage is a single ranked retrieval result with its citation.
type RetrievedPassage struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocID is the owning document.
	DocID string

	// Score is the similarity score for this passage.
	Score float64

	// Text is the full chunk text, supplied as prompt context downstream.
	Text string

	// Snippet is the passage truncated for citation display.
	Snippet string

	// CitationLabel is a deterministic human-readable source reference,
	// stable across repeated queries for the same chunk.
	CitationLabel string

	// Position is the chunk's ordinal index within its document.
	Position int
}

// CitationLabel builds the deterministic citation reference for a chunk.
// It combines the document title (falling back to the document ID) with the
// one-based chunk position.
func CitationLabel(doc *Document, position int) string {
	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	return fmt.Sprintf("%s §%d", title, position+1)
}

// Snippet truncates text for citation display.
func Snippet(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	// Back off to a rune boundary so truncation never splits a multi-byte
	// character.
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
