package domain

import (
	"fmt"
	"time"
)

// Document represents an ingested policy document.
// It is the canonical record created on first successful ingestion.
type Document struct {
	// ID is the stable unique identifier for the document.
	ID string

	// Title is the human-readable title, used for citation labels.
	Title string

	// SourcePath is the original location of the document, if any.
	SourcePath string

	// Version is an opaque version tag supplied by the caller.
	Version string

	// Tags is the set of tags attached at ingestion time.
	Tags []string

	// IngestedAt is when the document was ingested.
	IngestedAt time.Time
}

// Chunk is the unit of embedding and retrieval: a bounded contiguous
// segment of a document's text.
type Chunk struct {
	// ID is derived from the owning document ID and the chunk position.
	ID string

	// DocID links to the owning Document.
	DocID string

	// Text is the segment content.
	Text string

	// Position is the ordinal index within the document.
	Position int

	// TokenCount is the approximate word count used by the chunking policy.
	TokenCount int
}

// ChunkID derives the stable chunk identifier for a document position.
// The same (docID, position) pair always yields the same ID.
func ChunkID(docID string, position int) string {
	return fmt.Sprintf("%s:%04d", docID, position)
}

// VersionedDocID derives the document ID variant used when a re-ingestion
// retains the prior version instead of replacing it.
func VersionedDocID(docID, version string) string {
	return docID + "@" + version
}

// HasTag reports whether the document carries the given tag.
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IngestReport summarises a successful ingestion.
type IngestReport struct {
	// DocID is the identifier the document was stored under. It differs
	// from the requested ID when a version-retaining re-ingestion created
	// a versioned variant.
	DocID string

	// ChunksCreated is the number of chunks written to the index and store.
	ChunksCreated int
}
