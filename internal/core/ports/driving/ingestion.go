package driving

import (
	"context"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
)

// IngestRequest describes one document to ingest.
type IngestRequest struct {
	// DocID is the stable document identifier. Empty means generate one.
	DocID string

	// Title is the human-readable title used for citation labels.
	Title string

	// SourcePath is the original location of the document, if any.
	SourcePath string

	// Text is the normalised plain text content.
	Text string

	// Tags are attached to the document for query-time filtering.
	Tags []string

	// Version is an opaque version tag.
	Version string

	// RetainPrior keeps an existing document under this DocID intact and
	// stores the new content under a version-keyed DocID variant instead
	// of replacing it.
	RetainPrior bool
}

// Ingestor drives the ingestion pipeline for external callers.
type Ingestor interface {
	// Ingest chunks, embeds and indexes one document. A failure partway
	// through rolls back every chunk already written before returning.
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestReport, error)

	// DeleteDocument removes a document's chunks from both the vector
	// index and the metadata store, returning the number removed.
	DeleteDocument(ctx context.Context, docID string) (int, error)
}
