package driven

import (
	"context"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
)

// MetadataStore maps chunk identifiers to their source document, position
// and text, independent of the vector index's internal ordering.
// Lookups are always by chunk ID or document ID, never by index slot.
type MetadataStore interface {
	// PutDocument stores or updates a document record.
	PutDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID, or domain.ErrNotFound.
	GetDocument(ctx context.Context, docID string) (*domain.Document, error)

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// PutChunks stores chunk metadata rows in one transaction.
	PutChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a single chunk by ID, or domain.ErrNotFound.
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)

	// ListByDoc returns all chunks of a document ordered by position.
	ListByDoc(ctx context.Context, docID string) ([]domain.Chunk, error)

	// DeleteByDoc removes the document record and all its chunk rows,
	// returning the number of chunks removed. Deleting an unknown document
	// returns domain.ErrNotFound.
	DeleteByDoc(ctx context.Context, docID string) (int, error)

	// FilterByTag returns the IDs of documents carrying the given tag.
	FilterByTag(ctx context.Context, tag string) ([]string, error)

	// Close releases resources.
	Close() error
}
