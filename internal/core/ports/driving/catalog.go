package driving

import (
	"context"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
)

// Catalog exposes the ingested document inventory to external actors.
type Catalog interface {
	// ListDocuments returns all ingested documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
