package driving

import (
	"context"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
)

// Retriever serves semantic-similarity queries to external actors,
// including the answer-synthesis stage.
type Retriever interface {
	// Query embeds the query text, searches the vector index and returns
	// ranked, citation-tagged passages. Querying an empty index returns an
	// empty slice, not an error.
	Query(ctx context.Context, text string, opts domain.QueryOptions) ([]domain.RetrievedPassage, error)
}
