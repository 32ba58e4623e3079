package driven

import "context"

// Metric is the similarity measure applied by a vector index. It is fixed
// at construction and validated against persisted artifacts on load.
type Metric string

const (
	// MetricCosine scores by cosine similarity.
	MetricCosine Metric = "cosine"

	// MetricDot scores by inner product.
	MetricDot Metric = "dot"
)

// Valid reports whether m names a supported metric.
func (m Metric) Valid() bool {
	return m == MetricCosine || m == MetricDot
}

// VectorIndex provides nearest-neighbour search over chunk embeddings.
// Internal slot numbering is private to the implementation; callers only
// ever see chunk IDs.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Remove deletes a vector from the index. Removing an unknown chunk ID
	// returns domain.ErrNotFound.
	Remove(ctx context.Context, chunkID string) error

	// Search finds at most k nearest neighbours to the query vector,
	// ordered by descending similarity with ties broken by insertion
	// order. Searching an empty index returns an empty result, not an
	// error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Persist writes the index, its dimension and its metric to a single
	// artifact at path.
	Persist(ctx context.Context, path string) error

	// Load replaces the index contents from a persisted artifact,
	// returning domain.ErrIndexIncompatible when the artifact's dimension
	// or metric does not match the runtime configuration.
	Load(ctx context.Context, path string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the similarity score under the index's metric.
	Score float64
}
