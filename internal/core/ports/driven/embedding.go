package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The same model serves both document and query paths so that the two
// vector spaces are comparable.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts. The result has
	// exactly one vector per input text, in input order. An empty input
	// text yields the backend's vector for the empty string, not an error.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates the embedding for a query string using the same
	// model and parameters as EmbedBatch.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This must match the VectorIndex configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the backend is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
