package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document or chunk does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyDocument indicates the input text produced no chunkable content.
	ErrEmptyDocument = errors.New("document has no content")

	// ErrModelUnavailable indicates the embedding backend could not be
	// reached or loaded after bounded retries.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrIndexIncompatible indicates a persisted vector index does not match
	// the runtime dimension or similarity metric.
	ErrIndexIncompatible = errors.New("vector index incompatible")

	// ErrPartialIngestion indicates an ingestion failed partway and was
	// rolled back. The operation is safe to retry.
	ErrPartialIngestion = errors.New("ingestion failed and was rolled back")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)
