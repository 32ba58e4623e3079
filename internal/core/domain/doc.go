// Package domain defines the core business entities for the retrieval
// pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested policy document with metadata
//   - Chunk: The unit of embedding and retrieval
//   - RetrievedPassage: A ranked, citation-tagged query result
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
