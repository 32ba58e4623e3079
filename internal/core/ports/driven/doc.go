// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - EmbeddingService: Maps text to fixed-length dense vectors
//   - VectorIndex: Stores vectors and serves nearest-neighbour search
//   - MetadataStore: Maps chunk identifiers to their source metadata
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
