package mcp

import (
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever answers similarity queries.
	Retriever driving.Retriever

	// Ingestor manages document ingestion and deletion.
	Ingestor driving.Ingestor

	// Catalog lists ingested documents.
	Catalog driving.Catalog
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	// Ingestor and Catalog are optional; their tools are skipped when nil.
	return nil
}
