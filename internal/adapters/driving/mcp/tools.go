package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query    string   `json:"query" jsonschema:"the question or topic to search the policy corpus for"`
	K        int      `json:"k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	MinScore *float64 `json:"min_score,omitempty" jsonschema:"drop passages scoring below this similarity (default 0.6, explicit 0 keeps every non-negative score)"`
	Tags     []string `json:"tags,omitempty" jsonschema:"restrict results to documents carrying any of these tags"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	ChunkID  string  `json:"chunk_id"`
	DocID    string  `json:"document_id"`
	Score    float64 `json:"score"`
	Citation string  `json:"citation"`
	Snippet  string  `json:"snippet"`
	Text     string  `json:"text"`
}

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	DocID   string   `json:"doc_id,omitempty" jsonschema:"stable document identifier, generated when omitted"`
	Title   string   `json:"title,omitempty" jsonschema:"human-readable title used in citations"`
	Text    string   `json:"text" jsonschema:"the plain text content to ingest"`
	Tags    []string `json:"tags,omitempty" jsonschema:"tags attached for query-time filtering"`
	Version string   `json:"version,omitempty" jsonschema:"opaque version tag"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	DocID         string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	DocID string `json:"doc_id" jsonschema:"identifier of the document to delete"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	DocID         string `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// ListInput is the input schema for the list_documents tool.
type ListInput struct{}

// ListOutput is the output schema for the list_documents tool.
type ListOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents one ingested document.
type DocumentOutput struct {
	DocID      string   `json:"document_id"`
	Title      string   `json:"title"`
	SourcePath string   `json:"source_path,omitempty"`
	Version    string   `json:"version,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IngestedAt string   `json:"ingested_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Search the ingested policy corpus for passages relevant to a question",
	}, s.handleQuery)

	if s.ports.Ingestor != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_document",
			Description: "Ingest a plain text policy document into the corpus",
		}, s.handleIngest)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "delete_document",
			Description: "Remove a document and all its passages from the corpus",
		}, s.handleDelete)
	}

	if s.ports.Catalog != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List all ingested policy documents",
		}, s.handleList)
	}
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	opts := domain.QueryOptions{
		K:        input.K,
		MinScore: input.MinScore,
		Tags:     input.Tags,
	}

	passages, err := s.ports.Retriever.Query(ctx, input.Query, opts)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Passages: make([]PassageOutput, len(passages)),
		Count:    len(passages),
	}
	for i := range passages {
		output.Passages[i] = PassageOutput{
			ChunkID:  passages[i].ChunkID,
			DocID:    passages[i].DocID,
			Score:    passages[i].Score,
			Citation: passages[i].CitationLabel,
			Snippet:  passages[i].Snippet,
			Text:     passages[i].Text,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest_document tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Ingestor.Ingest(ctx, driving.IngestRequest{
		DocID:   input.DocID,
		Title:   input.Title,
		Text:    input.Text,
		Tags:    input.Tags,
		Version: input.Version,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocID:         report.DocID,
		ChunksCreated: report.ChunksCreated,
	}, nil
}

// handleDelete handles the delete_document tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	count, err := s.ports.Ingestor.DeleteDocument(ctx, input.DocID)
	if err != nil {
		return nil, DeleteOutput{}, err
	}

	return nil, DeleteOutput{
		DocID:         input.DocID,
		ChunksRemoved: count,
	}, nil
}

// handleList handles the list_documents tool invocation.
func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	docs, err := s.ports.Catalog.ListDocuments(ctx)
	if err != nil {
		return nil, ListOutput{}, err
	}

	output := ListOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			DocID:      docs[i].ID,
			Title:      docs[i].Title,
			SourcePath: docs[i].SourcePath,
			Version:    docs[i].Version,
			Tags:       docs[i].Tags,
			IngestedAt: docs[i].IngestedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return nil, output, nil
}
