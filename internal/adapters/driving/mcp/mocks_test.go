package mcp

import (
	"context"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
)

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	passages []domain.RetrievedPassage
	gotOpts  domain.QueryOptions
	err      error
}

func (m *mockRetriever) Query(
	_ context.Context, _ string, opts domain.QueryOptions,
) ([]domain.RetrievedPassage, error) {
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.passages, nil
}

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	report     *domain.IngestReport
	gotRequest driving.IngestRequest
	deleted    string
	count      int
	err        error
}

func (m *mockIngestor) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestReport, error) {
	m.gotRequest = req
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &domain.IngestReport{DocID: req.DocID, ChunksCreated: 1}, nil
}

func (m *mockIngestor) DeleteDocument(_ context.Context, docID string) (int, error) {
	m.deleted = docID
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

// mockCatalog implements driving.Catalog for testing.
type mockCatalog struct {
	docs []domain.Document
	err  error
}

func (m *mockCatalog) ListDocuments(_ context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}
