package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
)

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked passages", func(t *testing.T) {
		retriever := &mockRetriever{
			passages: []domain.RetrievedPassage{
				{
					ChunkID:       "doc-1:0000",
					DocID:         "doc-1",
					Score:         0.91,
					Text:          "access must be reviewed quarterly",
					Snippet:       "access must be reviewed quarterly",
					CitationLabel: "Access Policy §1",
					Position:      0,
				},
			},
		}

		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		floor := 0.0
		input := QueryInput{Query: "access reviews", K: 3, MinScore: &floor, Tags: []string{"access"}}
		_, output, err := server.handleQuery(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Passages, 1)
		assert.Equal(t, "doc-1:0000", output.Passages[0].ChunkID)
		assert.Equal(t, "Access Policy §1", output.Passages[0].Citation)
		assert.Equal(t, 0.91, output.Passages[0].Score)

		// Options flow through unchanged; an explicit zero floor survives.
		assert.Equal(t, 3, retriever.gotOpts.K)
		assert.Equal(t, []string{"access"}, retriever.gotOpts.Tags)
		require.NotNil(t, retriever.gotOpts.MinScore)
		assert.Zero(t, *retriever.gotOpts.MinScore)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		retriever := &mockRetriever{err: errors.New("index unavailable")}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleQuery(ctx, nil, QueryInput{Query: "test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index unavailable")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	ingestor := &mockIngestor{
		report: &domain.IngestReport{DocID: "policy-1", ChunksCreated: 4},
	}
	server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Ingestor: ingestor})
	require.NoError(t, err)

	input := IngestInput{
		DocID: "policy-1",
		Title: "Data Retention",
		Text:  "retention text",
		Tags:  []string{"gdpr"},
	}
	_, output, err := server.handleIngest(ctx, nil, input)

	require.NoError(t, err)
	assert.Equal(t, "policy-1", output.DocID)
	assert.Equal(t, 4, output.ChunksCreated)
	assert.Equal(t, "Data Retention", ingestor.gotRequest.Title)
	assert.Equal(t, []string{"gdpr"}, ingestor.gotRequest.Tags)
}

func TestServer_handleDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes document", func(t *testing.T) {
		ingestor := &mockIngestor{count: 7}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Ingestor: ingestor})
		require.NoError(t, err)

		_, output, err := server.handleDelete(ctx, nil, DeleteInput{DocID: "policy-1"})
		require.NoError(t, err)
		assert.Equal(t, "policy-1", ingestor.deleted)
		assert.Equal(t, 7, output.ChunksRemoved)
	})

	t.Run("propagates not found", func(t *testing.T) {
		ingestor := &mockIngestor{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Ingestor: ingestor})
		require.NoError(t, err)

		_, _, err = server.handleDelete(ctx, nil, DeleteInput{DocID: "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleList(t *testing.T) {
	ctx := context.Background()

	catalog := &mockCatalog{
		docs: []domain.Document{
			{
				ID:         "policy-1",
				Title:      "Access Policy",
				Tags:       []string{"access"},
				IngestedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
			},
		},
	}
	server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Catalog: catalog})
	require.NoError(t, err)

	_, output, err := server.handleList(ctx, nil, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	require.Len(t, output.Documents, 1)
	assert.Equal(t, "policy-1", output.Documents[0].DocID)
	assert.Equal(t, "2026-03-14T09:00:00Z", output.Documents[0].IngestedAt)
}
