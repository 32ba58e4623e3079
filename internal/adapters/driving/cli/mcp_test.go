package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
)

func TestMCPServeCommand_Registered(t *testing.T) {
	assert.Equal(t, "mcp", mcpCmd.Use)
	assert.Equal(t, "serve", mcpServeCmd.Use)
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("port"))
}

func TestPersistingIngestor_PersistsAfterMutations(t *testing.T) {
	setupTestServices(t)
	ctx := context.Background()

	ing := &persistingIngestor{inner: ingestService}

	report, err := ing.Ingest(ctx, driving.IngestRequest{
		DocID: "policy-1",
		Title: "Access Policy",
		Text:  "access must be reviewed quarterly by the security team",
	})
	require.NoError(t, err)
	require.Equal(t, "policy-1", report.DocID)

	// The index artifact is on disk before the tool call returns, so a
	// later process loads vectors matching the metadata rows.
	assert.FileExists(t, indexPath)

	count, err := ing.DeleteDocument(ctx, "policy-1")
	require.NoError(t, err)
	assert.Equal(t, report.ChunksCreated, count)
	assert.FileExists(t, indexPath)
}
