package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
)

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range documentCmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["delete"])
}

func TestDocumentListCmd_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := runCommand(t, "document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents ingested.")
}

func TestDocumentListCmd_ShowsDocuments(t *testing.T) {
	setupTestServices(t)

	_, err := ingestService.Ingest(context.Background(), driving.IngestRequest{
		DocID: "gdpr-notes",
		Title: "GDPR Notes",
		Text:  "data subject rights",
		Tags:  []string{"gdpr"},
	})
	require.NoError(t, err)

	out, err := runCommand(t, "document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "gdpr-notes")
	assert.Contains(t, out, "GDPR Notes")
	assert.Contains(t, out, "[gdpr]")
	assert.Contains(t, out, "1 document(s)")
}

func TestDocumentDeleteCmd(t *testing.T) {
	setupTestServices(t)

	_, err := ingestService.Ingest(context.Background(), driving.IngestRequest{
		DocID: "old-policy",
		Text:  "obsolete rules",
	})
	require.NoError(t, err)

	out, err := runCommand(t, "document", "delete", "old-policy")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted old-policy")

	_, err = metaStore.GetDocument(context.Background(), "old-policy")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentDeleteCmd_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "document", "delete", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
