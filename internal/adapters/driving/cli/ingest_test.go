package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with args and captures output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [path]", ingestCmd.Use)
}

func TestIngestCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := runCommand(t, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIngestCmd_File(t *testing.T) {
	setupTestServices(t)

	path := filepath.Join(t.TempDir(), "access-policy.md")
	text := strings.Repeat("access control review ", 40)
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))

	out, err := runCommand(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested")
	assert.Contains(t, out, "access-policy")

	doc, err := metaStore.GetDocument(context.Background(), "access-policy")
	require.NoError(t, err)
	assert.Equal(t, "access-policy", doc.Title)
	assert.Equal(t, path, doc.SourcePath)

	// The index artifact was persisted.
	assert.FileExists(t, indexPath)
}

func TestIngestCmd_UnsupportedExtension(t *testing.T) {
	setupTestServices(t)

	path := filepath.Join(t.TempDir(), "policy.pdf")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0600))

	_, err := runCommand(t, "ingest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestIngestCmd_Directory(t *testing.T) {
	setupTestServices(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.md"), []byte("first policy text"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.txt"), []byte("second policy text"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.pdf"), []byte("binary"), 0600))

	out, err := runCommand(t, "ingest", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2 document(s)")

	docs, err := metaStore.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestIngestCmd_DirectoryRejectsDocIDFlag(t *testing.T) {
	setupTestServices(t)
	defer func() { ingestDocID = "" }()

	_, err := runCommand(t, "ingest", "--doc-id", "x", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used with a directory")
}

func TestIngestCmd_MissingPath(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "ingest", filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
}
