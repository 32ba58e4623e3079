package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage ingested documents",
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all ingested documents",
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and all its passages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if err := setupServices(cmd.Context()); err != nil {
		return err
	}

	docs, err := metaStore.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.ID
		}
		cmd.Printf("  %s  %s", doc.ID, title)
		if doc.Version != "" {
			cmd.Printf("  (version %s)", doc.Version)
		}
		if len(doc.Tags) > 0 {
			cmd.Printf("  [%s]", strings.Join(doc.Tags, ", "))
		}
		cmd.Println()
	}
	cmd.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if err := setupServices(cmd.Context()); err != nil {
		return err
	}

	count, err := ingestService.DeleteDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	cmd.Printf("Deleted %s (%d chunks)\n", args[0], count)
	return persistIndex(cmd.Context())
}
