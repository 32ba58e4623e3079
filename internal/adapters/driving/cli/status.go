package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline configuration and backend health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := setupServices(cmd.Context()); err != nil {
		return err
	}

	cmd.Printf("Embedding backend: %s (%s, %d dimensions)\n",
		cfg.Embedding.Type, embeddingService.ModelName(), embeddingService.Dimensions())
	cmd.Printf("Vector index:      %s (%s)\n", cfg.Index.Type, cfg.Index.Metric)
	cmd.Printf("Metadata store:    %s\n", metaStore.Path())
	cmd.Printf("Chunking:          %d words, %d overlap\n",
		cfg.Chunking.TargetSize, cfg.Chunking.Overlap)

	docs, err := metaStore.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Documents:         %d\n", len(docs))

	if err := embeddingService.Ping(cmd.Context()); err != nil {
		cmd.Printf("Backend health:    unavailable (%v)\n", err)
		return nil
	}
	cmd.Println("Backend health:    ok")
	return nil
}
