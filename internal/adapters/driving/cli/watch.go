package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jimvb55/security-compliance-assistant/internal/logger"
	"github.com/jimvb55/security-compliance-assistant/internal/watcher"
)

var watchTags []string

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and keep the corpus in sync",
	Long: `Watches a directory tree for .txt and .md changes. Changed files are
re-ingested, removed files are deleted from the corpus. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchTags, "tags", nil, "tags attached to every synced document")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := setupServices(cmd.Context()); err != nil {
		return err
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w := watcher.New(dir, ingestService, watchTags)
	w.OnSync = func(ctx context.Context) {
		if err := persistIndex(ctx); err != nil {
			logger.Warn("Persisting index failed: %v", err)
		}
	}

	cmd.Printf("Watching %s (press Ctrl+C to stop)\n", dir)
	err = w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
