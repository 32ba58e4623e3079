package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
)

var (
	ingestDocID       string
	ingestTitle       string
	ingestTags        []string
	ingestVersion     string
	ingestRetainPrior bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a policy document or directory",
	Long: `Ingest a plain text or markdown document into the corpus.
When given a directory, every .txt and .md file under it is ingested.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "document identifier (default: derived from filename)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title used in citations (default: filename)")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "tags attached for query-time filtering")
	ingestCmd.Flags().StringVar(&ingestVersion, "doc-version", "", "opaque version tag")
	ingestCmd.Flags().BoolVar(&ingestRetainPrior, "retain-prior", false,
		"keep the existing document and store this one under a versioned ID")
	rootCmd.AddCommand(ingestCmd)
}

// ingestableFile reports whether path names a supported document type.
func ingestableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := setupServices(cmd.Context()); err != nil {
		return err
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if info.IsDir() {
		return ingestDirectory(cmd, path)
	}
	if !ingestableFile(path) {
		return fmt.Errorf("unsupported file type %q (only .txt and .md are supported)", filepath.Ext(path))
	}

	if err := ingestFile(cmd, path, ingestDocID, ingestTitle); err != nil {
		return err
	}
	return persistIndex(cmd.Context())
}

// ingestDirectory ingests every supported file under dir. Per-file doc ID
// and title flags do not apply; each file derives its own.
func ingestDirectory(cmd *cobra.Command, dir string) error {
	if ingestDocID != "" || ingestTitle != "" {
		return errors.New("--doc-id and --title cannot be used with a directory")
	}

	var ingested, skipped int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !ingestableFile(path) {
			return nil
		}
		if err := ingestFile(cmd, path, "", ""); err != nil {
			cmd.PrintErrf("Skipping %s: %v\n", path, err)
			skipped++
			return nil
		}
		ingested++
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}

	cmd.Printf("Ingested %d document(s), skipped %d\n", ingested, skipped)
	return persistIndex(cmd.Context())
}

// ingestFile reads and ingests a single file.
func ingestFile(cmd *cobra.Command, path, docID, title string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if docID == "" {
		docID = name
	}
	if title == "" {
		title = name
	}

	report, err := ingestService.Ingest(cmd.Context(), driving.IngestRequest{
		DocID:       docID,
		Title:       title,
		SourcePath:  path,
		Text:        string(data),
		Tags:        ingestTags,
		Version:     ingestVersion,
		RetainPrior: ingestRetainPrior,
	})
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	cmd.Printf("Ingested %s as %s (%d chunks)\n", path, report.DocID, report.ChunksCreated)
	return nil
}
