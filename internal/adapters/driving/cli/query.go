package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
)

var (
	queryK        int
	queryMinScore float64
	queryTags     []string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the policy corpus",
	Long: `Embeds the query, searches the vector index and prints ranked
passages with citation labels.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top-k", "k", 0, "maximum number of passages (default from config)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", -1, "minimum similarity score (default from config)")
	queryCmd.Flags().StringSliceVar(&queryTags, "tags", nil, "restrict to documents carrying any of these tags")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := setupServices(cmd.Context()); err != nil {
		return err
	}

	opts := domain.QueryOptions{
		K:    queryK,
		Tags: queryTags,
	}
	if opts.K <= 0 {
		opts.K = cfg.Retrieval.DefaultK
	}
	// The flag default of -1 means "use the configured floor"; an explicit
	// zero is a real floor and passes through.
	if queryMinScore >= 0 {
		floor := queryMinScore
		opts.MinScore = &floor
	} else {
		opts.MinScore = cfg.Retrieval.DefaultMinScore
	}

	passages, err := retrievalService.Query(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, passages)
	}
	return outputQueryText(cmd, passages)
}

func outputQueryJSON(cmd *cobra.Command, passages []domain.RetrievedPassage) error {
	data, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, passages []domain.RetrievedPassage) error {
	if len(passages) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, p := range passages {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, p.CitationLabel, p.Score)
		cmd.Printf("      %s\n", p.Snippet)
		cmd.Println()
	}
	return nil
}
