package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driving/mcp"
	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC. Use --port
to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  compliance mcp serve

  # HTTP mode
  compliance mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := setupServices(cmd.Context()); err != nil {
		return err
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Retriever: retrievalService,
		Ingestor:  &persistingIngestor{inner: ingestService},
		Catalog:   metaStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// persistingIngestor writes the vector index artifact after every
// successful mutation, so an MCP session leaves the index and the metadata
// store loadable as a consistent pair.
type persistingIngestor struct {
	inner driving.Ingestor
}

var _ driving.Ingestor = (*persistingIngestor)(nil)

func (p *persistingIngestor) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestReport, error) {
	report, err := p.inner.Ingest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := persistIndex(ctx); err != nil {
		return nil, err
	}
	return report, nil
}

func (p *persistingIngestor) DeleteDocument(ctx context.Context, docID string) (int, error) {
	count, err := p.inner.DeleteDocument(ctx, docID)
	if err != nil {
		return 0, err
	}
	if err := persistIndex(ctx); err != nil {
		return 0, err
	}
	return count, nil
}
