// Package cli implements the cobra command tree driving the ingestion
// and retrieval pipeline.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driven/embedding/ollama"
	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driven/embedding/openai"
	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driven/index/flat"
	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driven/index/qdrant"
	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driven/storage/sqlite"
	"github.com/jimvb55/security-compliance-assistant/internal/chunker"
	"github.com/jimvb55/security-compliance-assistant/internal/config"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driven"
	"github.com/jimvb55/security-compliance-assistant/internal/core/services"
	"github.com/jimvb55/security-compliance-assistant/internal/logger"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

// indexFileName is the persisted vector index artifact inside the data dir.
const indexFileName = "index.bin"

// Flag values shared across commands.
var (
	cfgFile     string
	dataDirFlag string
	verbose     bool
)

// Wired services, populated by setupServices.
var (
	cfg              *config.Config
	metaStore        *sqlite.Store
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	ingestService    *services.IngestionService
	retrievalService *services.RetrievalService
	indexPath        string

	servicesReady bool
)

var rootCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Local retrieval assistant for security policy documents",
	Long: `A local ingestion and retrieval pipeline for security policy and
compliance documents. Documents are chunked, embedded and indexed so
questions can be answered with ranked, citation-tagged passages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.compliance-assistant/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default ~/.compliance-assistant/data)")
}

// Execute runs the root command. The context cancels long-running
// commands such as watch and mcp serve on interrupt.
func Execute(ctx context.Context) error {
	defer closeServices()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// configPath resolves the config file location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".compliance-assistant", "config.toml"), nil
}

// setupServices wires config, adapters and services. It is idempotent so
// commands can call it unconditionally.
func setupServices(ctx context.Context) error {
	if servicesReady {
		return nil
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := cfg.DataDir
	if dataDirFlag != "" {
		dataDir = dataDirFlag
	}
	if dataDir == "" {
		dataDir, err = config.DefaultDataDir()
		if err != nil {
			return err
		}
	}
	indexPath = filepath.Join(dataDir, indexFileName)

	embeddingService, err = buildEmbeddingService(cfg)
	if err != nil {
		return err
	}

	metaStore, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}

	vectorIndex, err = buildVectorIndex(ctx, cfg, embeddingService.Dimensions())
	if err != nil {
		return err
	}

	ch := chunker.New(
		chunker.WithTargetSize(cfg.Chunking.TargetSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestService = services.NewIngestionService(ch, embeddingService, vectorIndex, metaStore)
	retrievalService = services.NewRetrievalService(embeddingService, vectorIndex, metaStore)

	servicesReady = true
	return nil
}

// buildEmbeddingService constructs the configured embedding backend.
func buildEmbeddingService(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Type {
	case "openai":
		keyEnv := cfg.Embedding.OpenAI.APIKeyEnv
		if keyEnv == "" {
			keyEnv = "OPENAI_API_KEY"
		}
		apiKey := os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("environment variable %s is not set", keyEnv)
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:            apiKey,
			BaseURL:           cfg.Embedding.OpenAI.BaseURL,
			Model:             cfg.Embedding.OpenAI.Model,
			Timeout:           time.Duration(cfg.Embedding.OpenAI.TimeoutSecs) * time.Second,
			Dimensions:        cfg.Embedding.OpenAI.Dimensions,
			RequestsPerSecond: cfg.Embedding.OpenAI.RequestsPerSecond,
		})
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.Ollama.BaseURL,
			Model:      cfg.Embedding.Ollama.Model,
			Timeout:    time.Duration(cfg.Embedding.Ollama.TimeoutSecs) * time.Second,
			Dimensions: cfg.Embedding.Ollama.Dimensions,
		}), nil
	}
}

// buildVectorIndex constructs the configured index backend, loading any
// persisted artifact for the flat index.
func buildVectorIndex(ctx context.Context, cfg *config.Config, dimensions int) (driven.VectorIndex, error) {
	metric := driven.Metric(cfg.Index.Metric)

	if cfg.Index.Type == "qdrant" {
		idx, err := qdrant.New(ctx, qdrant.Config{
			Host:       cfg.Index.Qdrant.Host,
			Port:       cfg.Index.Qdrant.Port,
			Collection: cfg.Index.Qdrant.Collection,
			Dimension:  dimensions,
			Metric:     metric,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		return idx, nil
	}

	idx, err := flat.New(dimensions, metric)
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	if _, statErr := os.Stat(indexPath); statErr == nil {
		if err := idx.Load(ctx, indexPath); err != nil {
			return nil, fmt.Errorf("loading index from %s: %w", indexPath, err)
		}
		logger.Debug("Loaded vector index from %s", indexPath)
	}
	return idx, nil
}

// persistIndex writes the vector index artifact after a mutation.
func persistIndex(ctx context.Context) error {
	if vectorIndex == nil {
		return nil
	}
	if err := vectorIndex.Persist(ctx, indexPath); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}
	return nil
}

// closeServices releases everything setupServices opened.
func closeServices() {
	if !servicesReady {
		return
	}
	if vectorIndex != nil {
		vectorIndex.Close() //nolint:errcheck
	}
	if metaStore != nil {
		metaStore.Close() //nolint:errcheck
	}
	if embeddingService != nil {
		embeddingService.Close() //nolint:errcheck
	}
	servicesReady = false
}
