package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driven/index/flat"
	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driven/storage/sqlite"
	"github.com/jimvb55/security-compliance-assistant/internal/chunker"
	"github.com/jimvb55/security-compliance-assistant/internal/config"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driven"
	"github.com/jimvb55/security-compliance-assistant/internal/core/services"
)

// fakeEmbedder returns the same unit vector for every text, so any query
// matches any chunk with cosine similarity 1.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1, 0, 0, 0}
	}
	return result, nil
}

func (fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (fakeEmbedder) Dimensions() int { return 4 }

func (fakeEmbedder) ModelName() string { return "fake-embed" }

func (fakeEmbedder) Ping(_ context.Context) error { return nil }

func (fakeEmbedder) Close() error { return nil }

// setupTestServices wires the package-level services over a temporary
// store, a flat index and a fake embedder, and marks them ready so
// setupServices becomes a no-op.
func setupTestServices(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()

	store, err := sqlite.NewStore(tempDir)
	require.NoError(t, err)

	idx, err := flat.New(4, driven.MetricCosine)
	require.NoError(t, err)

	cfg = config.Default()
	metaStore = store
	vectorIndex = idx
	embeddingService = fakeEmbedder{}
	indexPath = filepath.Join(tempDir, indexFileName)

	ch := chunker.New(
		chunker.WithTargetSize(cfg.Chunking.TargetSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	ingestService = services.NewIngestionService(ch, embeddingService, vectorIndex, metaStore)
	retrievalService = services.NewRetrievalService(embeddingService, vectorIndex, metaStore)
	servicesReady = true

	t.Cleanup(func() {
		servicesReady = false
		store.Close() //nolint:errcheck
		idx.Close()   //nolint:errcheck
		cfg = nil
		metaStore = nil
		vectorIndex = nil
		embeddingService = nil
		ingestService = nil
		retrievalService = nil
	})
}
