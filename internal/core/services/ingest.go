package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jimvb55/security-compliance-assistant/internal/chunker"
	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driven"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
	"github.com/jimvb55/security-compliance-assistant/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.Ingestor = (*IngestionService)(nil)

// IngestionService coordinates the chunk, embed and index pipeline.
// Ingestions of different documents may run concurrently; ingestions of
// the same document are serialised.
type IngestionService struct {
	chunker          *chunker.Chunker
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	metaStore        driven.MetadataStore

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	ch *chunker.Chunker,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	metaStore driven.MetadataStore,
) *IngestionService {
	return &IngestionService{
		chunker:          ch,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		metaStore:        metaStore,
	}
}

// lockDoc acquires the per-document mutex, creating it on first use.
func (s *IngestionService) lockDoc(docID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docLocks == nil {
		s.docLocks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.docLocks[docID]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[docID] = lock
	}
	return lock
}

// Ingest chunks, embeds and indexes one document. Either every chunk is
// written to both the vector index and the metadata store, or none is.
func (s *IngestionService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestReport, error) {
	logger.Section("Document Ingestion")

	if strings.TrimSpace(req.Text) == "" {
		return nil, domain.ErrEmptyDocument
	}

	docID := req.DocID
	if docID == "" {
		docID = uuid.New().String()
		logger.Debug("Generated document ID: %s", docID)
	}

	lock := s.lockDoc(docID)
	lock.Lock()
	defer lock.Unlock()

	// A re-ingestion either replaces the prior content or, when asked to
	// retain it, lands under a version-keyed ID instead.
	targetID := docID
	existing, err := s.metaStore.GetDocument(ctx, docID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking existing document: %w", err)
	}
	if existing != nil {
		if req.RetainPrior {
			version := req.Version
			if version == "" {
				version = time.Now().UTC().Format("20060102T150405Z")
			}
			targetID = domain.VersionedDocID(docID, version)
			logger.Info("Retaining prior document, ingesting as %s", targetID)

			// The versioned slot itself is replaced if it already exists.
			if _, err := s.removeDocument(ctx, targetID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("replacing versioned document: %w", err)
			}
		} else {
			logger.Info("Replacing existing document %s", docID)
			if _, err := s.removeDocument(ctx, docID); err != nil {
				return nil, fmt.Errorf("removing prior document: %w", err)
			}
		}
	}

	segments := s.chunker.Split(req.Text)
	if len(segments) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	logger.Debug("Chunked document into %d segments", len(segments))

	chunks := make([]domain.Chunk, len(segments))
	texts := make([]string, len(segments))
	for i, seg := range segments {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(targetID, i),
			DocID:      targetID,
			Text:       seg.Text,
			Position:   i,
			TokenCount: seg.WordCount,
		}
		texts[i] = seg.Text
	}

	embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrPartialIngestion, len(embeddings), len(chunks))
	}

	// Index vectors first. On any failure, unwind what was written so the
	// document is either fully present or fully absent.
	written := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			s.rollback(written)
			return nil, fmt.Errorf("%w: %w", domain.ErrPartialIngestion, err)
		}
		if err := s.vectorIndex.Add(ctx, chunk.ID, embeddings[i]); err != nil {
			s.rollback(written)
			return nil, fmt.Errorf("%w: indexing chunk %s: %w", domain.ErrPartialIngestion, chunk.ID, err)
		}
		written = append(written, chunk.ID)
	}

	doc := &domain.Document{
		ID:         targetID,
		Title:      req.Title,
		SourcePath: req.SourcePath,
		Version:    req.Version,
		Tags:       req.Tags,
		IngestedAt: time.Now().UTC(),
	}
	if err := s.metaStore.PutDocument(ctx, doc); err != nil {
		s.rollback(written)
		return nil, fmt.Errorf("%w: storing document: %w", domain.ErrPartialIngestion, err)
	}
	if err := s.metaStore.PutChunks(ctx, chunks); err != nil {
		s.rollback(written)
		if _, derr := s.metaStore.DeleteByDoc(context.WithoutCancel(ctx), targetID); derr != nil {
			logger.Warn("Rollback of document %s failed: %v", targetID, derr)
		}
		return nil, fmt.Errorf("%w: storing chunks: %w", domain.ErrPartialIngestion, err)
	}

	logger.Info("Ingested %s: %d chunks", targetID, len(chunks))
	return &domain.IngestReport{
		DocID:         targetID,
		ChunksCreated: len(chunks),
	}, nil
}

// rollback removes already-indexed vectors in reverse write order.
// Rollback runs detached from the caller's context so a cancellation that
// triggered it cannot also abort it.
func (s *IngestionService) rollback(written []string) {
	if len(written) == 0 {
		return
	}
	logger.Warn("Rolling back %d indexed chunks", len(written))
	ctx := context.Background()
	for i := len(written) - 1; i >= 0; i-- {
		if err := s.vectorIndex.Remove(ctx, written[i]); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Rollback of chunk %s failed: %v", written[i], err)
		}
	}
}

// DeleteDocument removes a document's chunks from both the vector index
// and the metadata store, returning the number removed.
func (s *IngestionService) DeleteDocument(ctx context.Context, docID string) (int, error) {
	lock := s.lockDoc(docID)
	lock.Lock()
	defer lock.Unlock()

	return s.removeDocument(ctx, docID)
}

// removeDocument deletes vectors then metadata. The caller must hold the
// document lock.
func (s *IngestionService) removeDocument(ctx context.Context, docID string) (int, error) {
	chunks, err := s.metaStore.ListByDoc(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("listing chunks of %s: %w", docID, err)
	}

	for _, chunk := range chunks {
		if err := s.vectorIndex.Remove(ctx, chunk.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("removing vector %s: %w", chunk.ID, err)
		}
	}

	count, err := s.metaStore.DeleteByDoc(ctx, docID)
	if err != nil {
		return 0, err
	}

	logger.Info("Deleted document %s: %d chunks", docID, count)
	return count, nil
}
