package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driven"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
	"github.com/jimvb55/security-compliance-assistant/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// snippetLength bounds the citation snippet size in bytes.
const snippetLength = 150

// maxWidenings bounds how often a tag-filtered search widens its
// candidate pool before giving up on filling k results.
const maxWidenings = 3

// RetrievalService answers similarity queries with ranked, citation-tagged
// passages.
type RetrievalService struct {
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	metaStore        driven.MetadataStore
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	metaStore driven.MetadataStore,
) *RetrievalService {
	return &RetrievalService{
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		metaStore:        metaStore,
	}
}

// Query embeds the query text, searches the vector index and returns at
// most opts.K passages ordered by descending similarity.
func (s *RetrievalService) Query(
	ctx context.Context, text string, opts domain.QueryOptions,
) ([]domain.RetrievedPassage, error) {
	logger.Section("Retrieval Query")
	logger.Debug("Query: %q", text)

	text = strings.TrimSpace(text)
	if text == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievedPassage{}, nil
	}

	k := opts.K
	if k <= 0 {
		k = domain.DefaultTopK
	}
	minScore := domain.DefaultMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
		if minScore < 0 {
			minScore = 0
		}
	}
	logger.Debug("K: %d, MinScore: %.2f, Tags: %v", k, minScore, opts.Tags)

	// Resolve the tag filter to a document ID set up front. A filter that
	// matches no documents cannot match any passage.
	allowedDocs, err := s.resolveTagFilter(ctx, opts.Tags)
	if err != nil {
		return nil, err
	}
	if len(opts.Tags) > 0 && len(allowedDocs) == 0 {
		logger.Debug("Tag filter matched no documents")
		return []domain.RetrievedPassage{}, nil
	}

	embedding, err := s.embeddingService.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Filtering happens after the similarity search, so a tag filter asks
	// for a wider candidate pool and widens further if it comes up short.
	fetch := k
	if len(allowedDocs) > 0 {
		fetch = k * 2
	}

	var passages []domain.RetrievedPassage
	for widening := 0; ; widening++ {
		hits, err := s.vectorIndex.Search(ctx, embedding, fetch)
		if err != nil {
			return nil, fmt.Errorf("searching index: %w", err)
		}
		logger.Debug("Index returned %d hits for fetch size %d", len(hits), fetch)

		passages, err = s.hydrate(ctx, hits, minScore, allowedDocs, k)
		if err != nil {
			return nil, err
		}

		// Done when k is filled, the index is exhausted, or the widening
		// budget is spent.
		if len(passages) >= k || len(hits) < fetch || widening >= maxWidenings {
			break
		}
		fetch *= 2
	}

	logger.Info("Final results: %d passages", len(passages))
	return passages, nil
}

// resolveTagFilter returns the set of document IDs matching any of the
// given tags. A nil or empty tag list yields a nil set, meaning no filter.
func (s *RetrievalService) resolveTagFilter(ctx context.Context, tags []string) (map[string]bool, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	allowed := make(map[string]bool)
	for _, tag := range tags {
		ids, err := s.metaStore.FilterByTag(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("resolving tag %q: %w", tag, err)
		}
		for _, id := range ids {
			allowed[id] = true
		}
	}
	return allowed, nil
}

// hydrate converts raw index hits into citation-tagged passages, applying
// the score threshold and tag filter and stopping at k results.
func (s *RetrievalService) hydrate(
	ctx context.Context,
	hits []driven.VectorHit,
	minScore float64,
	allowedDocs map[string]bool,
	k int,
) ([]domain.RetrievedPassage, error) {
	passages := make([]domain.RetrievedPassage, 0, k)
	docs := make(map[string]*domain.Document)

	for _, hit := range hits {
		if hit.Score < minScore {
			// Hits arrive in descending score order.
			break
		}

		chunk, err := s.metaStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The chunk vanished between index search and hydration.
				logger.Debug("Skipping vanished chunk %s", hit.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		if allowedDocs != nil && !allowedDocs[chunk.DocID] {
			continue
		}

		doc, ok := docs[chunk.DocID]
		if !ok {
			doc, err = s.metaStore.GetDocument(ctx, chunk.DocID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					logger.Debug("Skipping chunk of vanished document %s", chunk.DocID)
					continue
				}
				return nil, fmt.Errorf("get document %s: %w", chunk.DocID, err)
			}
			docs[chunk.DocID] = doc
		}

		passages = append(passages, domain.RetrievedPassage{
			ChunkID:       chunk.ID,
			DocID:         chunk.DocID,
			Score:         hit.Score,
			Text:          chunk.Text,
			Snippet:       domain.Snippet(chunk.Text, snippetLength),
			CitationLabel: domain.CitationLabel(doc, chunk.Position),
			Position:      chunk.Position,
		})

		if len(passages) >= k {
			break
		}
	}

	return passages, nil
}
