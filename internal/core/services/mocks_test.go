package services

import (
	"context"
	"math"
	"sort"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// It embeds texts deterministically via the vectors map, falling back to
// the fixed fallback vector.
type mockEmbeddingService struct {
	vectors  map[string][]float32
	fallback []float32
	embedErr error
}

func (m *mockEmbeddingService) embed(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	if m.fallback != nil {
		return m.fallback
	}
	return []float32{1, 0, 0}
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.embed(text)
	}
	return result, nil
}

func (m *mockEmbeddingService) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embed(text), nil
}

func (m *mockEmbeddingService) Dimensions() int { return 3 }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockVectorIndex implements driven.VectorIndex with an in-memory cosine
// scan, preserving insertion order for tie-breaks.
type mockVectorIndex struct {
	ids       []string
	vectors   map[string][]float32
	addErr    error
	failAfter int // fail Add after this many successful adds, 0 disables
	added     int
	searchErr error
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{vectors: make(map[string][]float32)}
}

func (m *mockVectorIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	if m.addErr != nil {
		return m.addErr
	}
	if m.failAfter > 0 && m.added >= m.failAfter {
		return context.DeadlineExceeded
	}
	if _, ok := m.vectors[chunkID]; !ok {
		m.ids = append(m.ids, chunkID)
	}
	m.vectors[chunkID] = embedding
	m.added++
	return nil
}

func (m *mockVectorIndex) Remove(_ context.Context, chunkID string) error {
	if _, ok := m.vectors[chunkID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.vectors, chunkID)
	for i, id := range m.ids {
		if id == chunkID {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	type slotHit struct {
		hit  driven.VectorHit
		slot int
	}
	hits := make([]slotHit, 0, len(m.ids))
	for slot, id := range m.ids {
		hits = append(hits, slotHit{
			hit:  driven.VectorHit{ChunkID: id, Score: cosine(query, m.vectors[id])},
			slot: slot,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].hit.Score != hits[j].hit.Score {
			return hits[i].hit.Score > hits[j].hit.Score
		}
		return hits[i].slot < hits[j].slot
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	result := make([]driven.VectorHit, len(hits))
	for i, h := range hits {
		result[i] = h.hit
	}
	return result, nil
}

func (m *mockVectorIndex) Persist(_ context.Context, _ string) error { return nil }

func (m *mockVectorIndex) Load(_ context.Context, _ string) error { return nil }

func (m *mockVectorIndex) Close() error { return nil }

func (m *mockVectorIndex) contains(chunkID string) bool {
	_, ok := m.vectors[chunkID]
	return ok
}

func cosine(a, b []float32) float64 {
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// mockMetaStore implements driven.MetadataStore in memory.
type mockMetaStore struct {
	docs         map[string]domain.Document
	chunks       map[string]domain.Chunk
	putChunksErr error
	putDocErr    error
}

func newMockMetaStore() *mockMetaStore {
	return &mockMetaStore{
		docs:   make(map[string]domain.Document),
		chunks: make(map[string]domain.Chunk),
	}
}

func (m *mockMetaStore) PutDocument(_ context.Context, doc *domain.Document) error {
	if m.putDocErr != nil {
		return m.putDocErr
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockMetaStore) GetDocument(_ context.Context, docID string) (*domain.Document, error) {
	doc, ok := m.docs[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockMetaStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *mockMetaStore) PutChunks(_ context.Context, chunks []domain.Chunk) error {
	if m.putChunksErr != nil {
		return m.putChunksErr
	}
	for _, chunk := range chunks {
		m.chunks[chunk.ID] = chunk
	}
	return nil
}

func (m *mockMetaStore) GetChunk(_ context.Context, chunkID string) (*domain.Chunk, error) {
	chunk, ok := m.chunks[chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

func (m *mockMetaStore) ListByDoc(_ context.Context, docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, chunk := range m.chunks {
		if chunk.DocID == docID {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
	return chunks, nil
}

func (m *mockMetaStore) DeleteByDoc(_ context.Context, docID string) (int, error) {
	if _, ok := m.docs[docID]; !ok {
		return 0, domain.ErrNotFound
	}
	delete(m.docs, docID)
	count := 0
	for id, chunk := range m.chunks {
		if chunk.DocID == docID {
			delete(m.chunks, id)
			count++
		}
	}
	return count, nil
}

func (m *mockMetaStore) FilterByTag(_ context.Context, tag string) ([]string, error) {
	var ids []string
	for id, doc := range m.docs {
		if doc.HasTag(tag) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockMetaStore) Close() error { return nil }
