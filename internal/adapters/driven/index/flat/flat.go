// Package flat provides an exact nearest-neighbour vector index held in
// memory, with binary persistence to a single artifact.
package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// magic identifies a persisted flat index artifact.
var magic = [8]byte{'C', 'M', 'P', 'L', 'V', 'E', 'C', '1'}

// metric codes used in the persisted artifact.
const (
	metricCodeCosine uint8 = 0
	metricCodeDot    uint8 = 1
)

// Index is an exact-scan vector index. Entries keep their insertion order,
// which breaks score ties deterministically; slot numbers are never
// exposed to callers.
type Index struct {
	mu        sync.RWMutex
	dimension int
	metric    driven.Metric
	closed    bool

	ids  []string
	vecs [][]float32
	mags []float64 // precomputed magnitudes, cosine only
	slot map[string]int
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int, metric driven.Metric) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("flat: dimension must be positive, got %d", dimension)
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("flat: unsupported metric %q", metric)
	}
	return &Index{
		dimension: dimension,
		metric:    metric,
		slot:      make(map[string]int),
	}, nil
}

// Dimension returns the configured vector dimension.
func (idx *Index) Dimension() int { return idx.dimension }

// Metric returns the configured similarity metric.
func (idx *Index) Metric() driven.Metric { return idx.metric }

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Add inserts a vector for the given chunk ID. Re-adding an existing ID
// replaces its vector in place, keeping its original insertion slot.
func (idx *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}
	if chunkID == "" {
		return fmt.Errorf("flat: %w: empty chunk ID", domain.ErrInvalidInput)
	}
	if len(embedding) != idx.dimension {
		return fmt.Errorf("flat: embedding dimension %d does not match index dimension %d",
			len(embedding), idx.dimension)
	}

	vec := append([]float32(nil), embedding...)

	if s, ok := idx.slot[chunkID]; ok {
		idx.vecs[s] = vec
		idx.mags[s] = magnitude(vec)
		return nil
	}

	idx.slot[chunkID] = len(idx.ids)
	idx.ids = append(idx.ids, chunkID)
	idx.vecs = append(idx.vecs, vec)
	idx.mags = append(idx.mags, magnitude(vec))
	return nil
}

// Remove deletes a vector from the index.
func (idx *Index) Remove(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	s, ok := idx.slot[chunkID]
	if !ok {
		return fmt.Errorf("flat: chunk %s: %w", chunkID, domain.ErrNotFound)
	}

	// Compact by shifting later entries down one slot, preserving their
	// relative insertion order for deterministic tie-breaks.
	idx.ids = append(idx.ids[:s], idx.ids[s+1:]...)
	idx.vecs = append(idx.vecs[:s], idx.vecs[s+1:]...)
	idx.mags = append(idx.mags[:s], idx.mags[s+1:]...)
	delete(idx.slot, chunkID)
	for i := s; i < len(idx.ids); i++ {
		idx.slot[idx.ids[i]] = i
	}
	return nil
}

// Search finds the k nearest neighbours to the query vector, ordered by
// descending similarity with ties broken by insertion order.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("flat: index is closed")
	}
	if len(idx.ids) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("flat: query dimension %d does not match index dimension %d",
			len(query), idx.dimension)
	}

	qm := magnitude(query)
	if idx.metric == driven.MetricCosine && qm == 0 {
		return nil, nil
	}

	type scored struct {
		slot  int
		score float64
	}
	scoreds := make([]scored, 0, len(idx.vecs))
	for s := range idx.vecs {
		var score float64
		switch idx.metric {
		case driven.MetricCosine:
			if idx.mags[s] == 0 {
				continue
			}
			score = dot(query, idx.vecs[s]) / (qm * idx.mags[s])
		case driven.MetricDot:
			score = dot(query, idx.vecs[s])
		}
		if math.IsNaN(score) {
			continue
		}
		scoreds = append(scoreds, scored{slot: s, score: score})
	}

	sort.Slice(scoreds, func(a, b int) bool {
		if scoreds[a].score != scoreds[b].score {
			return scoreds[a].score > scoreds[b].score
		}
		return scoreds[a].slot < scoreds[b].slot
	})

	if k > len(scoreds) {
		k = len(scoreds)
	}
	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.VectorHit{
			ChunkID: idx.ids[scoreds[i].slot],
			Score:   scoreds[i].score,
		}
	}
	return hits, nil
}

// Persist writes the index to a single artifact at path. The snapshot
// holds the write lock, so no write can interleave with it.
func (idx *Index) Persist(_ context.Context, path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("flat: creating artifact: %w", err)
	}

	if err := idx.encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flat: writing artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("flat: closing artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("flat: replacing artifact: %w", err)
	}
	return nil
}

// Load replaces the index contents from a persisted artifact. The
// artifact's dimension and metric must match the runtime configuration.
func (idx *Index) Load(_ context.Context, path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("flat: opening artifact: %w", err)
	}
	defer f.Close()

	return idx.decode(bufio.NewReader(f))
}

// Close releases the index. Further operations fail.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.closed = true
	idx.ids, idx.vecs, idx.mags, idx.slot = nil, nil, nil, nil
	return nil
}

// Artifact layout: magic[8] | metric u8 | dimension u32 | count u32,
// then per entry: idLen u32 | id bytes | float32[dimension].
// All integers and floats little-endian.

func (idx *Index) encode(f *os.File) error {
	w := bufio.NewWriter(f)

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := w.WriteByte(metricCode(idx.metric)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(idx.dimension)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(idx.ids))); err != nil {
		return err
	}

	for s, id := range idx.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return err
		}
		if _, err := w.WriteString(id); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, idx.vecs[s]); err != nil {
			return err
		}
	}

	return w.Flush()
}

func (idx *Index) decode(r io.Reader) error {
	var gotMagic [8]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return fmt.Errorf("flat: reading header: %w", err)
	}
	if gotMagic != magic {
		return fmt.Errorf("flat: not a vector index artifact")
	}

	var code uint8
	if err := binary.Read(r, binary.LittleEndian, &code); err != nil {
		return fmt.Errorf("flat: reading metric: %w", err)
	}
	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("flat: reading dimension: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("flat: reading count: %w", err)
	}

	storedMetric, err := metricFromCode(code)
	if err != nil {
		return err
	}
	if storedMetric != idx.metric {
		return fmt.Errorf("flat: artifact metric %s, runtime metric %s: %w",
			storedMetric, idx.metric, domain.ErrIndexIncompatible)
	}
	if int(dim) != idx.dimension {
		return fmt.Errorf("flat: artifact dimension %d, runtime dimension %d: %w",
			dim, idx.dimension, domain.ErrIndexIncompatible)
	}

	ids := make([]string, 0, count)
	vecs := make([][]float32, 0, count)
	mags := make([]float64, 0, count)
	slot := make(map[string]int, count)

	for i := uint32(0); i < count; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("flat: reading entry %d: %w", i, err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return fmt.Errorf("flat: reading entry %d id: %w", i, err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("flat: reading entry %d vector: %w", i, err)
		}

		id := string(idBytes)
		slot[id] = len(ids)
		ids = append(ids, id)
		vecs = append(vecs, vec)
		mags = append(mags, magnitude(vec))
	}

	idx.ids, idx.vecs, idx.mags, idx.slot = ids, vecs, mags, slot
	return nil
}

func metricCode(m driven.Metric) uint8 {
	if m == driven.MetricDot {
		return metricCodeDot
	}
	return metricCodeCosine
}

func metricFromCode(code uint8) (driven.Metric, error) {
	switch code {
	case metricCodeCosine:
		return driven.MetricCosine, nil
	case metricCodeDot:
		return driven.MetricDot, nil
	default:
		return "", fmt.Errorf("flat: unknown metric code %d: %w", code, domain.ErrIndexIncompatible)
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
