// Package qdrant provides a remote vector index backed by a Qdrant server.
// Durability is handled server-side, so Persist and Load are no-ops.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driven"
	"github.com/jimvb55/security-compliance-assistant/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// pointNamespace derives deterministic Qdrant point UUIDs from chunk IDs.
var pointNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// payloadChunkID is the payload field carrying the chunk identifier.
const payloadChunkID = "chunk_id"

// Config holds connection details for the Qdrant index.
type Config struct {
	// Host is the Qdrant gRPC host (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the collection name (default: policy-chunks).
	Collection string

	// Dimension is the embedding vector size (required).
	Dimension int

	// Metric is the similarity metric applied by the collection.
	Metric driven.Metric
}

// Index is a Qdrant-backed vector index.
type Index struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dimension   int
	metric      driven.Metric
}

// New connects to Qdrant and ensures the collection exists with the
// configured dimension and metric.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "policy-chunks"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant: dimension must be positive, got %d", cfg.Dimension)
	}
	if !cfg.Metric.Valid() {
		return nil, fmt.Errorf("qdrant: unsupported metric %q", cfg.Metric)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	idx := &Index{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
		dimension:   cfg.Dimension,
		metric:      cfg.Metric,
	}

	if err := idx.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return idx, nil
}

// ensureCollection creates the collection when missing and rejects an
// existing collection whose dimension or metric differs.
func (idx *Index) ensureCollection(ctx context.Context) error {
	info, err := idx.collections.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: idx.collection,
	})
	if err == nil && info.GetResult() != nil {
		params := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams()
		if params != nil {
			if int(params.GetSize()) != idx.dimension || params.GetDistance() != idx.distance() {
				return fmt.Errorf("qdrant: collection %s has size %d distance %s, want %d %s: %w",
					idx.collection, params.GetSize(), params.GetDistance(),
					idx.dimension, idx.distance(), domain.ErrIndexIncompatible)
			}
		}
		return nil
	}

	_, err = idx.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(idx.dimension),
					Distance: idx.distance(),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}
	logger.Debug("Created qdrant collection %s (dim=%d, distance=%s)",
		idx.collection, idx.dimension, idx.distance())
	return nil
}

func (idx *Index) distance() pb.Distance {
	if idx.metric == driven.MetricDot {
		return pb.Distance_Dot
	}
	return pb.Distance_Cosine
}

// pointID maps a chunk ID to a deterministic Qdrant point UUID.
func pointID(chunkID string) *pb.PointId {
	id := uuid.NewSHA1(pointNamespace, []byte(chunkID))
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id.String()}}
}

// Add upserts a vector for the given chunk ID.
func (idx *Index) Add(ctx context.Context, chunkID string, embedding []float32) error {
	if len(embedding) != idx.dimension {
		return fmt.Errorf("qdrant: embedding dimension %d does not match index dimension %d",
			len(embedding), idx.dimension)
	}

	wait := true
	_, err := idx.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: idx.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: pointID(chunkID),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: embedding},
			}},
			Payload: map[string]*pb.Value{
				payloadChunkID: {Kind: &pb.Value_StringValue{StringValue: chunkID}},
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Remove deletes a vector from the index.
func (idx *Index) Remove(ctx context.Context, chunkID string) error {
	id := pointID(chunkID)

	got, err := idx.points.Get(ctx, &pb.GetPoints{
		CollectionName: idx.collection,
		Ids:            []*pb.PointId{id},
	})
	if err != nil {
		return fmt.Errorf("qdrant get: %w", err)
	}
	if len(got.GetResult()) == 0 {
		return fmt.Errorf("qdrant: chunk %s: %w", chunkID, domain.ErrNotFound)
	}

	wait := true
	_, err = idx.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: idx.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: []*pb.PointId{id}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// Search finds the k nearest neighbours to the query vector.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("qdrant: query dimension %d does not match index dimension %d",
			len(query), idx.dimension)
	}

	resp, err := idx.points.Search(ctx, &pb.SearchPoints{
		CollectionName: idx.collection,
		Vector:         query,
		Limit:          uint64(k),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		chunkID := pt.GetPayload()[payloadChunkID].GetStringValue()
		if chunkID == "" {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID: chunkID,
			Score:   float64(pt.GetScore()),
		})
	}
	return hits, nil
}

// Persist is a no-op: the Qdrant server owns durability.
func (idx *Index) Persist(_ context.Context, _ string) error {
	logger.Debug("Persist ignored for qdrant-backed index")
	return nil
}

// Load is a no-op: the collection is validated against the runtime
// configuration at connect time instead.
func (idx *Index) Load(_ context.Context, _ string) error {
	logger.Debug("Load ignored for qdrant-backed index")
	return nil
}

// Close releases the gRPC connection.
func (idx *Index) Close() error {
	return idx.conn.Close()
}
