package store

import (
	"context"
	"encoding/hex"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/docsift/docsift/internal/errs"
)

// QdrantStore implements VectorStore against a remote qdrant instance
// over gRPC. Collections use cosine distance, so qdrant's native score
// is already a similarity (higher is better) and needs no conversion.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dimensions  int
}

// qdrant payload field names.
const (
	payloadChunkID  = "chunk_id"
	payloadSource   = "source_document"
	payloadPage     = "page_number"
	payloadBrand    = "brand"
	payloadChunkIdx = "chunk_index"
)

// NewQdrantStore connects to qdrant and ensures the collection exists
// with the given dimensionality. Connection and collection failures are
// reported as external service errors.
func NewQdrantStore(ctx context.Context, host string, port int, collection string, dimensions int) (*QdrantStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errs.External(errs.ErrCodeVectorStoreUnavailable, "qdrant", "connect", err)
	}

	s := &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		dimensions:  dimensions,
	}

	if err := s.ensureCollection(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// ensureCollection creates the collection if it does not exist yet.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: s.collection,
	})
	if err != nil {
		return errs.External(errs.ErrCodeVectorStoreUnavailable, "qdrant", "collection_exists", err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return errs.External(errs.ErrCodeVectorStoreFailed, "qdrant", "create_collection", err)
	}
	return nil
}

// pointID derives a qdrant UUID from a chunk ID. Chunk IDs are sha256
// hex digests; the first 16 bytes are stable and collision-resistant
// enough to serve as the point identity. The full chunk ID travels in
// the payload.
func pointID(chunkID string) (*pb.PointId, error) {
	raw, err := hex.DecodeString(chunkID)
	if err != nil || len(raw) < 16 {
		return nil, fmt.Errorf("chunk ID %q is not a hex digest", chunkID)
	}
	uuid := fmt.Sprintf("%x-%x-%x-%x-%x", raw[0:4], raw[4:6], raw[6:8], raw[8:10], raw[10:16])
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: uuid}}, nil
}

// Add upserts records into the collection. Re-ingesting a chunk
// replaces its point.
func (s *QdrantStore) Add(ctx context.Context, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(records))
	for _, r := range records {
		if len(r.Vector) != s.dimensions {
			return ErrDimensionMismatch{
				Expected: s.dimensions,
				Got:      len(r.Vector),
			}
		}

		id, err := pointID(r.ChunkID)
		if err != nil {
			return err
		}

		points = append(points, &pb.PointStruct{
			Id:      id,
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Vector}}},
			Payload: map[string]*pb.Value{
				payloadChunkID:  {Kind: &pb.Value_StringValue{StringValue: r.ChunkID}},
				payloadSource:   {Kind: &pb.Value_StringValue{StringValue: r.Meta.SourceDocument}},
				payloadPage:     {Kind: &pb.Value_IntegerValue{IntegerValue: int64(r.Meta.PageNumber)}},
				payloadBrand:    {Kind: &pb.Value_StringValue{StringValue: r.Meta.Brand}},
				payloadChunkIdx: {Kind: &pb.Value_IntegerValue{IntegerValue: int64(r.Meta.ChunkIndex)}},
			},
		})
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return errs.External(errs.ErrCodeVectorStoreFailed, "qdrant", "upsert", err)
	}
	return nil
}

// Search runtime-filters by brand using qdrant's native payload filter,
// so selective filters still return k matches when they exist.
func (s *QdrantStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]*VectorResult, error) {
	if len(query) != s.dimensions {
		return nil, ErrDimensionMismatch{
			Expected: s.dimensions,
			Got:      len(query),
		}
	}

	req := &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}

	if !filter.Empty() {
		req.Filter = &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: payloadBrand,
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{Keyword: filter.Brand},
							},
						},
					},
				},
			},
		}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, errs.External(errs.ErrCodeVectorStoreFailed, "qdrant", "search", err)
	}

	results := make([]*VectorResult, 0, len(resp.Result))
	for _, pt := range resp.Result {
		chunkID := pt.Payload[payloadChunkID].GetStringValue()
		if chunkID == "" {
			continue
		}
		results = append(results, &VectorResult{
			ChunkID: chunkID,
			Score:   pt.Score,
		})
	}
	return results, nil
}

// Clear removes every point by dropping and recreating the collection.
func (s *QdrantStore) Clear(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: s.collection,
	})
	if err != nil {
		return errs.External(errs.ErrCodeVectorStoreFailed, "qdrant", "delete_collection", err)
	}
	return s.ensureCollection(ctx)
}

// Count returns the number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, errs.External(errs.ErrCodeVectorStoreFailed, "qdrant", "count", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

var _ VectorStore = (*QdrantStore)(nil)
