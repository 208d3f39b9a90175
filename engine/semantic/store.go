// Package semantic owns all Qdrant operations: collection lifecycle, chunk
// upserts at ingestion time, and thresholded similarity search at query time.
// One collection holds every personal-document chunk; it is the only state
// the engine persists.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jobbooster/jobbooster/engine/domain"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// VectorStore is the sole owner of the Qdrant connection. Safe for concurrent
// reads; writes happen only during operator-triggered ingestion.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	logger      *slog.Logger
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr, collection string, logger *slog.Logger) (*VectorStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		logger:      logger,
	}, nil
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	return v.conn.Close()
}

// EnsureCollection makes sure the collection exists with the given vector
// dimension. With recreate set, any existing data is destroyed and a fresh
// empty collection is created. Without it the call is idempotent, except that
// an existing collection with a different dimension fails with
// domain.ErrDimensionMismatch rather than being silently reused.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int, recreate bool) error {
	exists, err := v.collectionExists(ctx)
	if err != nil {
		return err
	}

	if exists && recreate {
		v.logger.Warn("semantic: recreating collection, prior data destroyed", "collection", v.collection)
		if _, err := v.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: v.collection}); err != nil {
			return fmt.Errorf("semantic: delete collection %s: %w", v.collection, err)
		}
		exists = false
	}

	if exists {
		existing, err := v.collectionDimension(ctx)
		if err != nil {
			return err
		}
		if existing != dims {
			return domain.NewValidationError("dimension", strconv.Itoa(dims),
				fmt.Errorf("collection %s has dimension %d: %w", v.collection, existing, domain.ErrDimensionMismatch))
		}
		return nil
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}
	v.logger.Info("semantic: collection created", "collection", v.collection, "dimension", dims)
	return nil
}

func (v *VectorStore) collectionExists(ctx context.Context) (bool, error) {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return true, nil
		}
	}
	return false, nil
}

func (v *VectorStore) collectionDimension(ctx context.Context) (int, error) {
	info, err := v.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: v.collection})
	if err != nil {
		return 0, fmt.Errorf("semantic: get collection %s: %w", v.collection, err)
	}
	params := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams()
	return int(params.GetSize()), nil
}

// Upsert stores embedded chunks. The write waits for completion, so the batch
// either lands as a whole or the call returns an error.
func (v *VectorStore) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: toPayload(r.Payload),
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// Search performs k-NN similarity search, excluding hits below the score
// threshold. Results come back ordered by similarity descending; fewer than
// limit may qualify.
func (v *VectorStore) Search(ctx context.Context, embedding []float32, limit int, scoreThreshold float32) ([]domain.RetrievedDocument, error) {
	req := &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		ScoreThreshold: &scoreThreshold,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}

	resp, err := v.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	results := make([]domain.RetrievedDocument, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		doc := domain.RetrievedDocument{
			ID:    r.GetId().GetUuid(),
			Score: r.GetScore(),
		}
		for k, val := range r.GetPayload() {
			switch k {
			case "text":
				doc.Text = val.GetStringValue()
			case "source":
				doc.Source = val.GetStringValue()
			}
		}
		results[i] = doc
	}
	return results, nil
}

// toPayload converts a generic payload map into Qdrant values.
func toPayload(in map[string]any) map[string]*pb.Value {
	out := make(map[string]*pb.Value, len(in))
	for k, val := range in {
		switch tv := val.(type) {
		case string:
			out[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
		case int:
			out[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
		case int64:
			out[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
		case float64:
			out[k] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
		case bool:
			out[k] = &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
		default:
			out[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
		}
	}
	return out
}
