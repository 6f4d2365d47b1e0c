package vecstore

import (
	"context"
	"fmt"
	"sync"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
)

// qdrantStore maps each tenant to its own Qdrant collection, named by the
// tenant id verbatim and created lazily on first write or read.
type qdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	dims        int

	mu    sync.Mutex
	known map[string]struct{}
}

func newQdrantStore(addr string, dims int) (*qdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant %s: %w", addr, err)
	}
	return &qdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		dims:        dims,
		known:       make(map[string]struct{}),
	}, nil
}

func (s *qdrantStore) Collection(tenantID string) Collection {
	return &qdrantCollection{store: s, name: tenantID}
}

func (s *qdrantStore) Close() error {
	return s.conn.Close()
}

func (s *qdrantStore) ensureCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[name]; ok {
		return nil
	}
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	exists := false
	for _, c := range list.GetCollections() {
		if c.GetName() == name {
			exists = true
			break
		}
	}
	if !exists {
		_, err = s.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: name,
			VectorsConfig: &pb.VectorsConfig{
				Config: &pb.VectorsConfig_Params{
					Params: &pb.VectorParams{
						Size:     uint64(s.dims),
						Distance: pb.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}
	s.known[name] = struct{}{}
	return nil
}

type qdrantCollection struct {
	store *qdrantStore
	name  string
}

func (c *qdrantCollection) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.store.ensureCollection(ctx, c.name); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStoreWrite, err)
	}
	points := make([]*pb.PointStruct, len(records))
	for i, record := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: record.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: record.Embedding},
				},
			},
			Payload: map[string]*pb.Value{
				"email_ref_id":   {Kind: &pb.Value_StringValue{StringValue: record.EmailRefID}},
				"chunk_text":     {Kind: &pb.Value_StringValue{StringValue: record.Text}},
				"chunk_sequence": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(record.Sequence)}},
				"ctime":          {Kind: &pb.Value_IntegerValue{IntegerValue: record.Ctime}},
			},
		}
	}
	wait := true
	_, err := c.store.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: c.name,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %d points: %v", appErr.ErrStoreWrite, len(points), err)
	}
	return nil
}

func (c *qdrantCollection) DeleteBySource(ctx context.Context, emailRefID string) bool {
	if err := c.store.ensureCollection(ctx, c.name); err != nil {
		logutil.GetLogger(ctx).Error("delete by source failed",
			zap.String("collection", c.name),
			zap.String("email_ref_id", emailRefID),
			zap.Error(err),
		)
		return false
	}
	wait := true
	_, err := c.store.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: c.name,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{fieldMatch("email_ref_id", emailRefID)},
				},
			},
		},
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("delete by source failed",
			zap.String("collection", c.name),
			zap.String("email_ref_id", emailRefID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (c *qdrantCollection) Search(ctx context.Context, vector []float32, limit int) SearchOutcome {
	if err := c.store.ensureCollection(ctx, c.name); err != nil {
		return SearchOutcome{Degraded: true, Err: err}
	}
	resp, err := c.store.points.Search(ctx, &pb.SearchPoints{
		CollectionName: c.name,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return SearchOutcome{Degraded: true, Err: err}
	}
	results := resp.GetResult()
	records := make([]Record, 0, len(results))
	for _, point := range results {
		payload := point.GetPayload()
		records = append(records, Record{
			ID:         point.GetId().GetUuid(),
			EmailRefID: payload["email_ref_id"].GetStringValue(),
			Text:       payload["chunk_text"].GetStringValue(),
			Sequence:   int(payload["chunk_sequence"].GetIntegerValue()),
			Ctime:      payload["ctime"].GetIntegerValue(),
		})
	}
	return SearchOutcome{Records: records}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
