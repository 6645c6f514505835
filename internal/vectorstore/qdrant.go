package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// payloadDocumentKey holds the chunk text inside a point's payload.
const payloadDocumentKey = "document"

// QdrantStore is the durable Store implementation, backed by a Qdrant
// collection over gRPC.
type QdrantStore struct {
	client      *qdrant.Client
	collection  string
	embedder    Embedder
	logger      *slog.Logger
	initialized bool
}

// NewQdrantStore connects to Qdrant and verifies its health with retry,
// failing fast when the server stays unreachable. The embedder is used by
// AddDocuments to generate vectors internally.
func NewQdrantStore(host string, port int, collection string, embedder Embedder, logger *slog.Logger) (*QdrantStore, error) {
	if collection == "" {
		collection = DefaultCollectionName
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client:     client,
		collection: collection,
		embedder:   embedder,
		logger:     logger,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs health checks with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Initialize ensures the collection exists with cosine-distance vectors of
// VectorDimension and a payload index on document_id. Idempotent.
func (s *QdrantStore) Initialize(ctx context.Context) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}
	s.initialized = true
	s.logger.Info("vector store initialized", "collection", s.collection)
	return nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Filtering chunks by their parent document is the common lookup.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "document_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create document_id index: %w", err)
	}
	return nil
}

// AddDocuments upserts texts by id, generating embeddings internally.
func (s *QdrantStore) AddDocuments(ctx context.Context, ids, documents []string, metadatas []map[string]any) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if len(ids) == 0 {
		return nil
	}
	if len(documents) != len(ids) {
		return fmt.Errorf("%w: ids=%d, documents=%d", ErrLengthMismatch, len(ids), len(documents))
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return fmt.Errorf("%w: ids=%d, metadatas=%d", ErrLengthMismatch, len(ids), len(metadatas))
	}

	embeddings, err := s.embedder.GenerateEmbeddings(ctx, documents)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}
	return s.AddEmbeddings(ctx, ids, embeddings, documents, metadatas)
}

// AddEmbeddings upserts pre-computed vectors by id, batched in groups of
// 100 with retry.
func (s *QdrantStore) AddEmbeddings(ctx context.Context, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if len(ids) == 0 {
		return nil
	}
	if len(embeddings) != len(ids) || len(documents) != len(ids) {
		return fmt.Errorf("%w: ids=%d, embeddings=%d, documents=%d",
			ErrLengthMismatch, len(ids), len(embeddings), len(documents))
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return fmt.Errorf("%w: ids=%d, metadatas=%d", ErrLengthMismatch, len(ids), len(metadatas))
	}
	for i, embedding := range embeddings {
		if len(embedding) != VectorDimension {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(embedding), VectorDimension)
		}
	}

	batchSize := 100
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			payload := map[string]any{payloadDocumentKey: documents[i]}
			if metadatas != nil {
				for k, v := range metadatas[i] {
					payload[k] = v
				}
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(ids[i]),
				Vectors: qdrant.NewVectors(embeddings[i]...),
				Payload: qdrant.NewValueMap(payload),
			})
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}

	s.logger.Debug("embeddings added", "collection", s.collection, "count", len(ids))
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// DeleteByIDs removes points by identifier.
func (s *QdrantStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}

	s.logger.Debug("embeddings deleted", "collection", s.collection, "count", len(ids))
	return nil
}

// ClearCollection deletes and recreates the collection.
func (s *QdrantStore) ClearCollection(ctx context.Context) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}
	s.logger.Info("collection cleared", "collection", s.collection)
	return nil
}

// Count returns the number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}

// GetByIDs fetches points by identifier, including vectors and payloads.
func (s *QdrantStore) GetByIDs(ctx context.Context, ids []string) (*Record, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	record := &Record{}
	if len(ids) == 0 {
		return record, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get points: %w", err)
	}

	for _, point := range points {
		record.IDs = append(record.IDs, point.Id.GetUuid())

		var vector []float32
		if v := point.Vectors.GetVector(); v != nil {
			vector = v.GetData()
		}
		record.Embeddings = append(record.Embeddings, vector)

		payload := point.Payload
		record.Documents = append(record.Documents, payload[payloadDocumentKey].GetStringValue())

		metadata := make(map[string]any, len(payload))
		for key, value := range payload {
			if key == payloadDocumentKey {
				continue
			}
			metadata[key] = valueToAny(value)
		}
		record.Metadatas = append(record.Metadatas, metadata)
	}

	return record, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// valueToAny converts a qdrant payload value back to a plain Go value.
func valueToAny(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, 0, len(values))
		for _, item := range values {
			list = append(list, valueToAny(item))
		}
		return list
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for k, v := range fields {
			m[k] = valueToAny(v)
		}
		return m
	default:
		return nil
	}
}
