package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// memoryPoint is one stored entry in a MemoryStore.
type memoryPoint struct {
	embedding []float32
	document  string
	metadata  map[string]any
}

// MemoryStore is the ephemeral Store implementation. It keeps everything
// in process memory and exposes exactly the same contract as QdrantStore,
// which makes it the drop-in choice for tests and throwaway runs.
type MemoryStore struct {
	mu          sync.RWMutex
	embedder    Embedder
	logger      *slog.Logger
	points      map[string]memoryPoint
	initialized bool
}

// NewMemoryStore creates an empty in-memory store. The embedder is used by
// AddDocuments to generate vectors internally.
func NewMemoryStore(embedder Embedder, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		embedder: embedder,
		logger:   logger,
	}
}

// Initialize creates the in-memory collection. Idempotent.
func (s *MemoryStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.points == nil {
		s.points = make(map[string]memoryPoint)
	}
	s.initialized = true
	return nil
}

// AddDocuments upserts texts by id, generating embeddings internally.
func (s *MemoryStore) AddDocuments(ctx context.Context, ids, documents []string, metadatas []map[string]any) error {
	if !s.ready() {
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

// AddEmbeddings upserts pre-computed vectors by id.
func (s *MemoryStore) AddEmbeddings(ctx context.Context, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any) error {
	if !s.ready() {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		point := memoryPoint{
			embedding: embeddings[i],
			document:  documents[i],
		}
		if metadatas != nil {
			point.metadata = metadatas[i]
		}
		s.points[id] = point
	}
	return nil
}

// DeleteByIDs removes entries by identifier.
func (s *MemoryStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.points, id)
	}
	return nil
}

// ClearCollection removes every entry.
func (s *MemoryStore) ClearCollection(ctx context.Context) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = make(map[string]memoryPoint)
	return nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(ctx context.Context) (uint64, error) {
	if !s.ready() {
		return 0, ErrNotInitialized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.points)), nil
}

// GetByIDs fetches entries by identifier, skipping unknown ids.
func (s *MemoryStore) GetByIDs(ctx context.Context, ids []string) (*Record, error) {
	if !s.ready() {
		return nil, ErrNotInitialized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	record := &Record{}
	for _, id := range ids {
		point, ok := s.points[id]
		if !ok {
			continue
		}
		record.IDs = append(record.IDs, id)
		record.Embeddings = append(record.Embeddings, point.embedding)
		record.Documents = append(record.Documents, point.document)
		record.Metadatas = append(record.Metadatas, point.metadata)
	}
	return record, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}
