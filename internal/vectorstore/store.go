// Package vectorstore persists chunk embeddings for similarity search.
// Two interchangeable implementations exist behind one interface: a
// durable Qdrant-backed store and an ephemeral in-memory store. The
// implementation is selected at construction, never by type inspection.
package vectorstore

import "context"

// VectorDimension is the embedding size stored per chunk. It matches
// embedding.Dimension (text-embedding-3-small).
const VectorDimension = 1536

// DefaultCollectionName is used when no collection name is configured.
const DefaultCollectionName = "chunks"

// Embedder generates one vector per input text. The store calls it
// internally from AddDocuments.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Record is the result of a GetByIDs fetch. Slices are parallel and
// follow the order of the requested identifiers.
type Record struct {
	IDs        []string
	Embeddings [][]float32
	Documents  []string
	Metadatas  []map[string]any
}

// Store is the vector persistence contract consumed by the indexing
// pipeline. All mutating and reading operations fail with
// ErrNotInitialized before Initialize has been called.
type Store interface {
	// Initialize creates the collection if it does not exist. Idempotent.
	Initialize(ctx context.Context) error

	// AddDocuments upserts texts by id, generating embeddings internally.
	AddDocuments(ctx context.Context, ids, documents []string, metadatas []map[string]any) error

	// AddEmbeddings upserts pre-computed vectors by id. It fails with
	// ErrLengthMismatch when the parallel slices differ in length.
	AddEmbeddings(ctx context.Context, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any) error

	// DeleteByIDs removes entries by identifier. Unknown ids are ignored.
	DeleteByIDs(ctx context.Context, ids []string) error

	// ClearCollection removes every entry, leaving an empty collection.
	ClearCollection(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (uint64, error)

	// GetByIDs fetches entries by identifier. Unknown ids are omitted
	// from the result.
	GetByIDs(ctx context.Context, ids []string) (*Record, error)

	// Close releases the underlying connection, if any.
	Close() error
}
