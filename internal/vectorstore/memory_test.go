package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a deterministic unit vector per input text.
type stubEmbedder struct {
	calls int
	err   error
}

func (e *stubEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, VectorDimension)
		v[i%VectorDimension] = 1
		embeddings[i] = v
	}
	return embeddings, nil
}

func newTestMemoryStore(t *testing.T) (*MemoryStore, *stubEmbedder) {
	t.Helper()
	embedder := &stubEmbedder{}
	store := NewMemoryStore(embedder, nil)
	require.NoError(t, store.Initialize(context.Background()))
	return store, embedder
}

func TestMemoryStore_RequiresInitialize(t *testing.T) {
	store := NewMemoryStore(&stubEmbedder{}, nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.AddDocuments(ctx, []string{"id"}, []string{"text"}, nil), ErrNotInitialized)
	assert.ErrorIs(t, store.AddEmbeddings(ctx, nil, nil, nil, nil), ErrNotInitialized)
	assert.ErrorIs(t, store.DeleteByIDs(ctx, []string{"id"}), ErrNotInitialized)
	assert.ErrorIs(t, store.ClearCollection(ctx), ErrNotInitialized)

	_, err := store.Count(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = store.GetByIDs(ctx, []string{"id"})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestMemoryStore_AddDocuments(t *testing.T) {
	store, embedder := newTestMemoryStore(t)
	ctx := context.Background()

	ids := []string{"a", "b"}
	documents := []string{"first text", "second text"}
	metadatas := []map[string]any{{"chunk_index": 0}, {"chunk_index": 1}}

	require.NoError(t, store.AddDocuments(ctx, ids, documents, metadatas))
	assert.Equal(t, 1, embedder.calls, "embeddings should be generated internally")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestMemoryStore_AddDocuments_LengthMismatch(t *testing.T) {
	store, _ := newTestMemoryStore(t)
	ctx := context.Background()

	err := store.AddDocuments(ctx, []string{"a", "b"}, []string{"only one"}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = store.AddDocuments(ctx, []string{"a"}, []string{"text"}, []map[string]any{{}, {}})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestMemoryStore_AddDocuments_EmbedderFailure(t *testing.T) {
	store, embedder := newTestMemoryStore(t)
	embedder.err = errors.New("api unavailable")

	err := store.AddDocuments(context.Background(), []string{"a"}, []string{"text"}, nil)
	assert.Error(t, err)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "nothing should be stored when embedding fails")
}

func TestMemoryStore_AddEmbeddings_Upserts(t *testing.T) {
	store, _ := newTestMemoryStore(t)
	ctx := context.Background()

	vector := make([]float32, VectorDimension)
	vector[0] = 1

	require.NoError(t, store.AddEmbeddings(ctx, []string{"a"}, [][]float32{vector}, []string{"original"}, nil))
	require.NoError(t, store.AddEmbeddings(ctx, []string{"a"}, [][]float32{vector}, []string{"replaced"}, nil))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "same id should upsert, not duplicate")

	record, err := store.GetByIDs(ctx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, record.Documents, 1)
	assert.Equal(t, "replaced", record.Documents[0])
}

func TestMemoryStore_GetByIDs(t *testing.T) {
	store, _ := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddDocuments(ctx,
		[]string{"a", "b"},
		[]string{"first", "second"},
		[]map[string]any{{"chunk_index": 0}, {"chunk_index": 1}}))

	record, err := store.GetByIDs(ctx, []string{"b", "missing"})
	require.NoError(t, err)
	require.Len(t, record.IDs, 1, "unknown ids should be skipped")
	assert.Equal(t, "b", record.IDs[0])
	assert.Equal(t, "second", record.Documents[0])
	assert.Equal(t, 1, record.Metadatas[0]["chunk_index"])
	assert.Len(t, record.Embeddings[0], VectorDimension)
}

func TestMemoryStore_DeleteByIDs(t *testing.T) {
	store, _ := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddDocuments(ctx, []string{"a", "b"}, []string{"one", "two"}, nil))
	require.NoError(t, store.DeleteByIDs(ctx, []string{"a", "missing"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestMemoryStore_ClearCollection(t *testing.T) {
	store, _ := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddDocuments(ctx, []string{"a", "b"}, []string{"one", "two"}, nil))
	require.NoError(t, store.ClearCollection(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Still usable after a clear.
	require.NoError(t, store.AddDocuments(ctx, []string{"c"}, []string{"three"}, nil))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestMemoryStore_EmptyBatchesAreNoOps(t *testing.T) {
	store, embedder := newTestMemoryStore(t)
	ctx := context.Background()

	assert.NoError(t, store.AddDocuments(ctx, nil, nil, nil))
	assert.NoError(t, store.AddEmbeddings(ctx, nil, nil, nil, nil))
	assert.Zero(t, embedder.calls)
}
