package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	now := time.Now().UTC()
	doc, err := NewDocument("file:///tmp/readme.md", "readme.md", HashContent("hello"), 5, SourceTypeFile, now)
	require.NoError(t, err)

	assert.Equal(t, DocumentSchemaVersion, doc.SchemaVersion)
	assert.Equal(t, "file:///tmp/readme.md", doc.URI)
	assert.Equal(t, int64(5), doc.SizeBytes)
	assert.Equal(t, SourceTypeFile, doc.SourceType)
	assert.Equal(t, now, doc.IngestedAt)

	_, err = uuid.Parse(doc.DocumentID)
	assert.NoError(t, err, "document id should be a valid uuid")
}

func TestNewDocument_NormalizesHash(t *testing.T) {
	upper := strings.ToUpper(HashContent("hello"))
	doc, err := NewDocument("file:///tmp/a.txt", "a.txt", upper, 5, SourceTypeFile, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(upper), doc.ContentHash)
}

func TestNewDocument_Invalid(t *testing.T) {
	now := time.Now().UTC()
	hash := HashContent("x")

	tests := []struct {
		name string
		fn   func() (*Document, error)
	}{
		{"empty uri", func() (*Document, error) {
			return NewDocument("", "a.txt", hash, 1, SourceTypeFile, now)
		}},
		{"empty display name", func() (*Document, error) {
			return NewDocument("file:///a", "  ", hash, 1, SourceTypeFile, now)
		}},
		{"non-hex hash", func() (*Document, error) {
			return NewDocument("file:///a", "a.txt", "zzzz", 1, SourceTypeFile, now)
		}},
		{"odd-length hash", func() (*Document, error) {
			return NewDocument("file:///a", "a.txt", "abc", 1, SourceTypeFile, now)
		}},
		{"negative size", func() (*Document, error) {
			return NewDocument("file:///a", "a.txt", hash, -1, SourceTypeFile, now)
		}},
		{"unknown source type", func() (*Document, error) {
			return NewDocument("file:///a", "a.txt", hash, 1, SourceType("ftp"), now)
		}},
		{"zero timestamp", func() (*Document, error) {
			return NewDocument("file:///a", "a.txt", hash, 1, SourceTypeFile, time.Time{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.Error(t, err)
		})
	}
}

func TestHashContent(t *testing.T) {
	digest := HashContent("hello")
	assert.Len(t, digest, 64)
	assert.Equal(t, strings.ToLower(digest), digest)
	assert.Equal(t, digest, HashContent("hello"))
	assert.NotEqual(t, digest, HashContent("hello "))
}

func TestNewDocumentChunk(t *testing.T) {
	docID := uuid.New().String()
	chunk, err := NewDocumentChunk(docID, 0, "some text", 10, 19, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, ChunkSchemaVersion, chunk.SchemaVersion)
	assert.Equal(t, docID, chunk.DocumentID)
	assert.Equal(t, HashContent("some text"), chunk.ContentHash)
	assert.Nil(t, chunk.TokenCount)
}

func TestNewDocumentChunk_Invalid(t *testing.T) {
	docID := uuid.New().String()

	tests := []struct {
		name string
		fn   func() (*DocumentChunk, error)
	}{
		{"bad document id", func() (*DocumentChunk, error) {
			return NewDocumentChunk("not-a-uuid", 0, "text", 0, 4, 1, 1)
		}},
		{"negative index", func() (*DocumentChunk, error) {
			return NewDocumentChunk(docID, -1, "text", 0, 4, 1, 1)
		}},
		{"empty text", func() (*DocumentChunk, error) {
			return NewDocumentChunk(docID, 0, "   ", 0, 3, 1, 1)
		}},
		{"char_end before char_start", func() (*DocumentChunk, error) {
			return NewDocumentChunk(docID, 0, "text", 10, 5, 1, 1)
		}},
		{"negative char_start", func() (*DocumentChunk, error) {
			return NewDocumentChunk(docID, 0, "text", -1, 4, 1, 1)
		}},
		{"zero line_start", func() (*DocumentChunk, error) {
			return NewDocumentChunk(docID, 0, "text", 0, 4, 0, 1)
		}},
		{"line_end before line_start", func() (*DocumentChunk, error) {
			return NewDocumentChunk(docID, 0, "text", 0, 4, 3, 2)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.Error(t, err)
		})
	}
}

func TestDocumentChunk_TokenCountValidation(t *testing.T) {
	chunk, err := NewDocumentChunk(uuid.New().String(), 0, "text", 0, 4, 1, 1)
	require.NoError(t, err)

	negative := -1
	chunk.TokenCount = &negative
	assert.Error(t, chunk.Validate())

	three := 3
	chunk.TokenCount = &three
	assert.NoError(t, chunk.Validate())
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc, err := NewDocument("file:///tmp/a.txt", "a.txt", HashContent("body"), 4, SourceTypeFile, time.Now().UTC())
	require.NoError(t, err)
	doc.Extra["language"] = "go"

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, doc.DocumentID, decoded.DocumentID)
	assert.Equal(t, doc.ContentHash, decoded.ContentHash)
	assert.Equal(t, "go", decoded.Extra["language"])
	assert.NoError(t, decoded.Validate())
}

func TestNewQuery(t *testing.T) {
	q, err := NewQuery("handles authentication", StrategySemantic, 10)
	require.NoError(t, err)
	assert.Equal(t, StrategySemantic, q.Strategy)
	assert.False(t, q.Filters.HasFilters())

	_, err = NewQuery("", StrategySemantic, 10)
	assert.Error(t, err, "empty text should be rejected")

	_, err = NewQuery("q", StrategySemantic, 0)
	assert.Error(t, err, "non-positive top_k should be rejected")

	_, err = NewQuery("q", SearchStrategy("fuzzy"), 10)
	assert.Error(t, err, "unknown strategy should be rejected")
}

func TestSearchHit_Validate(t *testing.T) {
	score := 0.87
	hit := &SearchHit{
		SchemaVersion: SearchHitSchemaVersion,
		HitID:         uuid.New().String(),
		QueryID:       uuid.New().String(),
		DocumentID:    uuid.New().String(),
		Rank:          0,
		Score:         &score,
		Strategy:      StrategyLexical,
	}
	assert.NoError(t, hit.Validate())

	outOfRange := 1.5
	hit.Score = &outOfRange
	assert.Error(t, hit.Validate())
}
