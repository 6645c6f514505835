package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ChunkSchemaVersion identifies the persisted chunk record layout.
const ChunkSchemaVersion = "document_chunk.v1"

// DocumentChunk represents one contiguous slice of a document's text.
// Character offsets are 0-based half-open positions into the original,
// unmodified document text; line numbers are 1-based inclusive.
type DocumentChunk struct {
	SchemaVersion string         `json:"schema_version"`
	ChunkID       string         `json:"chunk_id"`
	DocumentID    string         `json:"document_id"`
	ChunkIndex    int            `json:"chunk_index"`
	Text          string         `json:"text"`
	ContentHash   string         `json:"content_hash"` // SHA-256 hex of Text
	CharStart     int            `json:"char_start"`
	CharEnd       int            `json:"char_end"`
	LineStart     int            `json:"line_start"`
	LineEnd       int            `json:"line_end"`
	TokenCount    *int           `json:"token_count,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// NewDocumentChunk builds a validated DocumentChunk with a fresh random
// identifier. The content hash is computed from text.
func NewDocumentChunk(documentID string, chunkIndex int, text string, charStart, charEnd, lineStart, lineEnd int) (*DocumentChunk, error) {
	chunk := &DocumentChunk{
		SchemaVersion: ChunkSchemaVersion,
		ChunkID:       uuid.New().String(),
		DocumentID:    documentID,
		ChunkIndex:    chunkIndex,
		Text:          text,
		ContentHash:   HashContent(text),
		CharStart:     charStart,
		CharEnd:       charEnd,
		LineStart:     lineStart,
		LineEnd:       lineEnd,
		Extra:         map[string]any{},
	}
	if err := chunk.Validate(); err != nil {
		return nil, err
	}
	return chunk, nil
}

// Validate checks every field invariant, including the monotonic offset
// pairs required of character and line positions.
func (c *DocumentChunk) Validate() error {
	if c.SchemaVersion != ChunkSchemaVersion {
		return fmt.Errorf("schema_version: expected %q, got %q", ChunkSchemaVersion, c.SchemaVersion)
	}
	if _, err := validateUUID("chunk_id", c.ChunkID); err != nil {
		return err
	}
	if _, err := validateUUID("document_id", c.DocumentID); err != nil {
		return err
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk_index must be >= 0, got %d", c.ChunkIndex)
	}
	if err := validateNonEmpty("text", c.Text); err != nil {
		return err
	}
	if _, err := validateHexDigest("content_hash", c.ContentHash); err != nil {
		return err
	}
	if c.CharStart < 0 {
		return fmt.Errorf("char_start must be >= 0, got %d", c.CharStart)
	}
	if c.CharEnd < c.CharStart {
		return fmt.Errorf("char_end (%d) must be >= char_start (%d)", c.CharEnd, c.CharStart)
	}
	if c.LineStart < 1 {
		return fmt.Errorf("line_start must be >= 1, got %d", c.LineStart)
	}
	if c.LineEnd < c.LineStart {
		return fmt.Errorf("line_end (%d) must be >= line_start (%d)", c.LineEnd, c.LineStart)
	}
	if c.TokenCount != nil && *c.TokenCount < 0 {
		return fmt.Errorf("token_count must be >= 0, got %d", *c.TokenCount)
	}
	return nil
}
