// Package model defines the domain records persisted by the indexing
// pipeline, with constructor-time validation of every field invariant.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentSchemaVersion identifies the persisted document record layout.
const DocumentSchemaVersion = "document.v1"

// SourceType classifies where a document's content came from.
type SourceType string

const (
	SourceTypeFile      SourceType = "file"
	SourceTypeWeb       SourceType = "web"
	SourceTypeGenerated SourceType = "generated"
)

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	switch s {
	case SourceTypeFile, SourceTypeWeb, SourceTypeGenerated:
		return true
	}
	return false
}

// Document represents one ingested file or resource. Instances are built
// through NewDocument and treated as immutable values afterward.
type Document struct {
	SchemaVersion string         `json:"schema_version"`
	DocumentID    string         `json:"document_id"`
	URI           string         `json:"uri"`
	DisplayName   string         `json:"display_name"`
	ContentHash   string         `json:"content_hash"` // SHA-256 hex of the full content
	SizeBytes     int64          `json:"size_bytes"`
	SourceType    SourceType     `json:"source_type"`
	Extra         map[string]any `json:"extra,omitempty"`
	IngestedAt    time.Time      `json:"ingested_at"`
}

// NewDocument builds a validated Document with a fresh random identifier.
// ContentHash must be the SHA-256 hex digest of the document's full text.
func NewDocument(uri, displayName, contentHash string, sizeBytes int64, sourceType SourceType, ingestedAt time.Time) (*Document, error) {
	doc := &Document{
		SchemaVersion: DocumentSchemaVersion,
		DocumentID:    uuid.New().String(),
		URI:           uri,
		DisplayName:   displayName,
		ContentHash:   contentHash,
		SizeBytes:     sizeBytes,
		SourceType:    sourceType,
		Extra:         map[string]any{},
		IngestedAt:    ingestedAt,
	}
	if digest, err := validateHexDigest("content_hash", contentHash); err == nil {
		doc.ContentHash = digest
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks every field invariant. It is called by NewDocument and
// again by storage adapters before a record is written or after it is read.
func (d *Document) Validate() error {
	if d.SchemaVersion != DocumentSchemaVersion {
		return fmt.Errorf("schema_version: expected %q, got %q", DocumentSchemaVersion, d.SchemaVersion)
	}
	if _, err := validateUUID("document_id", d.DocumentID); err != nil {
		return err
	}
	if err := validateNonEmpty("uri", d.URI); err != nil {
		return err
	}
	if err := validateNonEmpty("display_name", d.DisplayName); err != nil {
		return err
	}
	if _, err := validateHexDigest("content_hash", d.ContentHash); err != nil {
		return err
	}
	if d.SizeBytes < 0 {
		return fmt.Errorf("size_bytes must be >= 0, got %d", d.SizeBytes)
	}
	if !d.SourceType.Valid() {
		return fmt.Errorf("source_type: unknown value %q", d.SourceType)
	}
	return validateTimestamp("ingested_at", d.IngestedAt)
}

// HashContent computes the lowercase SHA-256 hex digest used as the content
// hash for both documents and chunks.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
