package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Schema versions for the search-side records.
const (
	QuerySchemaVersion     = "query.v1"
	SearchHitSchemaVersion = "search_hit.v1"
)

// SearchStrategy selects how a query is executed.
type SearchStrategy string

const (
	StrategySemantic SearchStrategy = "semantic"
	StrategyLexical  SearchStrategy = "lexical"
	StrategyLiteral  SearchStrategy = "literal"
	StrategyAgentic  SearchStrategy = "agentic"
)

// Valid reports whether s is a known strategy.
func (s SearchStrategy) Valid() bool {
	switch s {
	case StrategySemantic, StrategyLexical, StrategyLiteral, StrategyAgentic:
		return true
	}
	return false
}

// QueryFilters narrows a search to a subset of the index.
type QueryFilters struct {
	DocumentIDs   []string     `json:"document_ids,omitempty"`
	SourceTypes   []SourceType `json:"source_types,omitempty"`
	ExtraEq       map[string]any `json:"extra_eq,omitempty"`
	IngestedAfter *time.Time   `json:"ingested_after,omitempty"`
}

// HasFilters reports whether any filter is set.
func (f QueryFilters) HasFilters() bool {
	return len(f.DocumentIDs) > 0 || len(f.SourceTypes) > 0 || len(f.ExtraEq) > 0 || f.IngestedAfter != nil
}

// Query is a validated search request.
type Query struct {
	SchemaVersion string         `json:"schema_version"`
	QueryID       string         `json:"query_id"`
	Text          string         `json:"text"`
	Strategy      SearchStrategy `json:"strategy"`
	TopK          int            `json:"top_k"`
	Filters       QueryFilters   `json:"filters"`
}

// NewQuery builds a validated Query with a fresh identifier.
func NewQuery(text string, strategy SearchStrategy, topK int) (*Query, error) {
	q := &Query{
		SchemaVersion: QuerySchemaVersion,
		QueryID:       uuid.New().String(),
		Text:          text,
		Strategy:      strategy,
		TopK:          topK,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks the query invariants.
func (q *Query) Validate() error {
	if q.SchemaVersion != QuerySchemaVersion {
		return fmt.Errorf("schema_version: expected %q, got %q", QuerySchemaVersion, q.SchemaVersion)
	}
	if _, err := validateUUID("query_id", q.QueryID); err != nil {
		return err
	}
	if err := validateNonEmpty("text", q.Text); err != nil {
		return err
	}
	if !q.Strategy.Valid() {
		return fmt.Errorf("strategy: unknown value %q", q.Strategy)
	}
	if q.TopK <= 0 {
		return fmt.Errorf("top_k must be > 0, got %d", q.TopK)
	}
	for i, id := range q.Filters.DocumentIDs {
		if _, err := validateUUID(fmt.Sprintf("filters.document_ids[%d]", i), id); err != nil {
			return err
		}
	}
	return nil
}

// SearchHit is one ranked result of a query.
type SearchHit struct {
	SchemaVersion string         `json:"schema_version"`
	HitID         string         `json:"hit_id"`
	QueryID       string         `json:"query_id"`
	DocumentID    string         `json:"document_id"`
	ChunkID       string         `json:"chunk_id,omitempty"`
	Rank          int            `json:"rank"`
	Score         *float64       `json:"score,omitempty"`
	Strategy      SearchStrategy `json:"strategy"`
	Snippet       string         `json:"snippet,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Validate checks the hit invariants. Scores, when present, are
// normalized similarities in [0, 1].
func (h *SearchHit) Validate() error {
	if h.SchemaVersion != SearchHitSchemaVersion {
		return fmt.Errorf("schema_version: expected %q, got %q", SearchHitSchemaVersion, h.SchemaVersion)
	}
	for field, id := range map[string]string{"hit_id": h.HitID, "query_id": h.QueryID, "document_id": h.DocumentID} {
		if _, err := validateUUID(field, id); err != nil {
			return err
		}
	}
	if h.ChunkID != "" {
		if _, err := validateUUID("chunk_id", h.ChunkID); err != nil {
			return err
		}
	}
	if h.Rank < 0 {
		return fmt.Errorf("rank must be >= 0, got %d", h.Rank)
	}
	if h.Score != nil && (*h.Score < 0 || *h.Score > 1) {
		return fmt.Errorf("score must be between 0 and 1, got %g", *h.Score)
	}
	if !h.Strategy.Valid() {
		return fmt.Errorf("strategy: unknown value %q", h.Strategy)
	}
	return nil
}
