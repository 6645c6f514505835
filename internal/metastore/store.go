// Package metastore persists document and chunk records to SQLite.
package metastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/txtsearch/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// MemoryPath opens an ephemeral in-process database instead of a file.
const MemoryPath = ":memory:"

// Store persists Document and DocumentChunk records, keyed by identifier,
// with upsert and cascade-delete semantics.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path. Pass MemoryPath for an
// ephemeral store with the same behavior, used in tests and ephemeral runs.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite benefits from a single writer; WAL keeps readers unblocked.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    document_id    TEXT PRIMARY KEY,
    schema_version TEXT NOT NULL,
    uri            TEXT NOT NULL UNIQUE,
    display_name   TEXT NOT NULL,
    content_hash   TEXT NOT NULL,
    size_bytes     INTEGER NOT NULL,
    source_type    TEXT NOT NULL,
    extra          TEXT NOT NULL DEFAULT '{}',
    ingested_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_uri ON documents(uri);

CREATE TABLE IF NOT EXISTS chunks (
    chunk_id       TEXT PRIMARY KEY,
    schema_version TEXT NOT NULL,
    document_id    TEXT NOT NULL REFERENCES documents(document_id) ON DELETE CASCADE,
    chunk_index    INTEGER NOT NULL,
    text           TEXT NOT NULL,
    content_hash   TEXT NOT NULL,
    char_start     INTEGER NOT NULL,
    char_end       INTEGER NOT NULL,
    line_start     INTEGER NOT NULL,
    line_end       INTEGER NOT NULL,
    token_count    INTEGER,
    extra          TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
`

// InitializeSchema creates the tables if they do not exist. Idempotent.
func (s *Store) InitializeSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	s.logger.Debug("metadata store initialized")
	return nil
}

// SaveDocument upserts a document by its identifier.
func (s *Store) SaveDocument(ctx context.Context, doc *model.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	extra, err := marshalExtra(doc.Extra)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (document_id, schema_version, uri, display_name, content_hash, size_bytes, source_type, extra, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
		    schema_version = excluded.schema_version,
		    uri            = excluded.uri,
		    display_name   = excluded.display_name,
		    content_hash   = excluded.content_hash,
		    size_bytes     = excluded.size_bytes,
		    source_type    = excluded.source_type,
		    extra          = excluded.extra,
		    ingested_at    = excluded.ingested_at
	`
	_, err = s.db.ExecContext(ctx, query,
		doc.DocumentID, doc.SchemaVersion, doc.URI, doc.DisplayName, doc.ContentHash,
		doc.SizeBytes, string(doc.SourceType), extra, doc.IngestedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.DocumentID, err)
	}

	s.logger.Debug("document saved", "document_id", doc.DocumentID, "uri", doc.URI)
	return nil
}

// SaveChunks persists a batch of chunks in one transaction. Any existing
// chunk sharing an identifier is replaced rather than merged.
func (s *Store) SaveChunks(ctx context.Context, chunks []*model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("invalid chunk: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO chunks (chunk_id, schema_version, document_id, chunk_index, text, content_hash,
		                    char_start, char_end, line_start, line_end, token_count, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, chunk := range chunks {
		extra, err := marshalExtra(chunk.Extra)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE chunk_id = ?", chunk.ChunkID); err != nil {
			return fmt.Errorf("replace chunk %s: %w", chunk.ChunkID, err)
		}
		var tokenCount sql.NullInt64
		if chunk.TokenCount != nil {
			tokenCount = sql.NullInt64{Int64: int64(*chunk.TokenCount), Valid: true}
		}
		_, err = tx.ExecContext(ctx, insert,
			chunk.ChunkID, chunk.SchemaVersion, chunk.DocumentID, chunk.ChunkIndex, chunk.Text,
			chunk.ContentHash, chunk.CharStart, chunk.CharEnd, chunk.LineStart, chunk.LineEnd,
			tokenCount, extra)
		if err != nil {
			return fmt.Errorf("save chunk %s: %w", chunk.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	s.logger.Debug("chunks saved", "document_id", chunks[0].DocumentID, "chunk_count", len(chunks))
	return nil
}

const documentColumns = `document_id, schema_version, uri, display_name, content_hash, size_bytes, source_type, extra, ingested_at`

// GetDocumentByID retrieves a document by its identifier.
func (s *Store) GetDocumentByID(ctx context.Context, documentID string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE document_id = ?`, documentID)
	return scanDocument(row)
}

// GetDocumentByURI retrieves a document by its source URI.
func (s *Store) GetDocumentByURI(ctx context.Context, uri string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE uri = ?`, uri)
	return scanDocument(row)
}

// GetChunksByDocumentID retrieves all chunks of a document, ordered by
// chunk index.
func (s *Store) GetChunksByDocumentID(ctx context.Context, documentID string) ([]*model.DocumentChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, schema_version, document_id, chunk_index, text, content_hash,
		       char_start, char_end, line_start, line_end, token_count, extra
		FROM chunks WHERE document_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*model.DocumentChunk
	for rows.Next() {
		var chunk model.DocumentChunk
		var tokenCount sql.NullInt64
		var extra string
		err := rows.Scan(&chunk.ChunkID, &chunk.SchemaVersion, &chunk.DocumentID, &chunk.ChunkIndex,
			&chunk.Text, &chunk.ContentHash, &chunk.CharStart, &chunk.CharEnd,
			&chunk.LineStart, &chunk.LineEnd, &tokenCount, &extra)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if tokenCount.Valid {
			n := int(tokenCount.Int64)
			chunk.TokenCount = &n
		}
		if chunk.Extra, err = unmarshalExtra(extra); err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// DeleteDocument removes a document and all its chunks. It reports whether
// a document was actually deleted.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return false, fmt.Errorf("delete chunks: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE document_id = ?", documentID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}

	if affected > 0 {
		s.logger.Debug("document deleted", "document_id", documentID)
	}
	return affected > 0, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var doc model.Document
	var sourceType, extra, ingestedAt string
	err := row.Scan(&doc.DocumentID, &doc.SchemaVersion, &doc.URI, &doc.DisplayName,
		&doc.ContentHash, &doc.SizeBytes, &sourceType, &extra, &ingestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.SourceType = model.SourceType(sourceType)
	if doc.Extra, err = unmarshalExtra(extra); err != nil {
		return nil, err
	}
	// Timestamps are stored as RFC 3339 UTC, so the offset survives SQLite.
	if doc.IngestedAt, err = time.Parse(time.RFC3339Nano, ingestedAt); err != nil {
		return nil, fmt.Errorf("parse ingested_at: %w", err)
	}
	return &doc, nil
}

func marshalExtra(extra map[string]any) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "", fmt.Errorf("marshal extra: %w", err)
	}
	return string(data), nil
}

func unmarshalExtra(data string) (map[string]any, error) {
	extra := map[string]any{}
	if data == "" {
		return extra, nil
	}
	if err := json.Unmarshal([]byte(data), &extra); err != nil {
		return nil, fmt.Errorf("unmarshal extra: %w", err)
	}
	return extra, nil
}
