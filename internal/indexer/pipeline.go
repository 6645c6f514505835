// Package indexer orchestrates the ingestion pipeline: discover files,
// read and chunk their content, and persist documents and chunks to the
// metadata and vector stores.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bull/txtsearch/internal/model"
	"github.com/bull/txtsearch/internal/vectorstore"
)

// IndexResult summarizes one indexing run. Per-file failures are recorded
// as error strings, one per failed file, formatted "<path>: <message>".
type IndexResult struct {
	FilesProcessed int
	FilesSkipped   int
	ChunksCreated  int
	Errors         []string
	Duration       time.Duration
}

// FileError is a per-file processing failure that did not abort the run.
type FileError struct {
	Path  string
	Error string
}

// String renders the error the way it appears in IndexResult.Errors.
func (e FileError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Error)
}

// FileWalker yields candidate file paths under a root directory.
type FileWalker interface {
	Walk(root string) ([]string, error)
}

// MetadataStore is the slice of the metadata store the pipeline needs.
type MetadataStore interface {
	InitializeSchema(ctx context.Context) error
	SaveDocument(ctx context.Context, doc *model.Document) error
	SaveChunks(ctx context.Context, chunks []*model.DocumentChunk) error
}

// Chunker splits text into position-annotated chunks.
type Chunker interface {
	Chunk(text, documentID string) ([]*model.DocumentChunk, error)
}

// Pipeline coordinates file discovery, chunking, and persistence. All
// dependencies are injected at construction.
type Pipeline struct {
	walker  FileWalker
	meta    MetadataStore
	vectors vectorstore.Store
	chunker Chunker
	logger  *slog.Logger
}

// NewPipeline creates an ingestion pipeline with the given components.
func NewPipeline(walker FileWalker, meta MetadataStore, vectors vectorstore.Store, chunker Chunker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		walker:  walker,
		meta:    meta,
		vectors: vectors,
		chunker: chunker,
		logger:  logger,
	}
}

// IndexDirectory indexes every matching file under root. Per-file failures
// are isolated and recorded in the result; only an invalid root or a store
// initialization failure makes the whole run fail.
func (p *Pipeline) IndexDirectory(ctx context.Context, root string) (*IndexResult, error) {
	start := time.Now()
	p.logger.Info("indexing started", "directory", root)

	if err := p.meta.InitializeSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize metadata store: %w", err)
	}
	if err := p.vectors.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize vector store: %w", err)
	}

	paths, err := p.walker.Walk(root)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{}
	for _, path := range paths {
		chunks, err := p.processFile(ctx, path)
		switch {
		case err != nil:
			fileErr := FileError{Path: path, Error: err.Error()}
			p.logger.Warn("file processing failed", "path", path, "error", err)
			result.Errors = append(result.Errors, fileErr.String())
		case chunks == 0:
			p.logger.Debug("file skipped", "path", path)
			result.FilesSkipped++
		default:
			result.FilesProcessed++
			result.ChunksCreated += chunks
		}
	}

	result.Duration = time.Since(start)
	p.logger.Info("indexing completed",
		"directory", root,
		"files_processed", result.FilesProcessed,
		"files_skipped", result.FilesSkipped,
		"chunks_created", result.ChunksCreated,
		"error_count", len(result.Errors),
		"duration", result.Duration,
	)
	return result, nil
}

// processFile runs one file through the pipeline. It returns the number of
// chunks created; zero with a nil error means the file was skipped.
func (p *Pipeline) processFile(ctx context.Context, path string) (int, error) {
	content, size, err := readFile(path)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(content) == "" {
		return 0, nil
	}

	doc, err := p.buildDocument(path, content, size)
	if err != nil {
		return 0, err
	}

	chunks, err := p.chunker.Chunk(content, doc.DocumentID)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := p.persist(ctx, doc, chunks); err != nil {
		return 0, err
	}

	p.logger.Debug("file indexed", "path", path, "document_id", doc.DocumentID, "chunk_count", len(chunks))
	return len(chunks), nil
}

// readFile reads the full text content of path, rejecting content that is
// not valid UTF-8.
func readFile(path string) (string, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	if !utf8.Valid(data) {
		return "", 0, fmt.Errorf("invalid UTF-8 encoding")
	}
	return string(data), info.Size(), nil
}

// buildDocument creates the Document record for one file.
func (p *Pipeline) buildDocument(path, content string, size int64) (*model.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	uri := "file://" + filepath.ToSlash(abs)

	doc, err := model.NewDocument(uri, filepath.Base(path), model.HashContent(content), size,
		model.SourceTypeFile, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	return doc, nil
}

// persist writes the document and its chunks to the metadata store, then
// forwards chunk texts and positional metadata to the vector store, which
// embeds them internally.
func (p *Pipeline) persist(ctx context.Context, doc *model.Document, chunks []*model.DocumentChunk) error {
	if err := p.meta.SaveDocument(ctx, doc); err != nil {
		return err
	}
	if err := p.meta.SaveChunks(ctx, chunks); err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ChunkID
		texts[i] = chunk.Text
		metadatas[i] = map[string]any{
			"document_id": chunk.DocumentID,
			"chunk_index": chunk.ChunkIndex,
			"char_start":  chunk.CharStart,
			"char_end":    chunk.CharEnd,
		}
	}
	return p.vectors.AddDocuments(ctx, ids, texts, metadatas)
}
