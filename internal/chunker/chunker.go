// Package chunker splits text into overlapping chunks with position
// tracking. Splitting is recursive and separator-aware: preferred
// separators are tried in order, and a fixed-window hard split is the
// fallback when none of them can bring a piece under the size limit.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bull/txtsearch/internal/model"
)

// Defaults used by the CLI and by callers that pass zero values.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

// DefaultSeparators are tried from most- to least-preferred. The empty
// string means "hard split at fixed character windows".
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker is a pure, deterministic text splitter. It performs no I/O.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New creates a Chunker. chunkSize is the target maximum chunk length in
// bytes, chunkOverlap the number of trailing bytes repeated into the next
// chunk on a hard split. Construction fails when the overlap does not
// strictly subtract from the useful content per chunk.
func New(chunkSize, chunkOverlap int, separators []string) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk_overlap must be >= 0, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk_overlap (%d) must be less than chunk_size (%d)", chunkOverlap, chunkSize)
	}
	if separators == nil {
		separators = DefaultSeparators
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   separators,
	}, nil
}

// Chunk splits text into position-annotated chunks belonging to documentID.
// Whitespace-only input yields no chunks and no error.
func (c *Chunker) Chunk(text, documentID string) ([]*model.DocumentChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	raw := c.recursiveSplit(text, c.separators)
	return c.buildChunks(raw, text, documentID)
}

// recursiveSplit partitions text using the given separator list, most
// preferred first.
func (c *Chunker) recursiveSplit(text string, separators []string) []string {
	if len(text) <= c.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	if len(separators) == 0 {
		return c.hardSplit(text)
	}

	separator := separators[0]
	remaining := separators[1:]

	if separator == "" {
		return c.hardSplit(text)
	}
	if !strings.Contains(text, separator) {
		return c.recursiveSplit(text, remaining)
	}

	var chunks []string
	current := ""

	for _, piece := range strings.Split(text, separator) {
		candidate := piece
		if current != "" {
			candidate = current + separator + piece
		}

		if len(candidate) <= c.chunkSize {
			current = candidate
			continue
		}

		if current != "" {
			// Flush the accumulated buffer through the lower-priority
			// separators, then seed the next buffer with its overlap suffix.
			chunks = append(chunks, c.recursiveSplit(current, remaining)...)
			if overlap := c.overlapSuffix(current); overlap != "" {
				current = overlap + separator + piece
			} else {
				current = piece
			}
		} else {
			// A single piece alone exceeds the limit.
			chunks = append(chunks, c.recursiveSplit(piece, remaining)...)
			current = ""
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, c.recursiveSplit(current, remaining)...)
	}
	return chunks
}

// hardSplit walks text in windows of at most chunkSize bytes, advancing by
// chunkSize-chunkOverlap per step. A window that would end mid-word is cut
// back to the last whitespace inside it so words stay whole; the exact
// fixed-offset cut is the fallback when a window holds no whitespace at
// all. Cuts never land inside a UTF-8 sequence.
func (c *Chunker) hardSplit(text string) []string {
	var chunks []string
	start := 0

	for start < len(text) {
		end := start + c.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			if i := strings.LastIndexFunc(text[start:end], unicode.IsSpace); i > 0 {
				end = start + i
				for end > start && isSpaceByte(text[end-1]) {
					end--
				}
			}
		}

		window := text[start:end]
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}

		next := end - c.chunkOverlap
		if next <= start {
			next = end
		}
		start = next
		for start < len(text) && isSpaceByte(text[start]) {
			start++
		}
	}
	return chunks
}

// overlapSuffix returns the last chunkOverlap bytes of text, or all of it
// when shorter. The cut is moved back to a rune boundary when needed.
func (c *Chunker) overlapSuffix(text string) string {
	if c.chunkOverlap <= 0 {
		return ""
	}
	if len(text) <= c.chunkOverlap {
		return text
	}
	cut := len(text) - c.chunkOverlap
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	return text[cut:]
}

// buildChunks converts raw chunk texts into DocumentChunk records,
// recovering each chunk's position in the original text. The search for a
// chunk starts just past the previous chunk's start so repeated substrings
// resolve to distinct positions.
func (c *Chunker) buildChunks(raw []string, original, documentID string) ([]*model.DocumentChunk, error) {
	chunks := make([]*model.DocumentChunk, 0, len(raw))
	searchStart := 0

	for index, text := range raw {
		charStart := searchStart
		if idx := strings.Index(original[searchStart:], text); idx >= 0 {
			charStart = searchStart + idx
		}
		charEnd := charStart + len(text)
		if charEnd > len(original) {
			charEnd = len(original)
		}

		lineStart := strings.Count(original[:charStart], "\n") + 1
		lineEnd := strings.Count(original[:charEnd], "\n") + 1

		chunk, err := model.NewDocumentChunk(documentID, index, text, charStart, charEnd, lineStart, lineEnd)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", index, err)
		}
		chunks = append(chunks, chunk)
		searchStart = charStart + 1
	}
	return chunks, nil
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
