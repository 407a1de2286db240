package chunk

import (
	"fmt"
	"strings"

	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/errs"
)

// Default chunking parameters.
const (
	// DefaultChunkSize is the window size in tokens.
	DefaultChunkSize = 1000

	// DefaultOverlap is the number of tokens a chunk shares with its
	// successor: the 200-token suffix of each chunk reappears as the
	// prefix of the next.
	DefaultOverlap = 200
)

// Chunker splits pages into overlapping token windows.
//
// Pages are chunked independently: a chunk never spans a page boundary,
// so every chunk cites exactly one (document, page) pair. Chunking is a
// pure function of the input pages and the configured sizes.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. overlap must be strictly less than
// chunkSize; violating that is a configuration error, not something to
// silently clamp.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, errs.ConfigError(fmt.Sprintf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 {
		return nil, errs.ConfigError(fmt.Sprintf("overlap must be non-negative, got %d", overlap))
	}
	if overlap >= chunkSize {
		return nil, errs.ConfigError(fmt.Sprintf("overlap (%d) must be less than chunk size (%d)", overlap, chunkSize))
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk produces chunks for the given pages, in order.
//
// Each window holds chunkSize tokens and advances by chunkSize-overlap;
// the final window of a page may be shorter. Empty pages produce no
// chunks. ChunkIndex counts chunks per source document, across its pages.
func (c *Chunker) Chunk(pages []document.Page) []Chunk {
	var chunks []Chunk
	perDoc := make(map[string]int)

	step := c.chunkSize - c.overlap
	for _, page := range pages {
		tokens := Tokenize(page.Text)
		if len(tokens) == 0 {
			continue
		}

		for start := 0; start < len(tokens); start += step {
			end := start + c.chunkSize
			if end > len(tokens) {
				end = len(tokens)
			}

			idx := perDoc[page.SourceDocument]
			perDoc[page.SourceDocument]++

			window := tokens[start:end]
			chunks = append(chunks, Chunk{
				ID:             ChunkID(page.SourceDocument, idx),
				Text:           strings.Join(window, " "),
				SourceDocument: page.SourceDocument,
				PageNumber:     page.PageNumber,
				Brand:          page.Brand,
				ChunkIndex:     idx,
				TokenCount:     len(window),
			})

			if end == len(tokens) {
				break
			}
		}
	}

	return chunks
}

// ChunkSize returns the configured window size in tokens.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap in tokens.
func (c *Chunker) Overlap() int { return c.overlap }
