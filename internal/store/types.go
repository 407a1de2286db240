// Package store provides the persistence layer for docsift: the bleve
// lexical index, the vector store backends (local HNSW and remote qdrant),
// and the SQLite chunk catalog.
package store

import (
	"context"
	"fmt"
)

// Document is a unit of text to be indexed lexically.
type Document struct {
	ID      string // Chunk ID
	Content string // Chunk text
}

// LexicalResult is a single keyword search result.
type LexicalResult struct {
	ChunkID string
	Score   float64
}

// LexicalIndex provides keyword search with BM25-style ranking.
// Identical corpus and query always produce identical ranked output.
type LexicalIndex interface {
	// Index adds documents to the index.
	Index(ctx context.Context, docs []*Document) error

	// Search returns up to limit documents matching query, best first.
	// An empty or unbuilt index yields an empty slice, not an error.
	Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error)

	// DocCount returns the number of indexed documents.
	DocCount() (int, error)

	// Close releases index resources.
	Close() error
}

// Meta is the strongly typed chunk metadata persisted alongside vectors,
// translated to each vector store's native payload format only at the
// adapter boundary.
type Meta struct {
	SourceDocument string
	PageNumber     int
	Brand          string
	ChunkIndex     int
}

// Filter restricts a vector search to chunks matching its fields.
// Zero-valued fields do not filter.
type Filter struct {
	// Brand matches the stored brand tag exactly (already lowercased).
	Brand string
}

// Empty reports whether the filter places no restriction.
func (f Filter) Empty() bool {
	return f.Brand == ""
}

// EmbeddingRecord is one persisted vector with its chunk identity and
// filterable metadata.
type EmbeddingRecord struct {
	ChunkID string
	Vector  []float32
	Meta    Meta
}

// VectorResult is a single nearest-neighbor search result. Score is
// normalized so that higher is always more similar, regardless of the
// backend's native distance metric.
type VectorResult struct {
	ChunkID string
	Score   float32
}

// VectorStore persists embeddings and answers filtered nearest-neighbor
// queries. Implementations treat connectivity and authentication failures
// as hard errors for the query; the core never retries them.
type VectorStore interface {
	// Add inserts records. Existing chunk IDs are replaced.
	Add(ctx context.Context, records []EmbeddingRecord) error

	// Search finds the k nearest neighbors of query, restricted by filter.
	// An empty store yields an empty slice, not an error.
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]*VectorResult, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Clear removes every stored vector. Ingest calls it before
	// repopulating so a shrunk corpus leaves no stale points behind.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ErrDimensionMismatch indicates a vector dimension mismatch between the
// store and a query or record.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (reingest the corpus with the current embedder)", e.Expected, e.Got)
}
