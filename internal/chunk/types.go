// Package chunk splits page text into overlapping, token-bounded segments
// that carry provenance metadata for citation.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Chunk is the atomic retrievable unit: a bounded, provenance-tagged span
// of document text. Chunks are immutable once produced; the corpus is
// replaced wholesale on re-ingestion.
type Chunk struct {
	// ID is a stable identifier derived from (SourceDocument, ChunkIndex).
	ID string

	// Text is the chunk content, a contiguous token span of one page.
	Text string

	// SourceDocument is the originating document name.
	SourceDocument string

	// PageNumber is the 1-based page the text was sliced from.
	PageNumber int

	// Brand is the manufacturer tag, empty when unknown.
	Brand string

	// ChunkIndex is the position of this chunk within its source document,
	// used for stable ordering and fusion tie-breaking.
	ChunkIndex int

	// TokenCount is the number of tokens in Text.
	TokenCount int
}

// ChunkID derives the stable chunk identifier from document name and
// chunk index. The same (document, index) pair always yields the same ID,
// so re-ingestion of an unchanged corpus produces identical IDs.
func ChunkID(sourceDocument string, chunkIndex int) string {
	h := sha256.Sum256([]byte(sourceDocument + "\x00" + strconv.Itoa(chunkIndex)))
	return hex.EncodeToString(h[:])
}
