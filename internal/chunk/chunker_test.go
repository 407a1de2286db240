package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/internal/document"
)

func tokens(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("tok%d", i)
	}
	return strings.Join(parts, " ")
}

func page(text string, number int, doc string) document.Page {
	return document.Page{
		Text:           text,
		PageNumber:     number,
		SourceDocument: doc,
		Brand:          document.BrandFromFilename(doc),
	}
}

func TestNewChunker_RejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative chunk size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals chunk size", 10, 10},
		{"overlap exceeds chunk size", 10, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChunker(tc.chunkSize, tc.overlap)
			require.Error(t, err)
		})
	}
}

func TestChunk_SizeAndOverlapBounds(t *testing.T) {
	c, err := NewChunker(10, 3)
	require.NoError(t, err)

	chunks := c.Chunk([]document.Page{page(tokens(25), 1, "gaggia_classic.txt")})
	require.Len(t, chunks, 4) // starts at 0, 7, 14, 21

	// Every chunk except the last holds exactly chunkSize tokens.
	for _, ch := range chunks[:len(chunks)-1] {
		assert.Equal(t, 10, ch.TokenCount)
	}
	assert.Equal(t, 4, chunks[3].TokenCount)

	// Consecutive chunks share exactly overlap tokens.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		shared := 3
		if len(cur) < shared {
			shared = len(cur)
		}
		assert.Equal(t, prev[len(prev)-3:len(prev)-3+shared], cur[:shared])
	}
}

func TestChunk_CoverageReconstructsTokenStream(t *testing.T) {
	c, err := NewChunker(10, 3)
	require.NoError(t, err)

	original := tokens(47)
	chunks := c.Chunk([]document.Page{page(original, 1, "doc.txt")})
	require.NotEmpty(t, chunks)

	// Concatenating each chunk's non-overlap region (everything past
	// the shared prefix) rebuilds the original stream exactly.
	var rebuilt []string
	for i, ch := range chunks {
		fields := strings.Fields(ch.Text)
		if i == 0 {
			rebuilt = append(rebuilt, fields...)
		} else {
			rebuilt = append(rebuilt, fields[3:]...)
		}
	}
	assert.Equal(t, strings.Fields(original), rebuilt)
}

func TestChunk_ShortPageYieldsSingleChunk(t *testing.T) {
	c, err := NewChunker(1000, 200)
	require.NoError(t, err)

	chunks := c.Chunk([]document.Page{page("just a few words here", 3, "manual.txt")})
	require.Len(t, chunks, 1)
	assert.Equal(t, 5, chunks[0].TokenCount)
	assert.Equal(t, 3, chunks[0].PageNumber)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
}

func TestChunk_ExactMultipleProducesNoEmptyTail(t *testing.T) {
	// 10 tokens, window 5, overlap 0: exactly two chunks, no trailing
	// empty window.
	c, err := NewChunker(5, 0)
	require.NoError(t, err)

	chunks := c.Chunk([]document.Page{page(tokens(10), 1, "doc.txt")})
	require.Len(t, chunks, 2)
	assert.Equal(t, 5, chunks[0].TokenCount)
	assert.Equal(t, 5, chunks[1].TokenCount)
}

func TestChunk_EmptyAndBlankPages(t *testing.T) {
	c, err := NewChunker(10, 2)
	require.NoError(t, err)

	chunks := c.Chunk([]document.Page{
		page("", 1, "doc.txt"),
		page("   \n\t  ", 2, "doc.txt"),
	})
	assert.Empty(t, chunks)

	assert.Empty(t, c.Chunk(nil))
}

func TestChunk_NeverSpansPages(t *testing.T) {
	c, err := NewChunker(10, 3)
	require.NoError(t, err)

	chunks := c.Chunk([]document.Page{
		page(tokens(15), 1, "doc.txt"),
		page(tokens(15), 2, "doc.txt"),
	})
	require.NotEmpty(t, chunks)

	for _, ch := range chunks {
		// A chunk's tokens all come from one page's stream.
		assert.Contains(t, []int{1, 2}, ch.PageNumber)
		assert.LessOrEqual(t, ch.TokenCount, 10)
	}

	// ChunkIndex counts across the document's pages without resetting.
	indexes := make([]int, len(chunks))
	for i, ch := range chunks {
		indexes[i] = ch.ChunkIndex
	}
	for i, idx := range indexes {
		assert.Equal(t, i, idx)
	}
}

func TestChunk_ProvenanceAndBrand(t *testing.T) {
	c, err := NewChunker(100, 10)
	require.NoError(t, err)

	chunks := c.Chunk([]document.Page{page("descale the boiler monthly", 7, "Gaggia_Classic_Manual.pdf")})
	require.Len(t, chunks, 1)

	assert.Equal(t, "Gaggia_Classic_Manual.pdf", chunks[0].SourceDocument)
	assert.Equal(t, 7, chunks[0].PageNumber)
	assert.Equal(t, "gaggia", chunks[0].Brand)
}

func TestChunkID_StableAndDistinct(t *testing.T) {
	assert.Equal(t, ChunkID("doc.txt", 0), ChunkID("doc.txt", 0))
	assert.NotEqual(t, ChunkID("doc.txt", 0), ChunkID("doc.txt", 1))
	assert.NotEqual(t, ChunkID("doc.txt", 0), ChunkID("other.txt", 0))
	assert.Len(t, ChunkID("doc.txt", 0), 64)
}

func TestChunk_Determinism(t *testing.T) {
	c, err := NewChunker(8, 2)
	require.NoError(t, err)

	pages := []document.Page{
		page(tokens(30), 1, "a.txt"),
		page(tokens(12), 1, "b.txt"),
	}

	first := c.Chunk(pages)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Chunk(pages))
	}
}
