package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/internal/chunk"
	"github.com/docsift/docsift/internal/errs"
)

func TestCorpusKey_StableAcrossOrder(t *testing.T) {
	a := testChunk("a.txt", 0, "", "alpha")
	b := testChunk("b.txt", 0, "", "beta")

	assert.Equal(t, CorpusKey([]chunk.Chunk{a, b}), CorpusKey([]chunk.Chunk{b, a}))
}

func TestCorpusKey_ChangesWithContent(t *testing.T) {
	a := testChunk("a.txt", 0, "", "alpha")
	base := CorpusKey([]chunk.Chunk{a})

	edited := a
	edited.Text = "alpha edited"
	assert.NotEqual(t, base, CorpusKey([]chunk.Chunk{edited}))

	b := testChunk("b.txt", 0, "", "beta")
	assert.NotEqual(t, base, CorpusKey([]chunk.Chunk{a, b}))

	assert.NotEqual(t, base, CorpusKey(nil))
}

func TestLexicalCache_OpenBeforeBuildIsStale(t *testing.T) {
	catalog := newMemCatalog(t)
	cache := NewLexicalCache("", catalog)

	_, err := cache.Open(context.Background(), "somekey")
	require.Error(t, err)

	var de *errs.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, errs.ErrCodeIndexStale, de.Code)
}

func TestLexicalCache_BuildThenOpen(t *testing.T) {
	dir := t.TempDir()
	catalog := newMemCatalog(t)
	cache := NewLexicalCache(dir+"/lexical.bleve", catalog)
	ctx := context.Background()

	chunks := []chunk.Chunk{testChunk("doc.txt", 0, "", "hello world")}
	key := CorpusKey(chunks)

	idx, err := cache.Build(ctx, key, []*Document{{ID: chunks[0].ID, Content: chunks[0].Text}})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	opened, err := cache.Open(ctx, key)
	require.NoError(t, err)
	defer opened.Close()

	n, err := opened.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLexicalCache_KeyMismatchIsStale(t *testing.T) {
	dir := t.TempDir()
	catalog := newMemCatalog(t)
	cache := NewLexicalCache(dir+"/lexical.bleve", catalog)
	ctx := context.Background()

	idx, err := cache.Build(ctx, "key-v1", []*Document{{ID: "c1", Content: "text"}})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = cache.Open(ctx, "key-v2")
	require.Error(t, err)
	assert.Equal(t, errs.ErrCodeIndexStale, errs.GetCode(err))
}

func TestLexicalCache_RebuildReplacesContents(t *testing.T) {
	dir := t.TempDir()
	catalog := newMemCatalog(t)
	cache := NewLexicalCache(dir+"/lexical.bleve", catalog)
	ctx := context.Background()

	idx, err := cache.Build(ctx, "v1", []*Document{
		{ID: "old1", Content: "old corpus"},
		{ID: "old2", Content: "old corpus"},
	})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = cache.Build(ctx, "v2", []*Document{{ID: "new1", Content: "new corpus"}})
	require.NoError(t, err)
	defer idx.Close()

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := idx.Search(ctx, "corpus", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new1", results[0].ChunkID)
}
