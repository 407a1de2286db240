package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func indexDocs(t *testing.T, idx *BleveIndex, docs map[string]string) {
	t.Helper()
	batch := make([]*Document, 0, len(docs))
	for id, content := range docs {
		batch = append(batch, &Document{ID: id, Content: content})
	}
	require.NoError(t, idx.Index(context.Background(), batch))
}

func TestBleveIndex_SearchRanksMatches(t *testing.T) {
	idx := newMemIndex(t)
	indexDocs(t, idx, map[string]string{
		"c1": "descale the boiler with descaling solution descale monthly",
		"c2": "clean the group head after every shot",
		"c3": "the boiler heats water for brewing",
	})

	results, err := idx.Search(context.Background(), "descale boiler", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "c1", results[0].ChunkID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestBleveIndex_MatchingIsCaseInsensitive(t *testing.T) {
	idx := newMemIndex(t)
	indexDocs(t, idx, map[string]string{
		"c1": "DESCALE the Boiler",
	})

	results, err := idx.Search(context.Background(), "descale", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
}

func TestBleveIndex_BlankQueryReturnsEmpty(t *testing.T) {
	idx := newMemIndex(t)
	indexDocs(t, idx, map[string]string{"c1": "some text"})

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := idx.Search(context.Background(), q, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestBleveIndex_NoMatchesReturnsEmptyNotError(t *testing.T) {
	idx := newMemIndex(t)
	indexDocs(t, idx, map[string]string{"c1": "espresso machine manual"})

	results, err := idx.Search(context.Background(), "zzzzz qqqqq", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveIndex_EmptyIndexSearch(t *testing.T) {
	idx := newMemIndex(t)

	results, err := idx.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveIndex_LimitRespected(t *testing.T) {
	idx := newMemIndex(t)
	docs := make(map[string]string)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		docs[id] = "steam wand cleaning steps"
	}
	indexDocs(t, idx, docs)

	results, err := idx.Search(context.Background(), "steam wand", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestBleveIndex_Determinism(t *testing.T) {
	idx := newMemIndex(t)
	indexDocs(t, idx, map[string]string{
		"c1": "water filter replacement schedule",
		"c2": "replace the water filter every two months",
		"c3": "the filter basket holds ground coffee",
	})

	first, err := idx.Search(context.Background(), "water filter", 10)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := idx.Search(context.Background(), "water filter", 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBleveIndex_DocCountAndClear(t *testing.T) {
	idx := newMemIndex(t)
	indexDocs(t, idx, map[string]string{"c1": "one", "c2": "two"})

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, idx.Clear(context.Background()))
	n, err = idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBleveIndex_PersistAndReopen(t *testing.T) {
	path := t.TempDir() + "/lexical.bleve"

	idx, err := NewBleveIndex(path)
	require.NoError(t, err)
	indexDocs(t, idx, map[string]string{"c1": "persisted content"})
	require.NoError(t, idx.Close())

	reopened, err := NewBleveIndex(path)
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.Search(context.Background(), "persisted", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
}
