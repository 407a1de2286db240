package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, vector []float32, brand string) EmbeddingRecord {
	return EmbeddingRecord{
		ChunkID: id,
		Vector:  vector,
		Meta: Meta{
			SourceDocument: brand + "_manual.txt",
			PageNumber:     1,
			Brand:          brand,
		},
	}
}

func TestHNSWStore_AddAndSearch(t *testing.T) {
	s, err := NewHNSWStore(3)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []EmbeddingRecord{
		record("a", []float32{1, 0, 0}, "gaggia"),
		record("b", []float32{0, 1, 0}, "jura"),
		record("c", []float32{0.9, 0.1, 0}, "gaggia"),
	}))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2, Filter{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "c", results[1].ChunkID)
	// Identical direction gives the maximum similarity score.
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestHNSWStore_BrandFilter(t *testing.T) {
	s, err := NewHNSWStore(3)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []EmbeddingRecord{
		record("g1", []float32{1, 0, 0}, "gaggia"),
		record("g2", []float32{0.8, 0.2, 0}, "gaggia"),
		record("j1", []float32{0.99, 0.01, 0}, "jura"),
	}))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 3, Filter{Brand: "gaggia"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		meta, ok := s.Metadata(r.ChunkID)
		require.True(t, ok)
		assert.Equal(t, "gaggia", meta.Brand)
	}

	// A filter matching nothing is empty, not an error.
	results, err = s.Search(ctx, []float32{1, 0, 0}, 3, Filter{Brand: "rocket"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWStore_DimensionMismatch(t *testing.T) {
	s, err := NewHNSWStore(3)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	err = s.Add(ctx, []EmbeddingRecord{record("a", []float32{1, 0}, "")})
	require.Error(t, err)
	assert.IsType(t, ErrDimensionMismatch{}, err)

	require.NoError(t, s.Add(ctx, []EmbeddingRecord{record("a", []float32{1, 0, 0}, "")}))
	_, err = s.Search(ctx, []float32{1, 0}, 1, Filter{})
	require.Error(t, err)
	assert.IsType(t, ErrDimensionMismatch{}, err)
}

func TestHNSWStore_EmptyStoreSearch(t *testing.T) {
	s, err := NewHNSWStore(3)
	require.NoError(t, err)
	defer s.Close()

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 5, Filter{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWStore_ReAddReplaces(t *testing.T) {
	s, err := NewHNSWStore(3)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []EmbeddingRecord{record("a", []float32{1, 0, 0}, "gaggia")}))
	require.NoError(t, s.Add(ctx, []EmbeddingRecord{record("a", []float32{0, 1, 0}, "jura")}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	meta, ok := s.Metadata("a")
	require.True(t, ok)
	assert.Equal(t, "jura", meta.Brand)

	results, err := s.Search(ctx, []float32{0, 1, 0}, 1, Filter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)
}

func TestHNSWStore_ClearDropsEverything(t *testing.T) {
	s, err := NewHNSWStore(3)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []EmbeddingRecord{
		record("a", []float32{1, 0, 0}, "gaggia"),
		record("b", []float32{0, 1, 0}, "jura"),
	}))

	require.NoError(t, s.Clear(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 5, Filter{})
	require.NoError(t, err)
	assert.Empty(t, results)

	_, ok := s.Metadata("a")
	assert.False(t, ok)

	// The store stays usable after a clear.
	require.NoError(t, s.Add(ctx, []EmbeddingRecord{record("c", []float32{0, 0, 1}, "rocket")}))
	results, err = s.Search(ctx, []float32{0, 0, 1}, 1, Filter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].ChunkID)
}

func TestHNSWStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.hnsw")
	ctx := context.Background()

	s, err := NewHNSWStore(3)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, []EmbeddingRecord{
		record("a", []float32{1, 0, 0}, "gaggia"),
		record("b", []float32{0, 1, 0}, "jura"),
	}))
	require.NoError(t, s.Save(path))
	require.NoError(t, s.Close())

	dims, err := ReadHNSWDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 3, dims)

	loaded, err := NewHNSWStore(3)
	require.NoError(t, err)
	defer loaded.Close()
	require.NoError(t, loaded.Load(path))

	n, err := loaded.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := loaded.Search(ctx, []float32{1, 0, 0}, 1, Filter{Brand: "gaggia"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)
}

func TestReadHNSWDimensions_MissingFile(t *testing.T) {
	dims, err := ReadHNSWDimensions(filepath.Join(t.TempDir(), "nope.hnsw"))
	require.NoError(t, err)
	assert.Equal(t, 0, dims)
}
