package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (magnitude(a) * magnitude(b))
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	first, err := e.Embed(ctx, "descale the boiler")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Embed(ctx, "descale the boiler")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestHashEmbedder_DimensionsAndNormalization(t *testing.T) {
	e := NewHashEmbedder()

	vec, err := e.Embed(context.Background(), "some text to embed")
	require.NoError(t, err)
	assert.Len(t, vec, HashDimensions)
	assert.Equal(t, HashDimensions, e.Dimensions())
	assert.InDelta(t, 1.0, magnitude(vec), 1e-5)
}

func TestHashEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e := NewHashEmbedder()

	for _, text := range []string{"", "   "} {
		vec, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Len(t, vec, HashDimensions)
		assert.Zero(t, magnitude(vec))
	}
}

func TestHashEmbedder_SimilarTextsScoreHigher(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	query, err := e.Embed(ctx, "descale the boiler")
	require.NoError(t, err)
	near, err := e.Embed(ctx, "descale the boiler monthly with solution")
	require.NoError(t, err)
	far, err := e.Embed(ctx, "grinder burr replacement procedure")
	require.NoError(t, err)

	assert.Greater(t, cosine(query, near), cosine(query, far))
}

func TestHashEmbedder_BatchPreservesOrder(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	texts := []string{"alpha", "beta", "gamma"}
	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestHashEmbedder_ClosedRejectsEmbed(t *testing.T) {
	e := NewHashEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
}
