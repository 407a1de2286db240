package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// HashEmbedder generates embeddings with a deterministic hashing scheme.
// It needs no network or model download, which makes it the offline
// fallback and the test stand-in for the real embedding provider. Quality
// is bag-of-words-ish: word hits dominate, character trigrams recover
// partial matches on model numbers and part codes.
type HashEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

// Weights for vector generation.
const (
	wordWeight    = 0.7
	trigramWeight = 0.3
	trigramSize   = 3
)

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a new hash-based embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Embed generates the embedding for a single text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, HashDimensions), nil
	}

	return normalizeVector(e.generateVector(trimmed)), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// generateVector builds the raw (unnormalized) hash vector.
func (e *HashEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, HashDimensions)

	lower := strings.ToLower(text)
	for _, word := range strings.Fields(lower) {
		vector[hashToIndex(word)] += wordWeight
	}

	compact := strings.Join(strings.Fields(lower), " ")
	for i := 0; i+trigramSize <= len(compact); i++ {
		vector[hashToIndex(compact[i:i+trigramSize])] += trigramWeight
	}

	return vector
}

// hashToIndex maps a token to a stable vector index.
func hashToIndex(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(HashDimensions))
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return HashDimensions
}

// ModelName returns the model identifier.
func (e *HashEmbedder) ModelName() string {
	return "hash-v1"
}

// Available always returns true; the hash embedder has no dependencies.
func (e *HashEmbedder) Available(ctx context.Context) bool {
	return true
}

// Close releases resources.
func (e *HashEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
