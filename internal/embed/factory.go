package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/internal/config"
)

// NewFromConfig constructs the embedding provider selected by cfg and
// wraps it with the LRU cache. The "hash" provider is the offline path;
// "ollama" talks to a local or remote Ollama instance.
func NewFromConfig(ctx context.Context, cfg config.EmbeddingsConfig) (Embedder, error) {
	var inner Embedder

	switch cfg.Provider {
	case "hash":
		inner = NewHashEmbedder()

	case "ollama":
		embedder, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    DefaultTimeout,
		})
		if err != nil {
			return nil, err
		}
		inner = embedder

	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}

	slog.Debug("embedder_created",
		slog.String("provider", cfg.Provider),
		slog.String("model", inner.ModelName()),
		slog.Int("dimensions", inner.Dimensions()))

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
