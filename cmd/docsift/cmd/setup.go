package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/errs"
	"github.com/docsift/docsift/internal/store"
)

// loadConfig resolves configuration for the current working directory
// and applies CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.Paths.DataDir = flagDataDir
	}
	return cfg, nil
}

// openVectorStoreForIngest builds a vector store sized for the embedder.
// Ingest is a full rebuild: the ingestor clears the store before
// repopulating it, so stale points never outlive their documents.
func openVectorStoreForIngest(ctx context.Context, cfg *config.Config, dimensions int) (store.VectorStore, error) {
	switch cfg.Vector.Backend {
	case "hnsw":
		return store.NewHNSWStore(dimensions)
	case "qdrant":
		return store.NewQdrantStore(ctx, cfg.Vector.QdrantHost, cfg.Vector.QdrantPort, cfg.Vector.Collection, dimensions)
	default:
		return nil, errs.ConfigError(fmt.Sprintf("unknown vector backend %q", cfg.Vector.Backend))
	}
}

// openVectorStoreForQuery opens the existing vector store. A missing
// local store means nothing was ingested yet.
func openVectorStoreForQuery(ctx context.Context, cfg *config.Config, dimensions int) (store.VectorStore, error) {
	switch cfg.Vector.Backend {
	case "hnsw":
		path := cfg.VectorStorePath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, errs.New(errs.ErrCodeCorpusNotFound,
				"no vector store found, run 'docsift ingest' first", nil).
				WithDetail("path", path)
		}
		s, err := store.NewHNSWStore(dimensions)
		if err != nil {
			return nil, err
		}
		if err := s.Load(path); err != nil {
			return nil, errs.Wrap(errs.ErrCodeIndexCorrupt, err)
		}
		return s, nil
	case "qdrant":
		return store.NewQdrantStore(ctx, cfg.Vector.QdrantHost, cfg.Vector.QdrantPort, cfg.Vector.Collection, dimensions)
	default:
		return nil, errs.ConfigError(fmt.Sprintf("unknown vector backend %q", cfg.Vector.Backend))
	}
}

// checkEmbedderState verifies the configured embedder matches the one
// the corpus was ingested with. A mismatch is surfaced immediately
// instead of serving vectors from a different geometry.
func checkEmbedderState(ctx context.Context, catalog *store.Catalog, embedder embed.Embedder) error {
	storedDims, err := catalog.GetState(ctx, store.StateDimensions)
	if err != nil {
		return err
	}
	if storedDims == "" {
		return nil // nothing ingested yet
	}

	dims, err := strconv.Atoi(storedDims)
	if err != nil {
		return errs.Wrap(errs.ErrCodeIndexCorrupt, fmt.Errorf("stored dimensions %q: %w", storedDims, err))
	}
	if dims != embedder.Dimensions() {
		return errs.New(errs.ErrCodeDimensionMismatch,
			"corpus was embedded with a different dimensionality, reingest with the current embedder", nil).
			WithDetail("stored", storedDims).
			WithDetail("embedder", strconv.Itoa(embedder.Dimensions()))
	}

	storedModel, err := catalog.GetState(ctx, store.StateEmbedModel)
	if err != nil {
		return err
	}
	if storedModel != "" && storedModel != embedder.ModelName() {
		return errs.New(errs.ErrCodeDimensionMismatch,
			"corpus was embedded with a different model, reingest with the current embedder", nil).
			WithDetail("stored", storedModel).
			WithDetail("embedder", embedder.ModelName())
	}
	return nil
}
