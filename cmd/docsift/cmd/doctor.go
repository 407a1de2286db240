package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/internal/search"
	"github.com/docsift/docsift/internal/store"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the configuration, indexes, and external services",
		Long: `Doctor checks each part of the retrieval stack and reports what a
failing query would otherwise surface one piece at a time: config
validity, index presence and freshness, embedder reachability, and
vector store health.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) error {
	out := output.New(os.Stdout)
	healthy := true

	cfg, err := loadConfig()
	if err != nil {
		out.Errorf("Configuration: %v", err)
		return fmt.Errorf("configuration is invalid")
	}
	out.Successf("Configuration valid (chunk_size=%d overlap=%d top_k=%d/%d top_n=%d)",
		cfg.Chunking.ChunkSize, cfg.Chunking.Overlap,
		cfg.Search.LexicalTopK, cfg.Search.SemanticTopK, cfg.Search.FusionTopN)

	catalog, err := store.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		out.Errorf("Catalog: %v", err)
		return fmt.Errorf("catalog is unusable")
	}
	defer catalog.Close()

	count, err := catalog.Count(ctx)
	switch {
	case err != nil:
		out.Errorf("Catalog: %v", err)
		healthy = false
	case count == 0:
		out.Warning("Catalog is empty; run 'docsift ingest' to build the corpus")
	default:
		brands, _ := catalog.Brands(ctx)
		out.Successf("Catalog holds %d chunks across %d brands", count, len(brands))
	}

	healthy = checkLexical(ctx, out, cfg, catalog, count) && healthy
	healthy = checkEmbedder(ctx, out, cfg, catalog) && healthy
	healthy = checkVectors(ctx, out, cfg, catalog, count) && healthy
	if healthy && count > 0 {
		healthy = checkSmokeQuery(ctx, out, cfg, catalog)
	}

	if !healthy {
		return fmt.Errorf("doctor found problems")
	}
	out.Newline()
	out.Success("All checks passed")
	return nil
}

// checkSmokeQuery runs one end-to-end query through the full stack,
// using text lifted from the corpus itself so a healthy system always
// has at least one hit. Only runs when every component check passed.
func checkSmokeQuery(ctx context.Context, out *output.Writer, cfg *config.Config, catalog *store.Catalog) bool {
	chunks, err := catalog.AllChunks(ctx)
	if err != nil || len(chunks) == 0 {
		out.Errorf("Smoke query: cannot read corpus: %v", err)
		return false
	}

	lexical, err := store.NewLexicalCache(cfg.LexicalIndexPath(), catalog).Open(ctx, store.CorpusKey(chunks))
	if err != nil {
		out.Errorf("Smoke query: %v", err)
		return false
	}
	defer lexical.Close()

	embedder, err := embed.NewFromConfig(ctx, cfg.Embeddings)
	if err != nil {
		out.Errorf("Smoke query: %v", err)
		return false
	}
	defer embedder.Close()

	vectors, err := openVectorStoreForQuery(ctx, cfg, embedder.Dimensions())
	if err != nil {
		out.Errorf("Smoke query: %v", err)
		return false
	}
	defer vectors.Close()

	engine, err := search.NewEngine(lexical, vectors, embedder, catalog, search.Options{
		LexicalTopK:  cfg.Search.LexicalTopK,
		SemanticTopK: cfg.Search.SemanticTopK,
		FusionTopN:   cfg.Search.FusionTopN,
	}, nil)
	if err != nil {
		out.Errorf("Smoke query: %v", err)
		return false
	}

	words := strings.Fields(chunks[0].Text)
	if len(words) > 5 {
		words = words[:5]
	}
	results, err := engine.Search(ctx, strings.Join(words, " "), "")
	if err != nil {
		out.Errorf("Smoke query: %v", err)
		return false
	}
	if len(results) == 0 {
		out.Error("Smoke query returned no results for text taken from the corpus")
		return false
	}
	out.Successf("Smoke query returned %d results", len(results))
	return true
}

func checkLexical(ctx context.Context, out *output.Writer, cfg *config.Config, catalog *store.Catalog, count int) bool {
	if count == 0 {
		return true
	}

	chunks, err := catalog.AllChunks(ctx)
	if err != nil {
		out.Errorf("Lexical index: %v", err)
		return false
	}

	idx, err := store.NewLexicalCache(cfg.LexicalIndexPath(), catalog).Open(ctx, store.CorpusKey(chunks))
	if err != nil {
		out.Errorf("Lexical index: %v", err)
		return false
	}
	defer idx.Close()

	n, err := idx.DocCount()
	if err != nil {
		out.Errorf("Lexical index: %v", err)
		return false
	}
	if n != count {
		out.Errorf("Lexical index holds %d documents but catalog holds %d; reingest", n, count)
		return false
	}
	out.Successf("Lexical index fresh (%d documents)", n)
	return true
}

func checkEmbedder(ctx context.Context, out *output.Writer, cfg *config.Config, catalog *store.Catalog) bool {
	embedder, err := embed.NewFromConfig(ctx, cfg.Embeddings)
	if err != nil {
		out.Errorf("Embedder: %v", err)
		return false
	}
	defer embedder.Close()

	if !embedder.Available(ctx) {
		out.Errorf("Embedder %s at %s is not reachable", cfg.Embeddings.Model, cfg.Embeddings.OllamaHost)
		return false
	}
	if err := checkEmbedderState(ctx, catalog, embedder); err != nil {
		out.Errorf("Embedder: %v", err)
		return false
	}
	out.Successf("Embedder %s available (%d dimensions)", embedder.ModelName(), embedder.Dimensions())
	return true
}

func checkVectors(ctx context.Context, out *output.Writer, cfg *config.Config, catalog *store.Catalog, count int) bool {
	if count == 0 && cfg.Vector.Backend == "hnsw" {
		return true
	}

	embedder, err := embed.NewFromConfig(ctx, cfg.Embeddings)
	if err != nil {
		out.Errorf("Vector store: %v", err)
		return false
	}
	defer embedder.Close()

	vectors, err := openVectorStoreForQuery(ctx, cfg, embedder.Dimensions())
	if err != nil {
		out.Errorf("Vector store (%s): %v", cfg.Vector.Backend, err)
		return false
	}
	defer vectors.Close()

	n, err := vectors.Count(ctx)
	if err != nil {
		out.Errorf("Vector store (%s): %v", cfg.Vector.Backend, err)
		return false
	}
	if n != count {
		out.Errorf("Vector store holds %d vectors but catalog holds %d chunks; reingest", n, count)
		return false
	}
	out.Successf("Vector store %s healthy (%d vectors)", cfg.Vector.Backend, n)
	return true
}
