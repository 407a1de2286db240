package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/chunk"
	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/ingest"
	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/internal/store"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <directory>",
		Short: "Ingest documents and build the retrieval indexes",
		Long: `Ingest reads plain-text documents from a directory, chunks them,
embeds the chunks, and rebuilds all indexes. Ingest is a full rebuild:
rerun it after any change to the documents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0])
		},
	}
	return cmd
}

func runIngest(cmd *cobra.Command, dir string) error {
	ctx := cmd.Context()
	out := output.New(os.Stdout)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("document directory %q does not exist", dir)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	chunker, err := chunk.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}

	embedder, err := embed.NewFromConfig(ctx, cfg.Embeddings)
	if err != nil {
		return err
	}
	defer embedder.Close()

	vectors, err := openVectorStoreForIngest(ctx, cfg, embedder.Dimensions())
	if err != nil {
		return err
	}
	defer vectors.Close()

	catalog, err := store.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer catalog.Close()

	vectorPath := ""
	if cfg.Vector.Backend == "hnsw" {
		vectorPath = cfg.VectorStorePath()
	}

	ingestor, err := ingest.New(ingest.Config{
		Chunker:    chunker,
		Embedder:   embedder,
		Vectors:    vectors,
		Catalog:    catalog,
		LexCache:   store.NewLexicalCache(cfg.LexicalIndexPath(), catalog),
		BatchSize:  cfg.Embeddings.BatchSize,
		LockPath:   cfg.LockPath(),
		VectorPath: vectorPath,
	})
	if err != nil {
		return err
	}

	out.Statusf("📄", "Ingesting documents from %s", dir)

	stats, err := ingestor.Run(ctx, document.NewFSSource(dir))
	if err != nil {
		return err
	}

	if stats.Chunks == 0 {
		out.Warning("No documents found; corpus is empty")
		return nil
	}

	out.Successf("Ingested %d documents (%d pages, %d chunks, %d brands) in %s",
		stats.Documents, stats.Pages, stats.Chunks, stats.Brands, stats.Elapsed.Round(time.Millisecond))
	return nil
}
