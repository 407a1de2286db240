package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/internal/search"
	"github.com/docsift/docsift/internal/store"
)

// queryResult is the JSON output shape for one result.
type queryResult struct {
	ChunkID        string  `json:"chunk_id"`
	SourceDocument string  `json:"source_document"`
	PageNumber     int     `json:"page_number"`
	Brand          string  `json:"brand,omitempty"`
	Score          float64 `json:"score"`
	LexicalRank    int     `json:"lexical_rank,omitempty"`
	SemanticRank   int     `json:"semantic_rank,omitempty"`
	Text           string  `json:"text"`
}

func newQueryCmd() *cobra.Command {
	var brand string
	var topN int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a hybrid search over the ingested corpus",
		Long: `Query runs keyword and semantic search in parallel and fuses the
two ranked lists with reciprocal rank fusion. The optional brand filter
restricts semantic candidates to one product line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "), brand, topN, asJSON)
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "Restrict results to one brand")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Number of results to return (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")

	return cmd
}

func runQuery(cmd *cobra.Command, query, brand string, topN int, asJSON bool) error {
	ctx := cmd.Context()
	out := output.New(os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if topN > 0 {
		cfg.Search.FusionTopN = topN
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog, err := store.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer catalog.Close()

	embedder, err := embed.NewFromConfig(ctx, cfg.Embeddings)
	if err != nil {
		return err
	}
	defer embedder.Close()

	if err := checkEmbedderState(ctx, catalog, embedder); err != nil {
		return err
	}

	// The catalog is the source of truth for corpus identity; the
	// lexical cache only opens when it was built for this exact corpus.
	chunks, err := catalog.AllChunks(ctx)
	if err != nil {
		return err
	}
	lexical, err := store.NewLexicalCache(cfg.LexicalIndexPath(), catalog).Open(ctx, store.CorpusKey(chunks))
	if err != nil {
		return err
	}
	defer lexical.Close()

	vectors, err := openVectorStoreForQuery(ctx, cfg, embedder.Dimensions())
	if err != nil {
		return err
	}
	defer vectors.Close()

	engine, err := search.NewEngine(lexical, vectors, embedder, catalog, search.Options{
		LexicalTopK:  cfg.Search.LexicalTopK,
		SemanticTopK: cfg.Search.SemanticTopK,
		FusionTopN:   cfg.Search.FusionTopN,
	}, nil)
	if err != nil {
		return err
	}

	results, err := engine.Search(ctx, query, strings.ToLower(brand))
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(results)
	}

	if len(results) == 0 {
		out.Warning("No results")
		return nil
	}

	for i, r := range results {
		out.Result(i+1, r.Chunk.SourceDocument, r.Chunk.PageNumber, r.Score, r.Chunk.Text)
	}
	return nil
}

func printJSON(results []search.Result) error {
	payload := make([]queryResult, len(results))
	for i, r := range results {
		payload[i] = queryResult{
			ChunkID:        r.Chunk.ID,
			SourceDocument: r.Chunk.SourceDocument,
			PageNumber:     r.Chunk.PageNumber,
			Brand:          r.Chunk.Brand,
			Score:          r.Score,
			LexicalRank:    r.LexicalRank,
			SemanticRank:   r.SemanticRank,
			Text:           r.Chunk.Text,
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
