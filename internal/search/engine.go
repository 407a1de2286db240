package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/chunk"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/errs"
	"github.com/docsift/docsift/internal/store"
)

// Options control how many candidates each search contributes and how
// many fused results the engine returns. Each top-k must be at least
// the fused top-n, otherwise fusion would be starved of candidates.
type Options struct {
	LexicalTopK  int
	SemanticTopK int
	FusionTopN   int
}

// Validate fails fast on option combinations that would silently
// degrade retrieval quality.
func (o Options) Validate() error {
	if o.LexicalTopK <= 0 || o.SemanticTopK <= 0 || o.FusionTopN <= 0 {
		return errs.ConfigError("search top-k and top-n values must be positive")
	}
	if o.LexicalTopK < o.FusionTopN || o.SemanticTopK < o.FusionTopN {
		return errs.ConfigError("per-search top-k must be at least the fused top-n")
	}
	return nil
}

// Result is one fused, enriched search result.
type Result struct {
	Chunk chunk.Chunk

	// Score is the RRF score this chunk fused to.
	Score float64

	// LexicalRank and SemanticRank are 1-based ranks in the underlying
	// searches, 0 when the chunk was absent from that list.
	LexicalRank  int
	SemanticRank int
}

// Engine runs hybrid retrieval: lexical and semantic search in
// parallel, RRF fusion, then enrichment from the chunk catalog.
type Engine struct {
	lexical  store.LexicalIndex
	vectors  store.VectorStore
	embedder embed.Embedder
	catalog  *store.Catalog
	opts     Options
	logger   *slog.Logger
}

// NewEngine wires an engine from its stores. The embedder is only
// invoked for the query text; corpus embedding happens at ingest time.
func NewEngine(lexical store.LexicalIndex, vectors store.VectorStore, embedder embed.Embedder, catalog *store.Catalog, opts Options, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		lexical:  lexical,
		vectors:  vectors,
		embedder: embedder,
		catalog:  catalog,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Search runs the hybrid query. brand, when non-empty, restricts the
// semantic search to chunks of that brand; the lexical search stays
// unfiltered and fusion naturally demotes off-brand lexical hits that
// the semantic list never corroborates.
//
// A blank query or an empty corpus returns an empty slice. So does a
// query that matches nothing. External service failures (embedder,
// remote vector store) propagate as errors; they are never masked as
// empty results.
func (e *Engine) Search(ctx context.Context, query string, brand string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}

	count, err := e.catalog.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		e.logger.Info("search_empty_corpus")
		return []Result{}, nil
	}

	start := time.Now()
	lexicalIDs, semanticIDs, err := e.parallelSearch(ctx, query, brand)
	if err != nil {
		return nil, err
	}

	candidates := Fuse(lexicalIDs, semanticIDs, e.opts.FusionTopN, e.chunkIndexOf(ctx, lexicalIDs, semanticIDs))

	results, err := e.enrich(ctx, candidates)
	if err != nil {
		return nil, err
	}

	e.logger.Info("search_completed",
		slog.Int("lexical_hits", len(lexicalIDs)),
		slog.Int("semantic_hits", len(semanticIDs)),
		slog.Int("fused", len(results)),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}

// parallelSearch runs both searches concurrently and returns their
// ranked ID lists. Either failure cancels and fails the whole query.
func (e *Engine) parallelSearch(ctx context.Context, query, brand string) (lexicalIDs, semanticIDs []string, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := e.lexical.Search(gctx, query, e.opts.LexicalTopK)
		if err != nil {
			return err
		}
		lexicalIDs = make([]string, len(hits))
		for i, h := range hits {
			lexicalIDs[i] = h.ChunkID
		}
		return nil
	})

	g.Go(func() error {
		vector, err := e.embedder.Embed(gctx, query)
		if err != nil {
			return err
		}
		hits, err := e.vectors.Search(gctx, vector, e.opts.SemanticTopK, store.Filter{Brand: brand})
		if err != nil {
			return err
		}
		semanticIDs = make([]string, len(hits))
		for i, h := range hits {
			semanticIDs[i] = h.ChunkID
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lexicalIDs, semanticIDs, nil
}

// chunkIndexOf builds the tie-break lookup for fusion: the catalog
// chunk index per candidate ID. Unknown IDs sort last.
func (e *Engine) chunkIndexOf(ctx context.Context, lexicalIDs, semanticIDs []string) func(string) int {
	ids := make([]string, 0, len(lexicalIDs)+len(semanticIDs))
	ids = append(ids, lexicalIDs...)
	ids = append(ids, semanticIDs...)

	chunks, err := e.catalog.GetChunks(ctx, ids)
	if err != nil {
		e.logger.Warn("tie_break_lookup_failed", slog.String("error", err.Error()))
		chunks = map[string]chunk.Chunk{}
	}

	return func(chunkID string) int {
		if ch, ok := chunks[chunkID]; ok {
			return ch.ChunkIndex
		}
		return int(^uint(0) >> 1)
	}
}

// enrich resolves fused candidates to full chunks from the catalog.
// A candidate missing from the catalog means the indexes and catalog
// diverged, which is an index corruption condition, not a normal miss.
func (e *Engine) enrich(ctx context.Context, candidates []Candidate) ([]Result, error) {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ChunkID
	}

	chunks, err := e.catalog.GetChunks(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		ch, ok := chunks[c.ChunkID]
		if !ok {
			return nil, errs.New(errs.ErrCodeIndexCorrupt,
				"indexed chunk missing from catalog, reingest the corpus", nil).
				WithDetail("chunk_id", c.ChunkID)
		}
		results = append(results, Result{
			Chunk:        ch,
			Score:        c.Score,
			LexicalRank:  c.LexicalRank,
			SemanticRank: c.SemanticRank,
		})
	}
	return results, nil
}
