// Package ingest builds the retrieval indexes from a document source:
// chunking, batch embedding, vector and lexical indexing, and the chunk
// catalog, all under an exclusive file lock.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/docsift/docsift/internal/chunk"
	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/embed"
	"github.com/docsift/docsift/internal/errs"
	"github.com/docsift/docsift/internal/store"
)

// Stats summarizes one ingest run.
type Stats struct {
	Documents int
	Pages     int
	Chunks    int
	Brands    int
	Elapsed   time.Duration
}

// vectorSaver is implemented by vector stores that persist to a local
// file (the embedded HNSW backend). Remote backends persist themselves.
type vectorSaver interface {
	Save(path string) error
}

// Ingestor rebuilds all indexes from a document source. Runs are
// full rebuilds: partial or incremental updates are not supported, so
// an interrupted ingest is repaired by running it again.
type Ingestor struct {
	chunker   *chunk.Chunker
	embedder  embed.Embedder
	vectors   store.VectorStore
	catalog   *store.Catalog
	lexCache  *store.LexicalCache
	batchSize int

	lockPath   string
	vectorPath string // empty when the backend persists itself

	logger *slog.Logger
}

// Config wires an Ingestor.
type Config struct {
	Chunker    *chunk.Chunker
	Embedder   embed.Embedder
	Vectors    store.VectorStore
	Catalog    *store.Catalog
	LexCache   *store.LexicalCache
	BatchSize  int
	LockPath   string
	VectorPath string
	Logger     *slog.Logger
}

// New creates an Ingestor.
func New(cfg Config) (*Ingestor, error) {
	if cfg.BatchSize <= 0 {
		return nil, errs.ConfigError("embed batch size must be positive")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		chunker:    cfg.Chunker,
		embedder:   cfg.Embedder,
		vectors:    cfg.Vectors,
		catalog:    cfg.Catalog,
		lexCache:   cfg.LexCache,
		batchSize:  cfg.BatchSize,
		lockPath:   cfg.LockPath,
		vectorPath: cfg.VectorPath,
		logger:     logger,
	}, nil
}

// Run ingests all pages from source, replacing any previous corpus.
// An empty source is not an error: it leaves an empty corpus behind and
// queries against it return no results.
func (in *Ingestor) Run(ctx context.Context, source document.Source) (*Stats, error) {
	release, err := in.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	pages, err := source.Pages(ctx)
	if err != nil {
		return nil, err
	}

	chunks := in.chunker.Chunk(pages)

	in.logger.Info("ingest_started",
		slog.Int("pages", len(pages)),
		slog.Int("chunks", len(chunks)))

	if err := in.catalog.Clear(ctx); err != nil {
		return nil, err
	}
	// Vectors are cleared too: an upsert-only rebuild would keep points
	// for documents no longer in the corpus.
	if err := in.vectors.Clear(ctx); err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		// Empty corpus: record its (empty) identity so queries see a
		// consistent, valid state rather than a stale index.
		if _, err := in.lexCache.Build(ctx, store.CorpusKey(nil), nil); err != nil {
			return nil, err
		}
		if err := in.persistVectors(); err != nil {
			return nil, err
		}
		in.logger.Info("ingest_empty_corpus")
		return &Stats{Elapsed: time.Since(start)}, nil
	}

	if err := in.embedAndStore(ctx, chunks); err != nil {
		return nil, err
	}

	if err := in.catalog.SaveChunks(ctx, chunks); err != nil {
		return nil, err
	}

	corpusKey := store.CorpusKey(chunks)
	docs := make([]*store.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = &store.Document{ID: ch.ID, Content: ch.Text}
	}
	idx, err := in.lexCache.Build(ctx, corpusKey, docs)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	if err := in.recordState(ctx); err != nil {
		return nil, err
	}

	if err := in.persistVectors(); err != nil {
		return nil, err
	}

	stats := &Stats{
		Documents: countDocuments(pages),
		Pages:     len(pages),
		Chunks:    len(chunks),
		Elapsed:   time.Since(start),
	}
	if brands, err := in.catalog.Brands(ctx); err == nil {
		stats.Brands = len(brands)
	}

	in.logger.Info("ingest_completed",
		slog.Int("documents", stats.Documents),
		slog.Int("chunks", stats.Chunks),
		slog.Duration("elapsed", stats.Elapsed))

	return stats, nil
}

// embedAndStore embeds chunk text in batches and upserts the vectors.
// Batching keeps provider payloads bounded; a failed batch fails the
// run rather than leaving a silently partial vector store.
func (in *Ingestor) embedAndStore(ctx context.Context, chunks []chunk.Chunk) error {
	for lo := 0; lo < len(chunks); lo += in.batchSize {
		hi := lo + in.batchSize
		if hi > len(chunks) {
			hi = len(chunks)
		}
		batch := chunks[lo:hi]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Text
		}

		vectors, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return errs.New(errs.ErrCodeEmbedderFailed,
				"embedder returned wrong number of vectors", nil).
				WithDetail("expected", strconv.Itoa(len(batch))).
				WithDetail("got", strconv.Itoa(len(vectors)))
		}

		records := make([]store.EmbeddingRecord, len(batch))
		for i, ch := range batch {
			records[i] = store.EmbeddingRecord{
				ChunkID: ch.ID,
				Vector:  vectors[i],
				Meta: store.Meta{
					SourceDocument: ch.SourceDocument,
					PageNumber:     ch.PageNumber,
					Brand:          ch.Brand,
					ChunkIndex:     ch.ChunkIndex,
				},
			}
		}

		if err := in.vectors.Add(ctx, records); err != nil {
			return err
		}

		in.logger.Debug("ingest_batch_embedded",
			slog.Int("from", lo),
			slog.Int("to", hi))
	}
	return nil
}

// persistVectors saves a file-backed vector store to disk. Remote
// backends persist themselves and have no vector path configured.
func (in *Ingestor) persistVectors() error {
	if in.vectorPath == "" {
		return nil
	}
	saver, ok := in.vectors.(vectorSaver)
	if !ok {
		return nil
	}
	if err := saver.Save(in.vectorPath); err != nil {
		return fmt.Errorf("failed to persist vector store: %w", err)
	}
	return nil
}

// recordState stores the embedder identity so later runs can detect a
// model or dimension change before serving mismatched vectors.
func (in *Ingestor) recordState(ctx context.Context) error {
	if err := in.catalog.SetState(ctx, store.StateEmbedModel, in.embedder.ModelName()); err != nil {
		return err
	}
	return in.catalog.SetState(ctx, store.StateDimensions, strconv.Itoa(in.embedder.Dimensions()))
}

// acquireLock takes the exclusive ingest lock, failing immediately when
// another ingest holds it.
func (in *Ingestor) acquireLock() (func(), error) {
	if in.lockPath == "" {
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(in.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(in.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire ingest lock: %w", err)
	}
	if !locked {
		return nil, errs.New(errs.ErrCodeIndexLocked,
			"another ingest is already running", nil).
			WithDetail("lock_path", in.lockPath)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			in.logger.Warn("ingest_lock_release_failed", slog.String("error", err.Error()))
		}
	}, nil
}

// countDocuments counts distinct source documents across pages.
func countDocuments(pages []document.Page) int {
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		seen[p.SourceDocument] = struct{}{}
	}
	return len(seen)
}
