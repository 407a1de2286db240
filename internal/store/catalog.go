package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/docsift/docsift/internal/chunk"
)

// Catalog is the SQLite-backed chunk catalog. It holds the full text and
// provenance of every ingested chunk, keyed by chunk ID, plus a small
// state table used for index/cache bookkeeping (corpus key, embedder
// model, vector dimensions).
type Catalog struct {
	mu sync.RWMutex
	db *sql.DB
}

// State keys stored in the catalog.
const (
	StateCorpusKey  = "corpus_key"
	StateEmbedModel = "embed_model"
	StateDimensions = "dimensions"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id              TEXT PRIMARY KEY,
	text            TEXT NOT NULL,
	source_document TEXT NOT NULL,
	page_number     INTEGER NOT NULL,
	brand           TEXT NOT NULL,
	chunk_index     INTEGER NOT NULL,
	token_count     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_brand ON chunks(brand);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_document);

CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// OpenCatalog opens (or creates) the catalog database at path.
// An empty path opens an in-memory database (used in tests).
func OpenCatalog(path string) (*Catalog, error) {
	dsn := path
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params
	// are not honored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	if path == "" {
		pragmas = pragmas[1:] // WAL is meaningless in memory
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// SaveChunks upserts chunks in a single transaction.
func (c *Catalog) SaveChunks(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, text, source_document, page_number, brand, chunk_index, token_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			source_document = excluded.source_document,
			page_number = excluded.page_number,
			brand = excluded.brand,
			chunk_index = excluded.chunk_index,
			token_count = excluded.token_count`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chunks {
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.Text, ch.SourceDocument, ch.PageNumber, ch.Brand, ch.ChunkIndex, ch.TokenCount); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", ch.ID, err)
		}
	}

	return tx.Commit()
}

// GetChunks returns the chunks for the given IDs. Missing IDs are
// silently skipped; the caller decides whether that is an error.
// Results are keyed by chunk ID.
func (c *Catalog) GetChunks(ctx context.Context, ids []string) (map[string]chunk.Chunk, error) {
	result := make(map[string]chunk.Chunk, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, text, source_document, page_number, brand, chunk_index, token_count
		FROM chunks WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ch chunk.Chunk
		if err := rows.Scan(&ch.ID, &ch.Text, &ch.SourceDocument, &ch.PageNumber, &ch.Brand, &ch.ChunkIndex, &ch.TokenCount); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		result[ch.ID] = ch
	}

	return result, rows.Err()
}

// AllChunks returns every chunk ordered by source document and chunk
// index. Used to rebuild the lexical index and compute the corpus key.
func (c *Catalog) AllChunks(ctx context.Context) ([]chunk.Chunk, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, text, source_document, page_number, brand, chunk_index, token_count
		FROM chunks ORDER BY source_document, chunk_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []chunk.Chunk
	for rows.Next() {
		var ch chunk.Chunk
		if err := rows.Scan(&ch.ID, &ch.Text, &ch.SourceDocument, &ch.PageNumber, &ch.Brand, &ch.ChunkIndex, &ch.TokenCount); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, ch)
	}

	return chunks, rows.Err()
}

// Count returns the number of cataloged chunks.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// Brands returns the distinct brand tags present in the corpus, sorted.
func (c *Catalog) Brands(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT brand FROM chunks WHERE brand != '' ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}

	return brands, rows.Err()
}

// Clear removes all chunks. State entries survive; the caller updates
// them after reingesting.
func (c *Catalog) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	return nil
}

// GetState reads a state value. Returns "" when the key is unset.
func (c *Catalog) GetState(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return value, nil
}

// SetState writes a state value.
func (c *Catalog) SetState(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Close()
}
