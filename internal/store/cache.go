package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/docsift/docsift/internal/chunk"
	"github.com/docsift/docsift/internal/errs"
)

// CorpusKey computes the corpus identity key: a sha256 digest over the
// sorted chunk IDs and their text. Any change to the corpus (content,
// chunking parameters, document set) changes the key, which invalidates
// cached indexes built for the previous corpus.
func CorpusKey(chunks []chunk.Chunk) string {
	ids := make([]string, len(chunks))
	texts := make(map[string]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
		texts[ch.ID] = ch.Text
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
		h.Write([]byte(texts[id]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LexicalCache manages the persisted lexical index, keyed by the corpus
// identity. Open validates the stored key before handing out the index;
// Build replaces the index contents and records the new key. The key is
// always passed in explicitly so staleness is decided by the caller's
// view of the corpus, never by file timestamps.
type LexicalCache struct {
	path    string
	catalog *Catalog
}

// NewLexicalCache creates a cache over the index at path, with key
// bookkeeping in catalog. An empty path keeps the index in memory.
func NewLexicalCache(path string, catalog *Catalog) *LexicalCache {
	return &LexicalCache{path: path, catalog: catalog}
}

// Open returns the cached index if it was built for corpusKey.
// A missing or mismatched key yields ErrCodeIndexStale; the caller
// rebuilds with Build.
func (c *LexicalCache) Open(ctx context.Context, corpusKey string) (*BleveIndex, error) {
	stored, err := c.catalog.GetState(ctx, StateCorpusKey)
	if err != nil {
		return nil, err
	}
	if stored == "" || stored != corpusKey {
		return nil, errs.New(errs.ErrCodeIndexStale,
			"lexical index does not match the current corpus, rebuild required", nil).
			WithDetail("stored_key", stored).
			WithDetail("corpus_key", corpusKey)
	}

	return NewBleveIndex(c.path)
}

// Build (re)builds the index from docs and records corpusKey as the
// index identity. Existing contents are cleared first so the index
// never mixes two corpus generations.
func (c *LexicalCache) Build(ctx context.Context, corpusKey string, docs []*Document) (*BleveIndex, error) {
	idx, err := NewBleveIndex(c.path)
	if err != nil {
		return nil, err
	}

	if n, err := idx.DocCount(); err == nil && n > 0 {
		if err := idx.Clear(ctx); err != nil {
			idx.Close()
			return nil, err
		}
	}

	if err := idx.Index(ctx, docs); err != nil {
		idx.Close()
		return nil, err
	}

	if err := c.catalog.SetState(ctx, StateCorpusKey, corpusKey); err != nil {
		idx.Close()
		return nil, err
	}

	return idx, nil
}
