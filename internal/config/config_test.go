package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 20, cfg.Search.LexicalTopK)
	assert.Equal(t, 20, cfg.Search.SemanticTopK)
	assert.Equal(t, 5, cfg.Search.FusionTopN)
	assert.Equal(t, 100, cfg.Embeddings.BatchSize)
	assert.Equal(t, "hnsw", cfg.Vector.Backend)

	require.NoError(t, cfg.Validate())
}

func TestValidate_FailsFast(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals chunk size", func(c *Config) { c.Chunking.Overlap = c.Chunking.ChunkSize }},
		{"overlap exceeds chunk size", func(c *Config) { c.Chunking.Overlap = c.Chunking.ChunkSize + 1 }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }},
		{"zero chunk size", func(c *Config) { c.Chunking.ChunkSize = 0 }},
		{"lexical top_k below top_n", func(c *Config) { c.Search.LexicalTopK = 3 }},
		{"semantic top_k below top_n", func(c *Config) { c.Search.SemanticTopK = 3 }},
		{"zero top_n", func(c *Config) { c.Search.FusionTopN = 0 }},
		{"zero batch size", func(c *Config) { c.Embeddings.BatchSize = 0 }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }},
		{"unknown backend", func(c *Config) { c.Vector.Backend = "chroma" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
chunking:
  chunk_size: 500
  overlap: 50
search:
  fusion_top_n: 3
embeddings:
  provider: hash
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, 3, cfg.Search.FusionTopN)
	assert.Equal(t, "hash", cfg.Embeddings.Provider)
	// Untouched values keep their defaults.
	assert.Equal(t, 20, cfg.Search.LexicalTopK)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
		[]byte("chunking:\n  chunk_size: 500\n"), 0o644))
	t.Setenv("DOCSIFT_CHUNK_SIZE", "800")
	t.Setenv("DOCSIFT_EMBED_PROVIDER", "hash")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, "hash", cfg.Embeddings.Provider)
}

func TestLoad_InvalidConfigFailsNotClamps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
		[]byte("chunking:\n  chunk_size: 100\n  overlap: 100\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestPathHelpers(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/tmp/data"

	assert.Equal(t, "/tmp/data/lexical.bleve", cfg.LexicalIndexPath())
	assert.Equal(t, "/tmp/data/vectors.hnsw", cfg.VectorStorePath())
	assert.Equal(t, "/tmp/data/catalog.db", cfg.CatalogPath())
	assert.Equal(t, "/tmp/data/ingest.lock", cfg.LockPath())
}
