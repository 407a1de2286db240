// Package config loads and validates docsift configuration.
//
// Configuration is resolved in priority order:
//  1. DOCSIFT_* environment variables (highest)
//  2. project config (.docsift.yaml in the corpus directory or cwd)
//  3. built-in defaults
//
// A .env file in the working directory is loaded first via godotenv so the
// same environment conventions work in development and deployment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/docsift/docsift/internal/errs"
)

// ConfigFileName is the per-project configuration file name.
const ConfigFileName = ".docsift.yaml"

// RRFConstant is the reciprocal rank fusion smoothing parameter (k).
// Fixed at 60, the empirically validated standard; not configurable.
const RRFConstant = 60

// Config is the complete docsift configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Vector     VectorConfig     `yaml:"vector"`
	LogLevel   string           `yaml:"log_level"`
}

// PathsConfig configures on-disk locations for derived indices.
type PathsConfig struct {
	// DataDir holds the lexical index, local vector store, and catalog.
	// Defaults to ".docsift" under the working directory.
	DataDir string `yaml:"data_dir"`
}

// ChunkingConfig configures the chunker.
type ChunkingConfig struct {
	// ChunkSize is the window size in tokens.
	ChunkSize int `yaml:"chunk_size"`
	// Overlap is the number of tokens shared between consecutive chunks.
	// Must be strictly less than ChunkSize.
	Overlap int `yaml:"overlap"`
}

// SearchConfig configures per-query candidate generation and fusion.
type SearchConfig struct {
	// LexicalTopK is the number of keyword candidates fed into fusion.
	LexicalTopK int `yaml:"lexical_top_k"`
	// SemanticTopK is the number of vector candidates fed into fusion.
	SemanticTopK int `yaml:"semantic_top_k"`
	// FusionTopN is the number of fused results returned to the caller.
	// Both top_k values must be >= FusionTopN.
	FusionTopN int `yaml:"fusion_top_n"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedding backend: "ollama" or "hash".
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions is the embedding dimension; 0 auto-detects from the provider.
	Dimensions int `yaml:"dimensions"`
	// BatchSize is the number of chunks embedded per provider call.
	BatchSize int `yaml:"batch_size"`
	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`
	// CacheSize is the query-embedding LRU cache size.
	CacheSize int `yaml:"cache_size"`
}

// VectorConfig configures the vector store backend.
type VectorConfig struct {
	// Backend selects the vector store: "hnsw" (local) or "qdrant" (remote).
	Backend string `yaml:"backend"`
	// QdrantHost and QdrantPort locate the qdrant gRPC endpoint.
	QdrantHost string `yaml:"qdrant_host"`
	QdrantPort int    `yaml:"qdrant_port"`
	// Collection is the qdrant collection name.
	Collection string `yaml:"collection"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir: ".docsift",
		},
		Chunking: ChunkingConfig{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Search: SearchConfig{
			LexicalTopK:  20,
			SemanticTopK: 20,
			FusionTopN:   5,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			BatchSize:  100,
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
		},
		Vector: VectorConfig{
			Backend:    "hnsw",
			QdrantHost: "localhost",
			QdrantPort: 6334,
			Collection: "docsift_chunks",
		},
		LogLevel: "info",
	}
}

// Load resolves configuration from defaults, an optional YAML file in dir,
// and DOCSIFT_* environment variables. The returned config is validated.
func Load(dir string) (*Config, error) {
	// Ignore a missing .env; it is a development convenience only.
	_ = godotenv.Load()

	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrCodeConfigInvalid,
				fmt.Errorf("parse %s: %w", path, err))
		}
	} else if !os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeConfigNotFound, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration from DOCSIFT_* environment variables.
func (c *Config) applyEnv() {
	envString("DOCSIFT_DATA_DIR", &c.Paths.DataDir)
	envInt("DOCSIFT_CHUNK_SIZE", &c.Chunking.ChunkSize)
	envInt("DOCSIFT_CHUNK_OVERLAP", &c.Chunking.Overlap)
	envInt("DOCSIFT_LEXICAL_TOP_K", &c.Search.LexicalTopK)
	envInt("DOCSIFT_SEMANTIC_TOP_K", &c.Search.SemanticTopK)
	envInt("DOCSIFT_FUSION_TOP_N", &c.Search.FusionTopN)
	envString("DOCSIFT_EMBED_PROVIDER", &c.Embeddings.Provider)
	envString("DOCSIFT_EMBED_MODEL", &c.Embeddings.Model)
	envInt("DOCSIFT_EMBED_BATCH_SIZE", &c.Embeddings.BatchSize)
	envString("DOCSIFT_OLLAMA_HOST", &c.Embeddings.OllamaHost)
	envString("DOCSIFT_VECTOR_BACKEND", &c.Vector.Backend)
	envString("DOCSIFT_QDRANT_HOST", &c.Vector.QdrantHost)
	envInt("DOCSIFT_QDRANT_PORT", &c.Vector.QdrantPort)
	envString("DOCSIFT_COLLECTION", &c.Vector.Collection)
	envString("DOCSIFT_LOG_LEVEL", &c.LogLevel)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the configuration and fails fast on invalid values.
// Invalid parameters are never silently clamped.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return errs.ConfigError(fmt.Sprintf("chunk_size must be positive, got %d", c.Chunking.ChunkSize))
	}
	if c.Chunking.Overlap < 0 {
		return errs.ConfigError(fmt.Sprintf("overlap must be non-negative, got %d", c.Chunking.Overlap))
	}
	if c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return errs.ConfigError(fmt.Sprintf("overlap (%d) must be less than chunk_size (%d)",
			c.Chunking.Overlap, c.Chunking.ChunkSize))
	}
	if c.Search.FusionTopN <= 0 {
		return errs.ConfigError(fmt.Sprintf("fusion_top_n must be positive, got %d", c.Search.FusionTopN))
	}
	if c.Search.LexicalTopK < c.Search.FusionTopN {
		return errs.ConfigError(fmt.Sprintf("lexical_top_k (%d) must be >= fusion_top_n (%d)",
			c.Search.LexicalTopK, c.Search.FusionTopN))
	}
	if c.Search.SemanticTopK < c.Search.FusionTopN {
		return errs.ConfigError(fmt.Sprintf("semantic_top_k (%d) must be >= fusion_top_n (%d)",
			c.Search.SemanticTopK, c.Search.FusionTopN))
	}
	if c.Embeddings.BatchSize <= 0 {
		return errs.ConfigError(fmt.Sprintf("embed batch_size must be positive, got %d", c.Embeddings.BatchSize))
	}
	switch c.Embeddings.Provider {
	case "ollama", "hash":
	default:
		return errs.ConfigError(fmt.Sprintf("embeddings.provider must be 'ollama' or 'hash', got %q", c.Embeddings.Provider))
	}
	switch c.Vector.Backend {
	case "hnsw", "qdrant":
	default:
		return errs.ConfigError(fmt.Sprintf("vector.backend must be 'hnsw' or 'qdrant', got %q", c.Vector.Backend))
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LexicalIndexPath returns the on-disk path of the bleve index.
func (c *Config) LexicalIndexPath() string {
	return filepath.Join(c.Paths.DataDir, "lexical.bleve")
}

// VectorStorePath returns the on-disk path of the local vector store.
func (c *Config) VectorStorePath() string {
	return filepath.Join(c.Paths.DataDir, "vectors.hnsw")
}

// CatalogPath returns the on-disk path of the chunk catalog.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the path of the ingest lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "ingest.lock")
}
