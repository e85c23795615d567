// Package config provides configuration loading for lastro.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lastrolabs/lastro/internal/logging"
)

// ErrInvalidConfig indicates a configuration value that fails
// validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration.
type Config struct {
	// DataDir is the base directory for all persisted state.
	DataDir string `koanf:"data_dir"`

	VectorStore VectorStoreConfig `koanf:"vector_store"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Logging     logging.Config    `koanf:"logging"`
}

// VectorStoreConfig configures the store and its persistence.
type VectorStoreConfig struct {
	// Dir is the persisted-store directory. Defaults to
	// <data_dir>/vector_store when empty.
	Dir string `koanf:"dir"`

	// Compress enables gzip compression of the document artifact.
	Compress bool `koanf:"compress"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (default) or "hash".
	Provider string `koanf:"provider"`

	// Model is the fastembed model name.
	Model string `koanf:"model"`

	// CacheDir is the model cache directory. Defaults to
	// <data_dir>/models when empty.
	CacheDir string `koanf:"cache_dir"`

	// Dimension is the hash provider's vector width.
	Dimension int `koanf:"dimension"`
}

// RetrievalConfig configures the two-stage pipeline.
type RetrievalConfig struct {
	// InitialK is the recall-stage candidate count.
	InitialK int `koanf:"initial_k"`

	// FinalK is the default post-rerank selection size.
	FinalK int `koanf:"final_k"`

	// ShowScores includes relevance scores in formatted output.
	ShowScores bool `koanf:"show_scores"`
}

// NewDefaultConfig returns the hardcoded defaults before file and env
// overrides apply.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Embeddings: EmbeddingsConfig{
			Provider: "fastembed",
			Model:    "BAAI/bge-small-en-v1.5",
		},
		Retrieval: RetrievalConfig{
			InitialK: 20,
			FinalK:   5,
		},
		Logging: logging.NewDefaultConfig(),
	}
}

// StoreDir resolves the persisted-store directory.
func (c *Config) StoreDir() string {
	if c.VectorStore.Dir != "" {
		return c.VectorStore.Dir
	}
	return filepath.Join(c.DataDir, "vector_store")
}

// ModelCacheDir resolves the embedding-model cache directory.
func (c *Config) ModelCacheDir() string {
	if c.Embeddings.CacheDir != "" {
		return c.Embeddings.CacheDir
	}
	return filepath.Join(c.DataDir, "models")
}

// Validate checks the configuration, failing fast on values the
// services would otherwise choke on later.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir cannot be empty", ErrInvalidConfig)
	}
	if c.Retrieval.InitialK <= 0 {
		return fmt.Errorf("%w: retrieval.initial_k must be positive, got %d", ErrInvalidConfig, c.Retrieval.InitialK)
	}
	if c.Retrieval.FinalK <= 0 {
		return fmt.Errorf("%w: retrieval.final_k must be positive, got %d", ErrInvalidConfig, c.Retrieval.FinalK)
	}
	if c.Embeddings.Dimension < 0 {
		return fmt.Errorf("%w: embeddings.dimension cannot be negative, got %d", ErrInvalidConfig, c.Embeddings.Dimension)
	}
	return nil
}
