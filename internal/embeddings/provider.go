// Package embeddings provides embedding generation via multiple
// providers. All providers return unit-length (L2-normalized) vectors,
// which the index relies on to equate L2 order with cosine order.
package embeddings

import (
	"errors"
	"fmt"
	"math"

	"github.com/lastrolabs/lastro/internal/vectorstore"
)

// Sentinel errors for embedding operations.
var (
	// ErrInvalidConfig indicates an unsupported provider or model name.
	// Surfaced at construction time, never recovered internally.
	ErrInvalidConfig = errors.New("invalid embeddings configuration")

	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}

// Config holds configuration for creating an embedding provider.
type Config struct {
	// Provider is the provider type: "fastembed" (default) or "hash".
	Provider string

	// Model is the embedding model name (fastembed only).
	Model string

	// CacheDir is the model cache directory (fastembed only).
	CacheDir string

	// Dimension is the vector width for the hash provider.
	// Defaults to 384.
	Dimension int
}

// NewProvider creates an embedding provider based on the configuration.
// Unknown providers and unknown models fail fast.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "fastembed", "":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	case "hash":
		return NewHashProvider(cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// normalizeL2 scales vec to unit length in place. A zero vector is
// left unchanged.
func normalizeL2(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
