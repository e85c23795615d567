// Package services wires the configured components into one container.
//
// A Container is built once at startup and passed by reference to
// whatever drives it (CLI commands, tests). It owns the embedding
// provider and closes it on Close. The store is loaded from disk at
// construction; if another process rebuilds the persisted artifacts
// afterwards, this container keeps serving its in-memory snapshot
// until the process restarts.
package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lastrolabs/lastro/internal/config"
	"github.com/lastrolabs/lastro/internal/embeddings"
	"github.com/lastrolabs/lastro/internal/ingest"
	"github.com/lastrolabs/lastro/internal/reranker"
	"github.com/lastrolabs/lastro/internal/retrieval"
	"github.com/lastrolabs/lastro/internal/vectorstore"
)

// Container holds the long-lived service instances.
type Container struct {
	cfg       *config.Config
	logger    *zap.Logger
	provider  embeddings.Provider
	store     *vectorstore.Store
	reranker  reranker.Reranker
	retriever *retrieval.Retriever
}

// New builds the container from configuration. The persisted store is
// loaded when its artifacts exist; a fresh data directory starts empty.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := embeddings.NewProvider(embeddings.Config{
		Provider:  cfg.Embeddings.Provider,
		Model:     cfg.Embeddings.Model,
		CacheDir:  cfg.ModelCacheDir(),
		Dimension: cfg.Embeddings.Dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	store, err := vectorstore.New(provider, vectorstore.Config{
		Compress: cfg.VectorStore.Compress,
	}, logger)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	if _, err := store.Load(cfg.StoreDir()); err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to load vector store: %w", err)
	}

	rr := reranker.NewLexicalReranker()

	retriever, err := retrieval.New(store, rr, retrieval.Options{
		InitialK:   cfg.Retrieval.InitialK,
		FinalK:     cfg.Retrieval.FinalK,
		ShowScores: cfg.Retrieval.ShowScores,
	}, logger)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	return &Container{
		cfg:       cfg,
		logger:    logger,
		provider:  provider,
		store:     store,
		reranker:  rr,
		retriever: retriever,
	}, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config { return c.cfg }

// Store returns the vector store.
func (c *Container) Store() *vectorstore.Store { return c.store }

// Retriever returns the two-stage retriever.
func (c *Container) Retriever() *retrieval.Retriever { return c.retriever }

// Ingestor returns a fresh ingestor bound to the container's store.
func (c *Container) Ingestor() *ingest.Ingestor {
	return ingest.New(c.store, ingest.DefaultBatchSize, c.logger)
}

// Close releases the embedding model and the reranker.
func (c *Container) Close() error {
	var firstErr error
	if err := c.reranker.Close(); err != nil {
		firstErr = err
	}
	if err := c.provider.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
