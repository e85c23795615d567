// Package vectorstore pairs an ordered document collection with a flat
// vector index and keeps the two positionally aligned.
//
// Invariant: after any mutation completes, DocumentCount() equals the
// index cardinality, and the document at position i corresponds to the
// i-th inserted vector. Save and Load preserve the pair as a unit.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/lastrolabs/lastro/internal/index"
)

// Sentinel errors for store operations.
var (
	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrEmptyQuery is returned when a search query is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidK is returned when a search is requested with k <= 0.
	ErrInvalidK = errors.New("k must be positive")
)

var tracer = otel.Tracer("lastro.vectorstore")

// Config holds store configuration.
type Config struct {
	// Compress enables gzip compression for the persisted document
	// artifact.
	Compress bool
}

// Store is the vector knowledge store: an ordered document sequence
// plus a flat squared-L2 index over the documents' embeddings.
//
// A single mutex guards mutation and persistence, so add+save form one
// critical section per instance. The persisted artifacts are not safe
// for concurrent writers across processes.
type Store struct {
	mu        sync.RWMutex
	embedder  Embedder
	index     *index.Flat // nil until the first insertion fixes the dimension
	documents []Document

	config Config
	logger *zap.Logger
}

// New creates an empty store backed by the given embedder.
func New(embedder Embedder, cfg Config, logger *zap.Logger) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		embedder: embedder,
		config:   cfg,
		logger:   logger.Named("vectorstore"),
	}, nil
}

// DocumentCount returns the number of documents in the store.
func (s *Store) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Dimension returns the embedding width fixed at first insertion, or 0
// if the store is empty and has never been loaded.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return 0
	}
	return s.index.Dimension()
}

// DocumentAt returns the document at insertion position i.
func (s *Store) DocumentAt(i int) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.documents) {
		return Document{}, false
	}
	return s.documents[i], true
}

// AddDocuments embeds and appends documents as one batch.
//
// Empty input is a no-op. All texts are encoded in a single embedder
// call. The first insertion creates the index and fixes its dimension;
// later batches whose embedding width differs (a model change after a
// reload, for instance) are rejected whole with
// index.ErrDimensionMismatch and leave the store untouched. Vectors and
// documents are appended under one lock so the pair never diverges.
//
// Returns the IDs of the added documents.
func (s *Store) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Store.AddDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return nil, nil
	}

	start := time.Now()

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
			docs[i].ID = ids[i]
		}
		texts[i] = doc.Content
	}

	s.logger.Info("generating embeddings", zap.Int("documents", len(docs)))

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d documents",
			ErrEmbeddingFailed, len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		idx, err := index.New(len(vectors[0]))
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		s.index = idx
	}

	// Add validates every row before appending anything, so a
	// dimension mismatch leaves index and documents both unchanged.
	if err := s.index.Add(vectors); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.documents = append(s.documents, docs...)

	documentsTotal.Set(float64(len(s.documents)))
	addDuration.Observe(time.Since(start).Seconds())
	span.SetStatus(codes.Ok, "")

	s.logger.Info("documents indexed",
		zap.Int("added", len(docs)),
		zap.Int("total", len(s.documents)),
	)

	return ids, nil
}

// Search embeds the query and returns up to min(k, DocumentCount())
// results ascending by distance (descending by similarity). An empty
// store yields an empty slice, never an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Store.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	s.mu.RLock()
	empty := s.index == nil || s.index.Len() == 0
	s.mu.RUnlock()
	if empty {
		return []SearchResult{}, nil
	}

	start := time.Now()

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates, err := s.index.Search(vector, k)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	results := make([]SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = SearchResult{
			Document: s.documents[c.Position],
			// cos(q,d) = 1 - d²/2 for unit vectors.
			Score:    1 - c.Distance/2,
			Distance: c.Distance,
			Position: c.Position,
		}
	}

	searchDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("results", len(results)))
	span.SetStatus(codes.Ok, "")

	s.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("results", len(results)),
	)

	return results, nil
}
