// Package reranker provides second-stage relevance scoring for
// retrieval candidates.
package reranker

import (
	"context"
)

// Document is a recall-stage candidate handed to the reranker.
type Document struct {
	ID       string         // Unique identifier for the document
	Content  string         // Text content to be re-ranked
	Score    float32        // Similarity score from the recall stage
	Metadata map[string]any // Source attribution, carried through for formatting
}

// ScoredDocument is a candidate with its reranking score.
type ScoredDocument struct {
	Document

	// RerankerScore is the relevance score assigned by the reranker.
	// Higher means more relevant. Scores are comparable within one
	// Rerank call only, never across queries.
	RerankerScore float32

	// OriginalRank is the candidate's position in the recall ordering
	// (0-indexed).
	OriginalRank int
}

// Reranker scores (query, candidate) pairs jointly for finer relevance
// ordering than embedding similarity alone.
type Reranker interface {
	// Rerank scores every candidate against the query and returns them
	// sorted by RerankerScore descending, truncated to topK (all when
	// topK <= 0 or topK >= len(docs)). The sort is stable: candidates
	// with equal scores keep their recall order.
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close releases any resources held by the reranker.
	Close() error
}
