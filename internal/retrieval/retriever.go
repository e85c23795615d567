// Package retrieval composes the vector store and the reranker into
// the two-stage recall → rerank → select pipeline and its formatted
// output contract.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lastrolabs/lastro/internal/reranker"
	"github.com/lastrolabs/lastro/internal/vectorstore"
)

// NoRelevantInformation is returned by Retrieve when the selection is
// empty, instead of an empty string. Consumers hand it to the answer
// generator verbatim.
const NoRelevantInformation = "Nenhuma informação relevante encontrada nos documentos."

// Defaults for the two stages.
const (
	// DefaultInitialK is the recall-stage candidate count.
	DefaultInitialK = 20

	// DefaultFinalK is the post-rerank selection size.
	DefaultFinalK = 5
)

// ErrInvalidConfig indicates invalid retriever configuration.
var ErrInvalidConfig = errors.New("invalid retriever configuration")

// Options configures a Retriever.
type Options struct {
	// InitialK is how many candidates the recall stage fetches before
	// reranking. Defaults to DefaultInitialK.
	InitialK int

	// FinalK is the selection size used when a call passes finalK <= 0.
	// Defaults to DefaultFinalK.
	FinalK int

	// ShowScores appends the relevance score to each formatted block.
	ShowScores bool
}

// Retriever runs the two-stage retrieval pipeline. It is stateless per
// call; all state lives in the store it reads.
type Retriever struct {
	store    *vectorstore.Store
	reranker reranker.Reranker
	opts     Options
	logger   *zap.Logger
}

// New creates a Retriever over the given store and reranker.
func New(store *vectorstore.Store, rr reranker.Reranker, opts Options, logger *zap.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if rr == nil {
		return nil, fmt.Errorf("%w: reranker is required", ErrInvalidConfig)
	}
	if opts.InitialK == 0 {
		opts.InitialK = DefaultInitialK
	}
	if opts.InitialK < 0 {
		return nil, fmt.Errorf("%w: initial k must be positive, got %d", ErrInvalidConfig, opts.InitialK)
	}
	if opts.FinalK == 0 {
		opts.FinalK = DefaultFinalK
	}
	if opts.FinalK < 0 {
		return nil, fmt.Errorf("%w: final k must be positive, got %d", ErrInvalidConfig, opts.FinalK)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:    store,
		reranker: rr,
		opts:     opts,
		logger:   logger.Named("retrieval"),
	}, nil
}

// RetrieveDocuments runs recall and rerank and returns up to finalK
// scored documents, best first. finalK <= 0 uses the configured
// Options.FinalK. An empty store yields an empty slice; the reranker
// is never invoked on an empty candidate set.
func (r *Retriever) RetrieveDocuments(ctx context.Context, query string, finalK int) ([]reranker.ScoredDocument, error) {
	if finalK <= 0 {
		finalK = r.opts.FinalK
	}

	recalled, err := r.store.Search(ctx, query, r.opts.InitialK)
	if err != nil {
		return nil, fmt.Errorf("recall stage: %w", err)
	}
	if len(recalled) == 0 {
		return []reranker.ScoredDocument{}, nil
	}

	candidates := make([]reranker.Document, len(recalled))
	for i, hit := range recalled {
		candidates[i] = reranker.Document{
			ID:       hit.Document.ID,
			Content:  hit.Document.Content,
			Score:    hit.Score,
			Metadata: hit.Document.Metadata,
		}
	}

	selected, err := r.reranker.Rerank(ctx, query, candidates, finalK)
	if err != nil {
		return nil, fmt.Errorf("rerank stage: %w", err)
	}

	r.logger.Debug("retrieval completed",
		zap.String("query", query),
		zap.Int("recalled", len(recalled)),
		zap.Int("selected", len(selected)),
	)
	return selected, nil
}

// Retrieve runs the pipeline and formats the selection for a
// downstream answer generator. An empty selection yields
// NoRelevantInformation.
func (r *Retriever) Retrieve(ctx context.Context, query string, finalK int) (string, error) {
	selected, err := r.RetrieveDocuments(ctx, query, finalK)
	if err != nil {
		return "", err
	}
	return r.format(selected), nil
}

// format renders one block per document, 1-based rank, joined by blank
// lines.
func (r *Retriever) format(docs []reranker.ScoredDocument) string {
	if len(docs) == 0 {
		return NoRelevantInformation
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		source := documentSource(doc)
		page := documentPage(doc)

		var b strings.Builder
		fmt.Fprintf(&b, "--- Trecho %d ---\n", i+1)
		fmt.Fprintf(&b, "Fonte: %s (Pág. %s)\n", source, page)
		fmt.Fprintf(&b, "Conteúdo: %s", doc.Content)
		if r.opts.ShowScores {
			fmt.Fprintf(&b, "\nRelevância: %.3f", doc.RerankerScore)
		}
		blocks[i] = b.String()
	}
	return strings.Join(blocks, "\n\n")
}

func documentSource(doc reranker.ScoredDocument) string {
	if s, ok := doc.Metadata[vectorstore.MetadataSource].(string); ok && s != "" {
		return s
	}
	return "Desconhecido"
}

func documentPage(doc reranker.ScoredDocument) string {
	switch v := doc.Metadata[vectorstore.MetadataPage].(type) {
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%d", int(v))
	default:
		return "?"
	}
}
