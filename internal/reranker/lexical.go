package reranker

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// Weight of the recall-stage score versus query/document term overlap
// in the combined relevance score.
const (
	recallWeight  = 0.5
	overlapWeight = 0.5
)

// LexicalReranker scores candidates by term overlap with the query,
// blended with the recall-stage similarity. It is the default reranker:
// cheap, deterministic, and good at separating candidates whose
// embedding similarities are close.
type LexicalReranker struct{}

// NewLexicalReranker creates a LexicalReranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Rerank scores each candidate and returns them sorted by score
// descending, stable on the recall order, truncated to topK.
func (r *LexicalReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	queryTokens := tokenize(query)

	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		var score float32
		if len(queryTokens) == 0 {
			// Nothing to match on; fall back to the recall ordering.
			score = doc.Score
		} else {
			overlap := termOverlap(queryTokens, tokenize(doc.Content))
			score = recallWeight*doc.Score + overlapWeight*overlap
		}
		scored[i] = ScoredDocument{
			Document:      doc,
			RerankerScore: score,
			OriginalRank:  i,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankerScore > scored[j].RerankerScore
	})

	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// Close is a no-op; the lexical reranker holds no resources.
func (r *LexicalReranker) Close() error {
	return nil
}

// termOverlap returns the fraction of query terms present in the
// document, in [0, 1].
func termOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0
	}

	docSet := make(map[string]struct{}, len(docTokens))
	for _, t := range docTokens {
		docSet[t] = struct{}{}
	}

	matched := 0
	for _, t := range queryTokens {
		if _, ok := docSet[t]; ok {
			matched++
		}
	}
	return float32(matched) / float32(len(queryTokens))
}

// tokenize lowercases, splits on non-alphanumeric runes, and drops
// stopwords and fragments shorter than two runes.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// stopwords covers Portuguese (the corpus language) plus common
// English function words.
var stopwords = map[string]bool{
	// Portuguese
	"de": true, "do": true, "da": true, "dos": true, "das": true,
	"em": true, "no": true, "na": true, "nos": true, "nas": true,
	"um": true, "uma": true, "os": true, "as": true, "ao": true,
	"que": true, "para": true, "por": true, "com": true, "como": true,
	"mais": true, "mas": true, "ou": true, "se": true, "seu": true,
	"sua": true, "foi": true, "ser": true, "são": true, "está": true,
	"entre": true, "sobre": true, "também": true, "não": true,
	// English
	"the": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "from": true,
	"is": true, "was": true, "are": true, "be": true, "been": true,
	"this": true, "that": true, "these": true, "those": true,
	"what": true, "which": true, "when": true, "where": true, "how": true,
}
