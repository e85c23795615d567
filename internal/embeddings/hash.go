package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashDimension is the hash provider's vector width when none
// is configured.
const DefaultHashDimension = 384

// HashProvider is a deterministic, dependency-free embedder: each text
// becomes a unit-normalized bag-of-tokens vector where every token is
// hashed into a fixed bucket. Texts sharing tokens get proportionally
// similar vectors.
//
// It exists for offline use and tests, where downloading an ONNX model
// is not an option. It is not a semantic model.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hash embedder with the given dimension.
func NewHashProvider(dimension int) (*HashProvider, error) {
	if dimension == 0 {
		dimension = DefaultHashDimension
	}
	if dimension < 0 {
		return nil, fmt.Errorf("%w: hash dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}
	return &HashProvider{dimension: dimension}, nil
}

// EmbedDocuments generates embeddings for multiple texts in one batch.
func (p *HashProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.embed(text)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query. Queries and
// passages share the same encoding, so matching tokens align.
func (p *HashProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return p.embed(text), nil
}

// Dimension returns the configured vector width.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op; the hash provider holds no resources.
func (p *HashProvider) Close() error {
	return nil
}

func (p *HashProvider) embed(text string) []float32 {
	vec := make([]float32, p.dimension)
	for _, token := range hashTokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%uint32(p.dimension)]++
	}
	normalizeL2(vec)
	return vec
}

// hashTokens lowercases and splits on non-alphanumeric runes, dropping
// single-rune fragments.
func hashTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
