package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestHashProviderDeterministic(t *testing.T) {
	p, err := NewHashProvider(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultHashDimension, p.Dimension())

	ctx := context.Background()
	a, err := p.EmbedQuery(ctx, "Selic aumentou 0.5pp")
	require.NoError(t, err)
	b, err := p.EmbedQuery(ctx, "Selic aumentou 0.5pp")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashProviderUnitNorm(t *testing.T) {
	p, err := NewHashProvider(128)
	require.NoError(t, err)

	vectors, err := p.EmbedDocuments(context.Background(), []string{
		"Selic aumentou 0.5pp",
		"Inflação estável em 4%",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	for _, vec := range vectors {
		assert.Len(t, vec, 128)
		assert.InDelta(t, 1.0, vectorNorm(vec), 1e-5)
	}
}

func TestHashProviderTokenOverlapDrivesSimilarity(t *testing.T) {
	p, err := NewHashProvider(0)
	require.NoError(t, err)

	ctx := context.Background()
	query, err := p.EmbedQuery(ctx, "Selic")
	require.NoError(t, err)

	docs, err := p.EmbedDocuments(ctx, []string{
		"Selic aumentou 0.5pp",
		"PIB cresceu 2%",
	})
	require.NoError(t, err)

	assert.Greater(t, cosine(query, docs[0]), cosine(query, docs[1]))
}

func TestHashProviderEmptyInput(t *testing.T) {
	p, err := NewHashProvider(0)
	require.NoError(t, err)

	_, err = p.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestHashProviderCanceledContext(t *testing.T) {
	p, err := NewHashProvider(0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.EmbedDocuments(ctx, []string{"texto"})
	assert.ErrorIs(t, err, context.Canceled)
}
