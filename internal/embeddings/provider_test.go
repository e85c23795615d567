package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderUnknownProvider(t *testing.T) {
	_, err := NewProvider(Config{Provider: "sentence-transformers"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewProviderHash(t *testing.T) {
	p, err := NewProvider(Config{Provider: "hash", Dimension: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, 64, p.Dimension())
}

func TestFastEmbedRejectsUnknownModel(t *testing.T) {
	// Construction must fail fast before any model download starts.
	_, err := NewFastEmbedProvider(FastEmbedConfig{Model: "no-such/model"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNormalizeL2(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{name: "already unit", in: []float32{1, 0}, want: []float32{1, 0}},
		{name: "scales down", in: []float32{3, 4}, want: []float32{0.6, 0.8}},
		{name: "zero vector unchanged", in: []float32{0, 0}, want: []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := append([]float32(nil), tt.in...)
			normalizeL2(vec)
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], vec[i], 1e-6)
			}
		})
	}
}
