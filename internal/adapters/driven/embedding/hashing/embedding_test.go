package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestNewEmbeddingService(t *testing.T) {
	s := NewEmbeddingService(0)
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, "hashing-384", s.ModelName())

	s = NewEmbeddingService(64)
	assert.Equal(t, 64, s.Dimensions())
	assert.Equal(t, "hashing-64", s.ModelName())
}

func TestEmbed_DeterministicAndNormalised(t *testing.T) {
	s := NewEmbeddingService(128)

	a, err := s.Embed(context.Background(), "The quick brown fox")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "the QUICK, brown fox!")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, math.Sqrt(cosine(a, a)), 1e-6)
}

func TestEmbed_SharedWordsScoreHigher(t *testing.T) {
	s := NewEmbeddingService(DefaultDimensions)
	ctx := context.Background()

	query, err := s.Embed(ctx, "invoice payment terms")
	require.NoError(t, err)
	related, err := s.Embed(ctx, "payment terms are thirty days after the invoice date")
	require.NoError(t, err)
	unrelated, err := s.Embed(ctx, "the cat sat on a warm windowsill")
	require.NoError(t, err)

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestEmbed_EmptyText(t *testing.T) {
	s := NewEmbeddingService(16)

	vec, err := s.Embed(context.Background(), "  ...  ")

	require.NoError(t, err)
	assert.Len(t, vec, 16)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbedBatch(t *testing.T) {
	s := NewEmbeddingService(32)

	vectors, err := s.EmbedBatch(context.Background(), []string{"one", "two", "one"})

	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestEmbedBatch_Cancelled(t *testing.T) {
	s := NewEmbeddingService(32)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.EmbedBatch(ctx, []string{"one"})

	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}
