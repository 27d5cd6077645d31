package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

func makeChunks(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			Content:  text,
			Metadata: domain.ChunkMetadata{Source: "A.pdf", Page: 1},
			Position: i,
		}
	}
	return chunks
}

func TestIndexBuilder_Build(t *testing.T) {
	embedder := newMockEmbedder()
	builder := NewIndexBuilder(embedder, 2)

	idx, err := builder.Build(context.Background(), makeChunks("a cat", "a dog", "a fish"), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, "mock-embed", idx.Model())
	assert.Equal(t, "mock-embed", builder.Model())
}

func TestIndexBuilder_Build_ManyBatchesKeepOrder(t *testing.T) {
	embedder := newMockEmbedder()
	builder := NewIndexBuilder(embedder, 3)

	texts := make([]string, 50)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}
	texts[37] = "the only bird"

	idx, err := builder.Build(context.Background(), makeChunks(texts...), nil)
	require.NoError(t, err)
	assert.Equal(t, 50, idx.Len())
	assert.Equal(t, int32(50), embedder.texts.Load())

	result, err := idx.Search(embedder.vector("bird"), 1)
	require.NoError(t, err)
	assert.Equal(t, "the only bird", result[0].Chunk.Content)
	assert.Equal(t, 37, result[0].Chunk.Position)
}

func TestIndexBuilder_Build_ReportsProgress(t *testing.T) {
	builder := NewIndexBuilder(newMockEmbedder(), 1)
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "fish"
	}

	var mu sync.Mutex
	var seen []int
	_, err := builder.Build(context.Background(), makeChunks(texts...), func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 40, total)
		seen = append(seen, done)
	})

	require.NoError(t, err)
	require.NotEmpty(t, seen)
	assert.Equal(t, 40, seen[len(seen)-1])
}

func TestIndexBuilder_Build_ZeroChunks(t *testing.T) {
	embedder := newMockEmbedder()
	builder := NewIndexBuilder(embedder, 0)

	idx, err := builder.Build(context.Background(), nil, nil)

	assert.Nil(t, idx)
	assert.ErrorIs(t, err, domain.ErrIndexBuild)
	assert.Equal(t, int32(0), embedder.calls.Load())
}

func TestIndexBuilder_Build_EmbeddingFailureFailsWholeBatch(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.failOn = "poison"
	builder := NewIndexBuilder(embedder, 2)

	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "cat"
	}
	texts[21] = "poison"

	idx, err := builder.Build(context.Background(), makeChunks(texts...), nil)

	assert.Nil(t, idx)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestIndexBuilder_Build_ProviderDown(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.err = errors.New("connection refused")

	_, err := NewIndexBuilder(embedder, 1).Build(context.Background(), makeChunks("cat"), nil)

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestIndexBuilder_Build_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIndexBuilder(newMockEmbedder(), 1).Build(ctx, makeChunks("cat", "dog"), nil)

	assert.ErrorIs(t, err, context.Canceled)
}
