package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/index"
	"github.com/custodia-labs/pdfqa/internal/logger"
)

const (
	defaultEmbedBatchSize  = 16
	defaultEmbedConcurrent = 4
)

// IndexBuilder embeds chunks and builds a searchable index over them.
type IndexBuilder struct {
	embedder    driven.EmbeddingService
	batchSize   int
	concurrency int
}

// NewIndexBuilder creates a builder. A concurrency below 1 uses the default.
func NewIndexBuilder(embedder driven.EmbeddingService, concurrency int) *IndexBuilder {
	if concurrency < 1 {
		concurrency = defaultEmbedConcurrent
	}
	return &IndexBuilder{
		embedder:    embedder,
		batchSize:   defaultEmbedBatchSize,
		concurrency: concurrency,
	}
}

// Model returns the embedding model the builder uses.
func (b *IndexBuilder) Model() string {
	return b.embedder.ModelName()
}

// Build embeds every chunk and returns an index of the same size.
//
// Any embedding failure fails the whole build with domain.ErrEmbedding;
// no partial index is produced. onProgress, when non-nil, is called with
// the number of embedded chunks after each batch. opts are passed to
// index.New.
func (b *IndexBuilder) Build(
	ctx context.Context,
	chunks []domain.Chunk,
	onProgress func(done, total int),
	opts ...index.Option,
) (*index.Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrIndexBuild)
	}

	logger.Debug("Embedding %d chunks with %s (batch=%d, concurrency=%d)",
		len(chunks), b.embedder.ModelName(), b.batchSize, b.concurrency)

	vectors := make([][]float32, len(chunks))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = chunks[start+i].Content
			}
			batch, err := b.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("%w: chunks %d-%d: %w", domain.ErrEmbedding, start, end-1, err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(batch), len(texts))
			}
			copy(vectors[start:end], batch)
			n := done.Add(int64(len(texts)))
			if onProgress != nil {
				onProgress(int(n), len(chunks))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return index.New(b.embedder.ModelName(), chunks, vectors, opts...)
}
