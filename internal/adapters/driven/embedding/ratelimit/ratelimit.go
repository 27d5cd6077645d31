// Package ratelimit wraps an embedding service with a token bucket so index
// builds stay under a provider's request quota.
package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService delegates to an inner service after waiting for a token.
// Every Embed or EmbedBatch call costs one token.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap returns inner limited to requestsPerSecond. The burst size is the
// rate rounded up, with a minimum of one. A non-positive rate returns inner
// unchanged.
func Wrap(inner driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return inner
	}
	burst := int(math.Ceil(requestsPerSecond))
	return &EmbeddingService{
		EmbeddingService: inner,
		limiter:          rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1)),
	}
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}
