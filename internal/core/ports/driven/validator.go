package driven

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// AIConfigValidator checks that provider settings reach a working service.
type AIConfigValidator interface {
	// ValidateEmbedding creates the embedding service and pings it.
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error

	// ValidateGeneration creates the generation service and pings it.
	ValidateGeneration(ctx context.Context, settings *domain.GenerationSettings) error
}
