// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfqa/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/pdfqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/pdfqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/embedding/ratelimit"
	openaillm "github.com/custodia-labs/pdfqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services built from application settings.
type InitResult struct {
	EmbeddingService  driven.EmbeddingService
	GenerationService driven.GenerationService
	Warnings          []string // Non-fatal issues, such as generation being unconfigured.
}

// Init creates the embedding service and, when configured, the generation
// service. Only an unusable embedding configuration is an error.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'pdfqa settings set embedding.provider <name>' to fix",
			domain.ErrConfig, err)
	}

	result := &InitResult{EmbeddingService: embedder}
	result.GenerationService = CreateGenerationService(&settings.Generation)
	if result.GenerationService == nil {
		result.Warnings = append(result.Warnings,
			"generation endpoint not configured; questions cannot be answered")
	}
	return result, nil
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.GenerationService != nil {
		_ = r.GenerationService.Close()
	}
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Nil settings or an empty provider select the offline hashing embedder.
// A positive RateLimit wraps the service in a token bucket.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		settings = &domain.EmbeddingSettings{Provider: domain.AIProviderHashing}
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderHashing, "":
		svc = hashing.NewEmbeddingService(settings.Dimensions)

	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderOpenAI:
		openai, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		svc = openai

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	return ratelimit.Wrap(svc, settings.RateLimit), nil
}

// CreateGenerationService creates a generation service for an
// OpenAI-compatible endpoint. Returns nil when no endpoint is configured.
func CreateGenerationService(settings *domain.GenerationSettings) driven.GenerationService {
	if settings == nil || settings.BaseURL == "" {
		return nil
	}

	return openaillm.NewGenerationService(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'pdfqa settings list' to review", domain.ErrEmbedding, err)
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'pdfqa settings list' to review",
			domain.ErrEmbedding, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	if settings == nil {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	return ping(ctx, svc.Ping)
}

// ValidateGenerationConfig validates a generation configuration by pinging the endpoint.
// An unconfigured endpoint has nothing to validate.
func ValidateGenerationConfig(ctx context.Context, settings *domain.GenerationSettings) error {
	svc := CreateGenerationService(settings)
	if svc == nil {
		return nil
	}
	defer func() { _ = svc.Close() }()

	return ping(ctx, svc.Ping)
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}
