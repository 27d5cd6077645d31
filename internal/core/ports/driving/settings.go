package driving

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings with defaults and environment overrides
	// applied. Invalid chunking settings fail with domain.ErrConfig.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses and stores a single dot-notation key.
	Set(key, value string) error

	// Keys lists the settable keys.
	Keys() []string

	// Value returns the effective value of a dot-notation key.
	Value(key string) (string, error)

	// IsSecret reports whether a key holds a credential.
	IsSecret(key string) bool

	// SetChunking updates chunk size and overlap after validating them.
	SetChunking(size, overlap int) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetGeneration configures the generation endpoint.
	SetGeneration(baseURL, model, apiKey string) error

	// Validate checks the stored settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateGenerationConfig pings the configured generation endpoint.
	ValidateGenerationConfig(ctx context.Context) error
}
