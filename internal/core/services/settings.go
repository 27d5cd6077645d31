package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyRetrievalK      = "retrieval.k"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedConcurrent = "embedding.concurrency"
	keyEmbedRateLimit  = "embedding.rate_limit"
	keyGenBaseURL      = "generation.base_url"
	keyGenModel        = "generation.model"
	keyGenAPIKey       = "generation.api_key"
	keyGenTemperature  = "generation.temperature"
	keyGenMaxTokens    = "generation.max_tokens"
	keyStorageBackend  = "storage.backend"
	keyStorageDir      = "storage.dir"
	keyRedisAddr       = "storage.redis_addr"
	keyRedisPassword   = "storage.redis_password"
	keyRedisDB         = "storage.redis_db"
)

// Environment variables that override stored secrets.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvEmbeddingAPIKey  = "PDFQA_EMBEDDING_API_KEY"
	EnvGenerationAPIKey = "PDFQA_GENERATION_API_KEY"
	EnvRedisPassword    = "PDFQA_REDIS_PASSWORD"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
)

// settableKeys maps every key accepted by Set to its value type.
var settableKeys = map[string]keyKind{
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyRetrievalK:      kindInt,
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedDims:       kindInt,
	keyEmbedConcurrent: kindInt,
	keyEmbedRateLimit:  kindFloat,
	keyGenBaseURL:      kindString,
	keyGenModel:        kindString,
	keyGenAPIKey:       kindString,
	keyGenTemperature:  kindFloat,
	keyGenMaxTokens:    kindInt,
	keyStorageBackend:  kindString,
	keyStorageDir:      kindString,
	keyRedisAddr:       kindString,
	keyRedisPassword:   kindString,
	keyRedisDB:         kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// aiValidator is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			K: s.getInt(keyRetrievalK, defaults.Retrieval.K),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:    s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:     s.configStore.GetString(keyEmbedBaseURL),
			APIKey:      s.secret(keyEmbedAPIKey, EnvEmbeddingAPIKey),
			Dimensions:  s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
			Concurrency: s.getInt(keyEmbedConcurrent, defaults.Embedding.Concurrency),
			RateLimit:   s.configStore.GetFloat(keyEmbedRateLimit),
		},
		Generation: domain.GenerationSettings{
			BaseURL:     s.getString(keyGenBaseURL, defaults.Generation.BaseURL),
			Model:       s.configStore.GetString(keyGenModel),
			APIKey:      s.secret(keyGenAPIKey, EnvGenerationAPIKey),
			Temperature: s.getFloat(keyGenTemperature, defaults.Generation.Temperature),
			MaxTokens:   s.getInt(keyGenMaxTokens, defaults.Generation.MaxTokens),
		},
		Storage: domain.StorageSettings{
			Backend:       s.getBackend(defaults.Storage.Backend),
			Dir:           s.configStore.GetString(keyStorageDir),
			RedisAddr:     s.getString(keyRedisAddr, defaults.Storage.RedisAddr),
			RedisPassword: s.secret(keyRedisPassword, EnvRedisPassword),
			RedisDB:       s.configStore.GetInt(keyRedisDB),
		},
	}

	// The model default follows the provider.
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])

	if err := settings.Chunking.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save persists application settings. Empty secrets are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalK, settings.Retrieval.K},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedConcurrent, settings.Embedding.Concurrency},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyGenBaseURL, settings.Generation.BaseURL},
		{keyGenModel, settings.Generation.Model},
		{keyGenTemperature, settings.Generation.Temperature},
		{keyGenMaxTokens, settings.Generation.MaxTokens},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageDir, settings.Storage.Dir},
		{keyRedisAddr, settings.Storage.RedisAddr},
		{keyRedisDB, settings.Storage.RedisDB},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := map[string]string{
		keyEmbedAPIKey:   settings.Embedding.APIKey,
		keyGenAPIKey:     settings.Generation.APIKey,
		keyRedisPassword: settings.Storage.RedisPassword,
	}
	for key, val := range secrets {
		if val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %w", domain.ErrInvalidInput, key, err)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number: %w", domain.ErrInvalidInput, key, err)
		}
		parsed = f
	default:
		parsed = value
	}

	switch key {
	case keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, value)
		}
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid storage backend: %s", domain.ErrInvalidInput, value)
		}
	case keyChunkSize, keyChunkOverlap:
		current, err := s.Get()
		if err != nil {
			current = &domain.AppSettings{Chunking: domain.DefaultAppSettings().Chunking}
		}
		next := current.Chunking
		if key == keyChunkSize {
			next.Size = parsed.(int)
		} else {
			next.Overlap = parsed.(int)
		}
		if err := next.Validate(); err != nil {
			return err
		}
	case keyRetrievalK:
		if parsed.(int) < 1 {
			return fmt.Errorf("%w: retrieval.k must be at least 1", domain.ErrInvalidInput)
		}
	}

	return s.configStore.Set(key, parsed)
}

// Keys returns the settable keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the effective value of key, after defaults and
// environment overrides, formatted as Set would accept it.
func (s *SettingsService) Value(key string) (string, error) {
	if _, ok := settableKeys[key]; !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	var v any
	switch key {
	case keyChunkSize:
		v = settings.Chunking.Size
	case keyChunkOverlap:
		v = settings.Chunking.Overlap
	case keyRetrievalK:
		v = settings.Retrieval.K
	case keyEmbedProvider:
		v = settings.Embedding.Provider
	case keyEmbedModel:
		v = settings.Embedding.Model
	case keyEmbedBaseURL:
		v = settings.Embedding.BaseURL
	case keyEmbedAPIKey:
		v = settings.Embedding.APIKey
	case keyEmbedDims:
		v = settings.Embedding.Dimensions
	case keyEmbedConcurrent:
		v = settings.Embedding.Concurrency
	case keyEmbedRateLimit:
		v = settings.Embedding.RateLimit
	case keyGenBaseURL:
		v = settings.Generation.BaseURL
	case keyGenModel:
		v = settings.Generation.Model
	case keyGenAPIKey:
		v = settings.Generation.APIKey
	case keyGenTemperature:
		v = settings.Generation.Temperature
	case keyGenMaxTokens:
		v = settings.Generation.MaxTokens
	case keyStorageBackend:
		v = settings.Storage.Backend
	case keyStorageDir:
		v = settings.Storage.Dir
	case keyRedisAddr:
		v = settings.Storage.RedisAddr
	case keyRedisPassword:
		v = settings.Storage.RedisPassword
	case keyRedisDB:
		v = settings.Storage.RedisDB
	}
	return fmt.Sprint(v), nil
}

// IsSecret reports whether key holds a credential that should be masked
// when displayed.
func (s *SettingsService) IsSecret(key string) bool {
	switch key {
	case keyEmbedAPIKey, keyGenAPIKey, keyRedisPassword:
		return true
	default:
		return false
	}
}

// SetChunking updates chunk size and overlap.
func (s *SettingsService) SetChunking(size, overlap int) error {
	next := domain.ChunkingSettings{Size: size, Overlap: overlap}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(keyChunkSize, size); err != nil {
		return fmt.Errorf("save %s: %w", keyChunkSize, err)
	}
	if err := s.configStore.Set(keyChunkOverlap, overlap); err != nil {
		return fmt.Errorf("save %s: %w", keyChunkOverlap, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Embedding.Provider != provider {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	case domain.AIProviderHashing:
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetGeneration configures the generation endpoint. Empty arguments keep
// the current value.
func (s *SettingsService) SetGeneration(baseURL, model, apiKey string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if baseURL != "" {
		settings.Generation.BaseURL = baseURL
	}
	if model != "" {
		settings.Generation.Model = model
	}
	if apiKey != "" {
		settings.Generation.APIKey = apiKey
	}
	return s.Save(settings)
}

// Validate checks the stored settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.Retrieval.K < 1 {
		return fmt.Errorf("%w: retrieval.k must be at least 1", domain.ErrConfig)
	}
	if settings.Embedding.Provider == domain.AIProviderOpenAI &&
		settings.Embedding.BaseURL == "" && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: openai embeddings need an API key or a base_url", domain.ErrConfig)
	}
	if settings.Storage.Backend == domain.StorageRedis && settings.Storage.RedisAddr == "" {
		return fmt.Errorf("%w: redis storage needs storage.redis_addr", domain.ErrConfig)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateGenerationConfig validates the current generation configuration by pinging the endpoint.
func (s *SettingsService) ValidateGenerationConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateGeneration(ctx, &settings.Generation)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero treats an explicit zero as a value rather than unset.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

// secret prefers the environment over the stored value.
func (s *SettingsService) secret(key, env string) string {
	if val, ok := s.lookupEnv(env); ok && val != "" {
		return val
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
