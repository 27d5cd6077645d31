package domain

import "fmt"

const unknownDescription = "Unknown"

// Defaults mirror the values the application ships with.
const (
	DefaultChunkSize     = 2500
	DefaultChunkOverlap  = 500
	DefaultRetrievalK    = 5
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 1000
	DefaultSummaryTokens = 300
)

// AIProvider identifies a service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible API (OpenAI, LM Studio).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderHashing:
		return true
	default:
		return false
	}
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible API"
	case AIProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects where built indices are persisted.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite     StorageBackend = "sqlite"
	StorageFilesystem StorageBackend = "filesystem"
	StorageRedis      StorageBackend = "redis"
	StorageMemory     StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageFilesystem, StorageRedis, StorageMemory:
		return true
	default:
		return false
	}
}

// ChunkingSettings controls how page text is split.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// Validate checks 0 <= Overlap < Size. Chunking cannot progress otherwise.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap %d must be less than chunk size %d", ErrConfig, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings controls query-time retrieval.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per question.
	K int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size for providers that need it up front.
	Dimensions int

	// Concurrency bounds parallel embedding requests during a build.
	Concurrency int

	// RateLimit caps embedding requests per second. Zero disables limiting.
	RateLimit float64
}

// GenerationSettings holds text generation configuration.
type GenerationSettings struct {
	// BaseURL is the OpenAI-compatible endpoint (LM Studio by default).
	BaseURL string

	// Model is the model identifier passed to the service.
	Model string

	// APIKey is the API key. Local servers ignore it.
	APIKey string

	// Temperature controls randomness.
	Temperature float64

	// MaxTokens caps the generated answer length.
	MaxTokens int
}

// StorageSettings selects and configures index persistence.
type StorageSettings struct {
	// Backend is the blob store implementation.
	Backend StorageBackend

	// Dir is the data directory for the sqlite and filesystem backends.
	Dir string

	// RedisAddr is the redis server address.
	RedisAddr string

	// RedisPassword is the redis password.
	RedisPassword string

	// RedisDB is the redis database number.
	RedisDB int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking   ChunkingSettings
	Retrieval  RetrievalSettings
	Embedding  EmbeddingSettings
	Generation GenerationSettings
	Storage    StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Generation targets an LM Studio server on localhost and embeddings
// run offline until a provider is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			K: DefaultRetrievalK,
		},
		Embedding: EmbeddingSettings{
			Provider:    AIProviderHashing,
			Model:       "hashing-384",
			Dimensions:  384,
			Concurrency: 4,
		},
		Generation: GenerationSettings{
			BaseURL:     "http://127.0.0.1:1234/v1",
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Storage: StorageSettings{
			Backend:   StorageSQLite,
			RedisAddr: "localhost:6379",
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderHashing: "hashing-384",
	}
}
