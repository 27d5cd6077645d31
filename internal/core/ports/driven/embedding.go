package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// An index must be queried with the same service (and model) that built it.
// The index cache records ModelName alongside each entry so a changed model
// is detected on lookup.
//
// Implementations may include:
//   - OpenAI-compatible APIs (text-embedding-3-small, LM Studio)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local feature hashing (no network)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// Zero means the size is only known after the first call.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
