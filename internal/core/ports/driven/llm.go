package driven

import "context"

// GenerationService produces answer text from a prompt.
// This is an optional service - when nil, questions can only be answered
// with the retrieved passages.
type GenerationService interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Models lists the model identifiers the service can serve.
	Models(ctx context.Context) ([]string, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Model is the model identifier. Empty uses the service default.
	Model string

	// SystemPrompt is sent ahead of the prompt when non-empty.
	SystemPrompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
