// Package openai provides a generation service adapter for OpenAI-compatible
// chat completion APIs. LM Studio, vLLM and api.openai.com all speak this
// protocol.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://127.0.0.1:1234/v1"
	DefaultTimeout = 120 * time.Second
)

// ErrNoModel is returned when no model is configured and the server lists none.
var ErrNoModel = errors.New("openai: no model available")

// Config holds configuration for the generation service.
type Config struct {
	// APIKey is sent as a bearer token. Local servers ignore it.
	APIKey string

	// BaseURL is the API base URL (default: LM Studio on localhost).
	BaseURL string

	// Model is the default model. Empty picks the first model the server lists.
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// GenerationService generates text over the chat completions API.
type GenerationService struct {
	client *goopenai.Client

	mu    sync.Mutex
	model string
}

// NewGenerationService creates a new generation service.
func NewGenerationService(cfg Config) *GenerationService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &GenerationService{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Generate produces a completion for the prompt.
func (s *GenerationService) Generate(
	ctx context.Context,
	prompt string,
	opts driven.GenerateOptions,
) (string, error) {
	model, err := s.resolveModel(ctx, opts.Model)
	if err != nil {
		return "", err
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: opts.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := s.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Models lists the model identifiers the server reports.
func (s *GenerationService) Models(ctx context.Context) ([]string, error) {
	list, err := s.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai: list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Ping validates the server is reachable.
func (s *GenerationService) Ping(ctx context.Context) error {
	if _, err := s.Models(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *GenerationService) Close() error {
	return nil
}

// resolveModel returns the requested model, the configured default, or the
// first model the server lists. A discovered model is remembered.
func (s *GenerationService) resolveModel(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}

	s.mu.Lock()
	model := s.model
	s.mu.Unlock()
	if model != "" {
		return model, nil
	}

	ids, err := s.Models(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNoModel
	}

	s.mu.Lock()
	s.model = ids[0]
	s.mu.Unlock()
	return ids[0], nil
}
