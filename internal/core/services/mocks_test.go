package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// vocabulary gives mockEmbedder one dimension per word.
var vocabulary = []string{"cat", "dog", "fish", "bird"}

// mockEmbeddingService counts vocabulary words per text.
type mockEmbeddingService struct {
	model  string
	failOn string
	err    error
	calls  atomic.Int32
	texts  atomic.Int32
}

func newMockEmbedder() *mockEmbeddingService {
	return &mockEmbeddingService{model: "mock-embed"}
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(vocabulary)+1)
	for i, w := range vocabulary {
		vec[i] = float32(strings.Count(lower, w))
	}
	// Constant component keeps every vector non-zero.
	vec[len(vocabulary)] = 0.01
	return vec
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	m.texts.Add(int32(len(texts)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if m.failOn != "" && strings.Contains(t, m.failOn) {
			return nil, errors.New("provider rejected input")
		}
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(vocabulary) + 1
}

func (m *mockEmbeddingService) ModelName() string {
	return m.model
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.err
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockGenerationService records prompts and returns a canned reply.
type mockGenerationService struct {
	mu       sync.Mutex
	reply    string
	err      error
	models   []string
	prompts  []string
	lastOpts driven.GenerateOptions
}

func (m *mockGenerationService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenerationService) Models(_ context.Context) ([]string, error) {
	return m.models, m.err
}

func (m *mockGenerationService) Ping(_ context.Context) error {
	return m.err
}

func (m *mockGenerationService) Close() error {
	return nil
}

// mockExtractor treats document bytes as text with form feeds between pages.
type mockExtractor struct{}

func (mockExtractor) Name() string {
	return "mock"
}

func (mockExtractor) Extensions() []string {
	return []string{".pdf"}
}

func (mockExtractor) Extract(_ context.Context, filename string, data []byte) ([]string, error) {
	if strings.HasPrefix(filename, "bad") {
		return nil, errors.New("malformed xref table")
	}
	return strings.Split(string(data), "\f"), nil
}

// failingRecordStore rejects every write.
type failingRecordStore struct{}

func (failingRecordStore) SaveDocument(context.Context, domain.DocumentRecord) error {
	return errors.New("database is locked")
}

func (failingRecordStore) ListDocuments(context.Context, string) ([]domain.DocumentRecord, error) {
	return nil, errors.New("database is locked")
}
