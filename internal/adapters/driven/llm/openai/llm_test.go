package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type fakeServer struct {
	*httptest.Server
	models     []string
	listCalls  atomic.Int32
	failChat   atomic.Bool
	emptyReply atomic.Bool

	mu   sync.Mutex
	last chatRequest
}

func (f *fakeServer) lastRequest() chatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func newFakeServer(t *testing.T, models ...string) *fakeServer {
	t.Helper()
	f := &fakeServer{models: models}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/models":
			f.listCalls.Add(1)
			data := make([]map[string]string, 0, len(f.models))
			for _, m := range f.models {
				data = append(data, map[string]string{"id": m, "object": "model"})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
		case "/chat/completions":
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.last = req
			f.mu.Unlock()
			if f.failChat.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"model crashed","type":"server_error"}}`))
				return
			}
			choices := []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": "  Paris.  "},
			}}
			if f.emptyReply.Load() {
				choices = nil
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "object": "chat.completion", "choices": choices})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func TestGenerate_SendsSystemPromptAndOptions(t *testing.T) {
	srv := newFakeServer(t)
	s := NewGenerationService(Config{BaseURL: srv.URL, Model: "local-model"})

	out, err := s.Generate(context.Background(), "What is the capital?", driven.GenerateOptions{
		SystemPrompt: "Answer briefly.",
		MaxTokens:    128,
		Temperature:  0.5,
	})

	require.NoError(t, err)
	assert.Equal(t, "Paris.", out)
	last := srv.lastRequest()
	assert.Equal(t, "local-model", last.Model)
	assert.Equal(t, 128, last.MaxTokens)
	assert.InDelta(t, 0.5, last.Temperature, 1e-6)
	require.Len(t, last.Messages, 2)
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Equal(t, "Answer briefly.", last.Messages[0].Content)
	assert.Equal(t, "user", last.Messages[1].Role)
	assert.Equal(t, "What is the capital?", last.Messages[1].Content)
}

func TestGenerate_NoSystemPrompt(t *testing.T) {
	srv := newFakeServer(t)
	s := NewGenerationService(Config{BaseURL: srv.URL, Model: "m"})

	_, err := s.Generate(context.Background(), "hi", driven.GenerateOptions{Model: "override"})

	require.NoError(t, err)
	last := srv.lastRequest()
	assert.Equal(t, "override", last.Model)
	require.Len(t, last.Messages, 1)
	assert.Equal(t, "user", last.Messages[0].Role)
}

func TestGenerate_DiscoversModelOnce(t *testing.T) {
	srv := newFakeServer(t, "llama-3.2-3b", "qwen2.5-7b")
	s := NewGenerationService(Config{BaseURL: srv.URL})

	for range 2 {
		_, err := s.Generate(context.Background(), "hi", driven.GenerateOptions{})
		require.NoError(t, err)
	}

	assert.Equal(t, "llama-3.2-3b", srv.lastRequest().Model)
	assert.Equal(t, int32(1), srv.listCalls.Load())
}

func TestGenerate_NoModelAvailable(t *testing.T) {
	srv := newFakeServer(t)
	s := NewGenerationService(Config{BaseURL: srv.URL})

	_, err := s.Generate(context.Background(), "hi", driven.GenerateOptions{})

	assert.ErrorIs(t, err, ErrNoModel)
}

func TestGenerate_ServerError(t *testing.T) {
	srv := newFakeServer(t)
	srv.failChat.Store(true)
	s := NewGenerationService(Config{BaseURL: srv.URL, Model: "m"})

	_, err := s.Generate(context.Background(), "hi", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := newFakeServer(t)
	srv.emptyReply.Store(true)
	s := NewGenerationService(Config{BaseURL: srv.URL, Model: "m"})

	_, err := s.Generate(context.Background(), "hi", driven.GenerateOptions{})

	assert.Error(t, err)
}

func TestModelsAndPing(t *testing.T) {
	srv := newFakeServer(t, "a", "b")
	s := NewGenerationService(Config{BaseURL: srv.URL + "/"})

	models, err := s.Models(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, models)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}

func TestPing_Unreachable(t *testing.T) {
	s := NewGenerationService(Config{BaseURL: "http://127.0.0.1:1"})

	assert.Error(t, s.Ping(context.Background()))
}
