package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
	"github.com/custodia-labs/pdfqa/internal/logger"
)

// Ensure the services implement their interfaces.
var (
	_ driving.QuestionService = (*QuestionService)(nil)
	_ driving.HistoryService  = (*HistoryService)(nil)
)

// DefaultHistoryLimit is how many chat messages History returns by default.
const DefaultHistoryLimit = 50

// QuestionService answers questions from a session's index.
type QuestionService struct {
	retrieval *RetrievalEngine
	generator driven.GenerationService
	chatLog   driven.ChatLogStore
	settings  domain.GenerationSettings
	now       func() time.Time
}

// NewQuestionService creates a question service.
// generator and chatLog are optional (can be nil). Without a generator
// only Search is available.
func NewQuestionService(
	retrieval *RetrievalEngine,
	generator driven.GenerationService,
	chatLog driven.ChatLogStore,
	settings domain.GenerationSettings,
) *QuestionService {
	return &QuestionService{
		retrieval: retrieval,
		generator: generator,
		chatLog:   chatLog,
		settings:  settings,
		now:       time.Now,
	}
}

// Search returns the ranked chunks for query.
func (s *QuestionService) Search(ctx context.Context, sess *domain.Session, query string, k int) (domain.RetrievalResult, error) {
	if sess == nil {
		return nil, domain.ErrNoIndex
	}
	if k < 1 {
		k = sess.K()
	}
	idx, _ := sess.Index()
	return s.retrieval.Retrieve(ctx, idx, query, k)
}

// Ask answers question and appends the exchange to the user's chat log.
func (s *QuestionService) Ask(ctx context.Context, sess *domain.Session, question string) (*domain.Answer, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generation service configured", domain.ErrGeneration)
	}
	logger.Section("Question")

	result, err := s.Search(ctx, sess, question, 0)
	if err != nil {
		return nil, err
	}

	assembled := AssembleContext(result)
	text, err := s.generator.Generate(ctx, AnswerPrompt(assembled, question), driven.GenerateOptions{
		Model:        s.settings.Model,
		SystemPrompt: answerSystemPrompt,
		MaxTokens:    s.settings.MaxTokens,
		Temperature:  s.settings.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	answer := &domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: result,
		Context: assembled,
	}
	s.log(ctx, sess.UserID, domain.RoleUser, question, nil)
	s.log(ctx, sess.UserID, domain.RoleAssistant, answer.Text, answer.Citations())
	return answer, nil
}

// Summarise asks the generator for a short summary of the leading chunks.
func (s *QuestionService) Summarise(ctx context.Context, sess *domain.Session) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("%w: no generation service configured", domain.ErrGeneration)
	}
	if sess == nil {
		return "", domain.ErrNoIndex
	}
	idx, _ := sess.Index()
	if idx == nil {
		return "", domain.ErrNoIndex
	}

	text, err := s.generator.Generate(ctx, SummaryPrompt(idx.Chunks()), driven.GenerateOptions{
		Model:        s.settings.Model,
		SystemPrompt: summarySystemPrompt,
		MaxTokens:    domain.DefaultSummaryTokens,
		Temperature:  s.settings.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return strings.TrimSpace(text), nil
}

// Models lists the generation service's models.
func (s *QuestionService) Models(ctx context.Context) ([]string, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generation service configured", domain.ErrGeneration)
	}
	models, err := s.generator.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return models, nil
}

// Ping checks the generation service.
func (s *QuestionService) Ping(ctx context.Context) error {
	if s.generator == nil {
		return fmt.Errorf("%w: no generation service configured", domain.ErrGeneration)
	}
	if err := s.generator.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return nil
}

// log appends to the chat log. Failures are logged, not returned.
func (s *QuestionService) log(ctx context.Context, userID string, role domain.MessageRole, content string, sources []domain.Citation) {
	if s.chatLog == nil {
		return
	}
	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: s.now(),
	}
	if err := s.chatLog.Append(ctx, msg); err != nil {
		logger.Warn("append chat message: %v", err)
	}
}

// HistoryService reads the chat log and document records.
type HistoryService struct {
	chatLog driven.ChatLogStore
	records driven.DocumentRecordStore
}

// NewHistoryService creates a history service.
func NewHistoryService(chatLog driven.ChatLogStore, records driven.DocumentRecordStore) *HistoryService {
	return &HistoryService{chatLog: chatLog, records: records}
}

// History returns recent messages, oldest first.
func (s *HistoryService) History(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error) {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return s.chatLog.History(ctx, userID, limit)
}

// Clear deletes the user's messages.
func (s *HistoryService) Clear(ctx context.Context, userID string) error {
	return s.chatLog.Clear(ctx, userID)
}

// Documents returns the user's uploads, newest first.
func (s *HistoryService) Documents(ctx context.Context, userID string) ([]domain.DocumentRecord, error) {
	return s.records.ListDocuments(ctx, userID)
}
