package driving

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// SessionService creates working sessions.
type SessionService interface {
	// NewSession starts an empty session for userID using the configured k.
	NewSession(userID string) *domain.Session
}

// IngestService turns uploaded documents into a session's index.
type IngestService interface {
	// Ingest reads, chunks, hashes and indexes uploads, reusing a cached
	// index when the batch content was seen before. Progress events are
	// sent on events when it is non-nil; the caller owns the channel.
	// On failure the session keeps its previous index.
	Ingest(ctx context.Context, sess *domain.Session, uploads []domain.Upload,
		events chan<- domain.ProgressEvent) (*domain.IngestResult, error)
}

// QuestionService answers questions against a session's index.
type QuestionService interface {
	// Search returns the top k chunks for query without generating an answer.
	// A k below 1 uses the session's k.
	Search(ctx context.Context, sess *domain.Session, query string, k int) (domain.RetrievalResult, error)

	// Ask retrieves context, generates an answer and records the exchange.
	Ask(ctx context.Context, sess *domain.Session, question string) (*domain.Answer, error)

	// Summarise generates a short summary from the leading chunks.
	Summarise(ctx context.Context, sess *domain.Session) (string, error)

	// Models lists the models offered by the generation service.
	Models(ctx context.Context) ([]string, error)

	// Ping checks the generation service is reachable.
	Ping(ctx context.Context) error
}

// HistoryService exposes a user's stored conversation and uploads.
type HistoryService interface {
	// History returns up to limit recent messages, oldest first.
	// A limit below 1 uses the default of 50.
	History(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error)

	// Clear deletes a user's conversation.
	Clear(ctx context.Context, userID string) error

	// Documents lists a user's uploads, newest first.
	Documents(ctx context.Context, userID string) ([]domain.DocumentRecord, error)
}
