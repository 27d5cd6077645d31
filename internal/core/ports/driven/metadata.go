package driven

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// DocumentRecordStore persists which user uploaded which files.
type DocumentRecordStore interface {
	// SaveDocument appends an ownership record.
	SaveDocument(ctx context.Context, record domain.DocumentRecord) error

	// ListDocuments returns a user's records, newest first.
	ListDocuments(ctx context.Context, userID string) ([]domain.DocumentRecord, error)
}

// ChatLogStore is an append-only per-user conversation log.
type ChatLogStore interface {
	// Append adds a message to the user's log.
	Append(ctx context.Context, msg domain.ChatMessage) error

	// History returns up to limit messages in chronological order.
	History(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error)

	// Clear removes a user's messages.
	Clear(ctx context.Context, userID string) error
}
