package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// chatLogStore implements driven.ChatLogStore.
// Citations are stored as a JSON array in the sources column.
type chatLogStore struct {
	store *Store
}

var _ driven.ChatLogStore = (*chatLogStore)(nil)

// Append adds a message to the user's log.
func (s *chatLogStore) Append(ctx context.Context, msg domain.ChatMessage) error {
	sources := msg.Sources
	if sources == nil {
		sources = []domain.Citation{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, role, content, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.UserID, string(msg.Role), msg.Content, string(sourcesJSON), msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving chat message: %w", err)
	}
	return nil
}

// History returns up to limit of the most recent messages in chronological order.
// A non-positive limit returns all messages.
func (s *chatLogStore) History(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, sources, created_at FROM (
			SELECT seq, id, user_id, role, content, sources, created_at
			FROM chat_messages
			WHERE user_id = ?
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var role, sourcesJSON string
		if err := rows.Scan(&msg.ID, &msg.UserID, &role, &msg.Content, &sourcesJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		msg.Role = domain.MessageRole(role)
		if err := json.Unmarshal([]byte(sourcesJSON), &msg.Sources); err != nil {
			return nil, fmt.Errorf("unmarshalling sources: %w", err)
		}
		if len(msg.Sources) == 0 {
			msg.Sources = nil
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}
	return messages, nil
}

// Clear removes a user's messages.
func (s *chatLogStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}
	return nil
}
