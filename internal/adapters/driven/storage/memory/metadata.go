package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interfaces.
var (
	_ driven.DocumentRecordStore = (*MetadataStore)(nil)
	_ driven.ChatLogStore        = (*MetadataStore)(nil)
)

// MetadataStore is an in-memory document record store and chat log.
type MetadataStore struct {
	mu       sync.RWMutex
	records  map[string][]domain.DocumentRecord
	messages map[string][]domain.ChatMessage
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		records:  make(map[string][]domain.DocumentRecord),
		messages: make(map[string][]domain.ChatMessage),
	}
}

// SaveDocument appends an ownership record.
func (s *MetadataStore) SaveDocument(_ context.Context, record domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], record)
	return nil
}

// ListDocuments returns a user's records, newest first.
func (s *MetadataStore) ListDocuments(_ context.Context, userID string) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.records[userID]
	out := make([]domain.DocumentRecord, len(records))
	for i := range records {
		out[len(records)-1-i] = records[i]
	}
	return out, nil
}

// Append adds a message to the user's log.
func (s *MetadataStore) Append(_ context.Context, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.UserID] = append(s.messages[msg.UserID], msg)
	return nil
}

// History returns up to limit of the most recent messages in chronological order.
// A non-positive limit returns all messages.
func (s *MetadataStore) History(_ context.Context, userID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Clear removes a user's messages.
func (s *MetadataStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, userID)
	return nil
}
