package services

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService creates sessions with the configured retrieval depth.
type SessionService struct {
	k int
}

// NewSessionService creates a session factory.
func NewSessionService(retrieval domain.RetrievalSettings) *SessionService {
	return &SessionService{k: retrieval.K}
}

// NewSession starts an empty session for userID.
func (s *SessionService) NewSession(userID string) *domain.Session {
	return domain.NewSession(uuid.NewString(), userID, s.k)
}
