// Package tui provides an interactive terminal interface for asking
// questions about documents. It implements a driving adapter following
// hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sessions creates the working session.
	Sessions driving.SessionService

	// Ingest indexes the uploaded documents.
	Ingest driving.IngestService

	// Question answers and summarises.
	Question driving.QuestionService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	sessions driving.SessionService,
	ingest driving.IngestService,
	question driving.QuestionService,
) *Ports {
	return &Ports{
		Sessions: sessions,
		Ingest:   ingest,
		Question: question,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Question == nil {
		return ErrMissingQuestionService
	}
	return nil
}
