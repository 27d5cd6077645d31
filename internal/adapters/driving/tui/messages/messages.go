// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// IngestProgress carries one pipeline progress event.
type IngestProgress struct {
	Event domain.ProgressEvent
}

// IngestCompleted signals the documents are indexed, or failed to be.
type IngestCompleted struct {
	Result *domain.IngestResult
	Err    error
}

// AnswerCompleted carries the answer to a question.
type AnswerCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// SummaryCompleted carries a document summary.
type SummaryCompleted struct {
	Summary string
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
