package extractor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure Text implements the interface.
var _ driven.Extractor = (*Text)(nil)

// pageBreak separates pages in plain text documents.
const pageBreak = "\f"

// Text extracts UTF-8 text documents.
type Text struct{}

// NewText creates a plain text extractor.
func NewText() *Text {
	return &Text{}
}

// Name returns the extractor name.
func (e *Text) Name() string {
	return "text"
}

// Extensions returns the handled file extensions.
func (e *Text) Extensions() []string {
	return []string{".txt", ".md"}
}

// Extract splits the document into pages on form feeds.
func (e *Text) Extract(_ context.Context, filename string, data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrIO, filename)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, pageBreak), nil
}
