package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/logger"
)

// Ensure PDF implements the interface.
var _ driven.Extractor = (*PDF)(nil)

// PDF extracts the plain text of each page of a PDF document.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Name returns the extractor name.
func (e *PDF) Name() string {
	return "pdf"
}

// Extensions returns the handled file extensions.
func (e *PDF) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns one entry per page. A page whose text cannot be
// decoded is returned empty so page numbering is preserved.
func (e *PDF) Extract(ctx context.Context, filename string, data []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: malformed pdf: %v", domain.ErrIO, filename, r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIO, filename, err)
	}

	n := rdr.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pg := rdr.Page(i)
		if pg.V.IsNull() {
			continue
		}
		text, err := pg.GetPlainText(nil)
		if err != nil {
			logger.Debug("%s page %d: no extractable text: %v", filename, i, err)
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}
