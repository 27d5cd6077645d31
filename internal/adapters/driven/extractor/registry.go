package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Registry routes documents to an extractor by file extension.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry creates a registry. Later extractors override earlier ones
// for a shared extension.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with the PDF, text and HTML extractors.
func Default() *Registry {
	return NewRegistry(NewPDF(), NewText(), NewHTML())
}

// Register adds e for each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Name returns the extractor name.
func (r *Registry) Name() string {
	return "registry"
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extract delegates to the extractor registered for filename's extension.
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w %q", domain.ErrIO, filename, domain.ErrUnsupportedType, ext)
	}
	return e.Extract(ctx, filename, data)
}
