// Package chunker provides a fixed-size, overlapping text chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits each page of a document into chunks of at most chunkSize
// characters, advancing chunkSize-overlap characters between chunks.
// Sizes count Unicode code points, never bytes, so multi-byte text is not split
// mid-character.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Invalid parameters fail with domain.ErrConfig here rather than mid-run.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.Settings().Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromSettings creates a processor from chunking settings.
func FromSettings(s domain.ChunkingSettings) (*Processor, error) {
	return New(WithChunkSize(s.Size), WithOverlap(s.Overlap))
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Settings returns the processor's chunking parameters.
func (p *Processor) Settings() domain.ChunkingSettings {
	return domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}
}

// Process splits every page of the document into chunks, in page order.
// Pages with no text contribute no chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	var chunks []domain.Chunk //nolint:prealloc // size depends on page lengths
	for i, text := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, p.ChunkPage(text, doc.Filename, i+1)...)
	}
	return chunks, nil
}

// ChunkPage splits a single page. The last chunk may be shorter than the
// chunk size. Removing the overlap prefix from every chunk after the first
// and concatenating reconstructs text exactly.
func (p *Processor) ChunkPage(text, source string, page int) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	length := len(runes)
	step := p.chunkSize - p.overlap

	estimatedChunks := 1
	if length > p.chunkSize {
		estimatedChunks = (length - p.overlap + step - 1) / step
	}
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	for start, position := 0, 0; ; start, position = start+step, position+1 {
		end := start + p.chunkSize
		if end > length {
			end = length
		}

		chunks = append(chunks, domain.Chunk{
			Content:  string(runes[start:end]),
			Metadata: domain.ChunkMetadata{Source: source, Page: page},
			Position: position,
		})

		if end == length {
			break
		}
	}

	return chunks
}
