package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// reassemble drops the overlap prefix of every chunk after the first and
// concatenates the rest.
func reassemble(chunks []domain.Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		r := []rune(c.Content)
		if i > 0 {
			r = r[overlap:]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func expectedCount(length, size, overlap int) int {
	if length <= size {
		return 1
	}
	step := size - overlap
	return (length - overlap + step - 1) / step
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithChunkSize(500), WithOverlap(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.chunkSize != 500 || p.overlap != 100 {
			t.Errorf("expected 500/100, got %d/%d", p.chunkSize, p.overlap)
		}
	})

	t.Run("zero overlap allowed", func(t *testing.T) {
		if _, err := New(WithChunkSize(10), WithOverlap(0)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	invalid := []struct {
		name    string
		size    int
		overlap int
	}{
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
		{"zero chunk size", 0, 0},
		{"negative chunk size", -5, 0},
		{"negative overlap", 100, -1},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			if !errors.Is(err, domain.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
			if p != nil {
				t.Error("expected nil processor on invalid config")
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	p, err := FromSettings(domain.ChunkingSettings{Size: 300, Overlap: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Settings(); got.Size != 300 || got.Overlap != 30 {
		t.Errorf("unexpected settings %+v", got)
	}

	if _, err := FromSettings(domain.ChunkingSettings{Size: 10, Overlap: 10}); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_NilDocument(t *testing.T) {
	p, _ := New()
	if _, err := p.Process(context.Background(), nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessor_Process_EmptyPages(t *testing.T) {
	p, _ := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		Filename: "scan.pdf",
		Pages:    []string{"", "   \n\t", ""},
	}

	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty pages, got %d", len(chunks))
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p, _ := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		Filename: "small.pdf",
		Pages:    []string{"This is a small piece of content."},
	}

	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
	if chunks[0].Content != doc.Pages[0] {
		t.Errorf("expected content to match page text")
	}
	if chunks[0].Metadata.Source != "small.pdf" || chunks[0].Metadata.Page != 1 {
		t.Errorf("unexpected metadata %+v", chunks[0].Metadata)
	}
}

func TestProcessor_Process_PageOrderAndMetadata(t *testing.T) {
	p, _ := New(WithChunkSize(10), WithOverlap(2))
	doc := &domain.Document{
		Filename: "multi.pdf",
		Pages: []string{
			strings.Repeat("a", 15),
			"",
			strings.Repeat("c", 5),
		},
	}

	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	wantPages := []int{1, 1, 3}
	wantPositions := []int{0, 1, 0}
	for i, c := range chunks {
		if c.Metadata.Page != wantPages[i] {
			t.Errorf("chunk %d: expected page %d, got %d", i, wantPages[i], c.Metadata.Page)
		}
		if c.Position != wantPositions[i] {
			t.Errorf("chunk %d: expected position %d, got %d", i, wantPositions[i], c.Position)
		}
		if c.Metadata.Source != "multi.pdf" {
			t.Errorf("chunk %d: expected source multi.pdf, got %s", i, c.Metadata.Source)
		}
	}
}

func TestProcessor_ChunkPage_ScenarioSixThousandCharacters(t *testing.T) {
	p, _ := New(WithChunkSize(2500), WithOverlap(500))
	text := strings.Repeat("0123456789", 600)

	chunks := p.ChunkPage(text, "A.pdf", 1)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.Metadata.Source != "A.pdf" || c.Metadata.Page != 1 {
			t.Errorf("unexpected metadata %+v", c.Metadata)
		}
	}
	if got := len([]rune(chunks[2].Content)); got != 2000 {
		t.Errorf("expected last chunk of 2000 characters, got %d", got)
	}
}

func TestProcessor_ChunkPage_OverlapContent(t *testing.T) {
	p, _ := New(WithChunkSize(10), WithOverlap(3))

	chunks := p.ChunkPage("0123456789ABCDEFGHIJ", "doc.pdf", 1)

	// Step is 7: 0-9, 7-16, 14-19
	want := []string{"0123456789", "789ABCDEFG", "EFGHIJ"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, c := range chunks {
		if c.Content != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], c.Content)
		}
	}
}

func TestProcessor_ChunkPage_NoTrailingOverlapOnlyChunk(t *testing.T) {
	p, _ := New(WithChunkSize(2500), WithOverlap(500))

	// The second window already reaches the end of the page.
	chunks := p.ChunkPage(strings.Repeat("x", 4500), "A.pdf", 1)
	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestProcessor_ChunkPage_MultiByteCharacters(t *testing.T) {
	p, _ := New(WithChunkSize(4), WithOverlap(1))
	text := "héllo wörld ünïcode"

	chunks := p.ChunkPage(text, "u.pdf", 1)
	for i, c := range chunks {
		if n := len([]rune(c.Content)); n > 4 {
			t.Errorf("chunk %d has %d characters", i, n)
		}
	}
	if got := reassemble(chunks, 1); got != text {
		t.Errorf("reassembled %q, want %q", got, text)
	}
}

func TestProcessor_ChunkPage_CoverageAndCount(t *testing.T) {
	configs := []struct{ size, overlap int }{
		{10, 0}, {10, 3}, {10, 9}, {7, 2}, {100, 20}, {1, 0},
	}
	base := "The quick brown fox jumps over the lazy dog. "

	for _, cfg := range configs {
		p, err := New(WithChunkSize(cfg.size), WithOverlap(cfg.overlap))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for length := 1; length <= 120; length += 7 {
			text := strings.Repeat(base, 3)[:length]
			if strings.TrimSpace(text) == "" {
				continue
			}

			chunks := p.ChunkPage(text, "p.pdf", 1)

			if got := reassemble(chunks, cfg.overlap); got != text {
				t.Errorf("size=%d overlap=%d len=%d: reassembled %q, want %q",
					cfg.size, cfg.overlap, length, got, text)
			}
			if want := expectedCount(length, cfg.size, cfg.overlap); len(chunks) != want {
				t.Errorf("size=%d overlap=%d len=%d: expected %d chunks, got %d",
					cfg.size, cfg.overlap, length, want, len(chunks))
			}
			for i, c := range chunks {
				if c.Content == "" {
					t.Errorf("chunk %d is empty", i)
				}
			}
		}
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	p, _ := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, &domain.Document{Filename: "a.pdf", Pages: []string{"text"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
