package transcript

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

func testSources() domain.RetrievalResult {
	return domain.RetrievalResult{
		{
			Chunk: domain.Chunk{
				Content:  "Replace the filter cartridge every six months.",
				Metadata: domain.ChunkMetadata{Source: "manual.pdf", Page: 3},
			},
			Score: 0.91,
		},
	}
}

func TestNew(t *testing.T) {
	tr := New(nil)

	require.NotNil(t, tr)
	assert.Empty(t, tr.Entries())
	assert.True(t, tr.ShowSources())
	assert.Nil(t, tr.Init())
}

func TestTranscript_AppendRenders(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(100, 20)

	tr.Append(Entry{Kind: KindQuestion, Text: "How often?"})
	tr.Append(Entry{Kind: KindAnswer, Text: "Every six months.", Sources: testSources()})

	content := tr.Content()
	assert.Len(t, tr.Entries(), 2)
	assert.Contains(t, content, "You:")
	assert.Contains(t, content, "How often?")
	assert.Contains(t, content, "Every six months.")
	assert.Contains(t, content, "[1] manual.pdf, page 3")
	assert.Contains(t, content, "(0.91)")
	assert.Contains(t, content, "filter cartridge")
}

func TestTranscript_HideSources(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(100, 20)
	tr.Append(Entry{Kind: KindAnswer, Text: "Every six months.", Sources: testSources()})

	tr.SetShowSources(false)

	assert.False(t, tr.ShowSources())
	assert.NotContains(t, tr.Content(), "manual.pdf")
}

func TestTranscript_NoticeAndError(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(100, 20)

	tr.Append(Entry{Kind: KindNotice, Text: "Indexed 2 documents"})
	tr.Append(Entry{Kind: KindError, Text: "GenerationError: boom"})

	content := tr.Content()
	assert.Contains(t, content, "Indexed 2 documents")
	assert.Contains(t, content, "GenerationError: boom")
}

func TestTranscript_ScrollsToBottom(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(60, 3)

	for i := 0; i < 20; i++ {
		tr.Append(Entry{Kind: KindNotice, Text: "line"})
	}
	tr.Append(Entry{Kind: KindNotice, Text: "latest"})

	assert.Contains(t, tr.View(), "latest")

	tr.ScrollUp()
	tr.ScrollUp()
	assert.NotContains(t, tr.View(), "latest")

	tr.ScrollDown()
	tr.ScrollDown()
	assert.Contains(t, tr.View(), "latest")
}

func TestTranscript_Update(t *testing.T) {
	tr := New(nil)

	updated, _ := tr.Update(tea.KeyMsg{Type: tea.KeyPgUp})

	assert.Equal(t, tr, updated)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet(" a\n\n b "))

	got := snippet(strings.Repeat("y", snippetLength+1))
	assert.Len(t, []rune(got), snippetLength+3)
}
