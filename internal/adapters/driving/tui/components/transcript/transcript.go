// Package transcript provides the scrolling conversation view for the TUI.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// snippetLength caps the passage preview under each source.
const snippetLength = 120

// Kind identifies who produced a transcript entry.
type Kind int

const (
	KindQuestion Kind = iota
	KindAnswer
	KindNotice
	KindError
)

// Entry is one block of the conversation.
type Entry struct {
	Kind    Kind
	Text    string
	Sources domain.RetrievalResult
}

// Transcript renders entries in a scrollable viewport.
type Transcript struct {
	viewport    viewport.Model
	styles      *styles.Styles
	entries     []Entry
	showSources bool
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		viewport:    viewport.New(80, 16),
		styles:      s,
		showSources: true,
	}
}

// Init initialises the transcript.
func (t *Transcript) Init() tea.Cmd {
	return nil
}

// Update forwards scrolling keys and mouse events to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Append adds an entry and scrolls to the bottom.
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
	t.refresh()
	t.viewport.GotoBottom()
}

// Entries returns all entries, oldest first.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// SetShowSources toggles rendering of answer sources.
func (t *Transcript) SetShowSources(show bool) {
	t.showSources = show
	t.refresh()
}

// ShowSources reports whether sources are rendered.
func (t *Transcript) ShowSources() bool {
	return t.showSources
}

// ScrollUp scrolls up by half a page.
func (t *Transcript) ScrollUp() {
	t.viewport.SetYOffset(t.viewport.YOffset - t.halfPage())
}

// ScrollDown scrolls down by half a page.
func (t *Transcript) ScrollDown() {
	t.viewport.SetYOffset(t.viewport.YOffset + t.halfPage())
}

func (t *Transcript) halfPage() int {
	return max(t.viewport.Height/2, 1)
}

// SetDimensions resizes the viewport and re-wraps the content.
func (t *Transcript) SetDimensions(width, height int) {
	t.viewport.Width = max(width, 20)
	t.viewport.Height = max(height, 3)
	t.refresh()
}

// Content returns the full rendered transcript.
func (t *Transcript) Content() string {
	width := t.viewport.Width
	blocks := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		blocks = append(blocks, t.render(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.Content())
}

func (t *Transcript) render(e Entry, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-4, 16))

	switch e.Kind {
	case KindQuestion:
		return t.styles.Label.Render("You: ") + wrap.Render(e.Text)
	case KindNotice:
		return t.styles.Muted.Render(wrap.Render(e.Text))
	case KindError:
		return t.styles.Error.Render(wrap.Render(e.Text))
	case KindAnswer:
	}

	parts := []string{t.styles.Answer.Render(wrap.Render(e.Text))}
	if t.showSources {
		for i, s := range e.Sources {
			label := fmt.Sprintf("[%d] %s, page %d", i+1, s.Chunk.Metadata.Source, s.Chunk.Metadata.Page)
			parts = append(parts, "  "+t.styles.Source.Render(label)+" "+
				t.styles.Muted.Render(fmt.Sprintf("(%.2f)", s.Score)))
			parts = append(parts, "      "+t.styles.Muted.Render(snippet(s.Chunk.Content)))
		}
	}
	return strings.Join(parts, "\n")
}

// snippet collapses whitespace and truncates text to snippetLength runes.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
