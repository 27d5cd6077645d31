// Package chat provides the question answering view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
)

// ErrNoQuestionService indicates that no question service was provided.
var ErrNoQuestionService = errors.New("question service is required")

// Rows taken by the header, input and status bar.
const chromeHeight = 7

// View represents the chat view with transcript, input and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusbar  *status.Bar
	spinner    spinner.Model

	ingest   driving.IngestService
	question driving.QuestionService
	session  *domain.Session
	uploads  []domain.Upload
	ctx      context.Context

	width  int
	height int
	busy   bool
	err    error
}

// NewView creates a chat view over sess. Init starts indexing uploads.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	ingest driving.IngestService,
	question driving.QuestionService,
	sess *domain.Session,
	uploads []domain.Upload,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Title

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		spinner:    sp,
		ingest:     ingest,
		question:   question,
		session:    sess,
		uploads:    uploads,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		busy:       len(uploads) > 0,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor, the spinner and indexing.
func (v *View) Init() tea.Cmd {
	cmds := []tea.Cmd{v.input.Init(), v.spinner.Tick}
	if len(v.uploads) > 0 && v.ingest != nil {
		cmds = append(cmds, v.startIngest()...)
	} else {
		v.busy = false
		v.statusbar.SetState(status.StateReady)
	}
	return tea.Batch(cmds...)
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case progressMsg:
		v.statusbar.SetProgress(msg.event.Fraction)
		v.statusbar.SetMessage(msg.event.Message)
		return v, waitForProgress(msg.events)

	case messages.IngestCompleted:
		v.handleIngestCompleted(msg)
		return v, nil

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.SummaryCompleted:
		v.handleSummaryCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.transcript, cmd = v.transcript.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.ScrollUp):
		v.transcript.ScrollUp()
		return v, nil
	case keymap.Matches(keyStr, v.keymap.ScrollDown):
		v.transcript.ScrollDown()
		return v, nil
	case keymap.Matches(keyStr, v.keymap.Sources):
		v.transcript.SetShowSources(!v.transcript.ShowSources())
		return v, nil
	}

	// Requests are serialised; typing is still allowed while busy.
	if v.busy {
		if msg.Type == tea.KeyEnter {
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.Clear):
		v.input.Reset()
		return v, nil
	case keymap.Matches(keyStr, v.keymap.Summary):
		return v, v.performSummary()
	case msg.Type == tea.KeyEnter:
		question := strings.TrimSpace(v.input.Value())
		if question == "" {
			return v, nil
		}
		v.input.Reset()
		v.transcript.Append(transcript.Entry{Kind: transcript.KindQuestion, Text: question})
		return v, v.performAsk(question)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// progressMsg carries one event together with the channel it came from.
type progressMsg struct {
	event  domain.ProgressEvent
	events <-chan domain.ProgressEvent
}

// waitForProgress blocks for the next event. A closed channel ends the loop.
func waitForProgress(events <-chan domain.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return progressMsg{event: ev, events: events}
	}
}

// startIngest runs the pipeline and a listener relaying its progress.
func (v *View) startIngest() []tea.Cmd {
	v.busy = true
	v.statusbar.SetState(status.StateIndexing)

	events := make(chan domain.ProgressEvent)
	run := func() tea.Msg {
		result, err := v.ingest.Ingest(v.ctx, v.session, v.uploads, events)
		close(events)
		return messages.IngestCompleted{Result: result, Err: err}
	}
	return []tea.Cmd{run, waitForProgress(events)}
}

// performAsk answers question in the background.
func (v *View) performAsk(question string) tea.Cmd {
	v.busy = true
	v.statusbar.SetState(status.StateThinking)

	return func() tea.Msg {
		if v.question == nil {
			return messages.AnswerCompleted{Question: question, Err: ErrNoQuestionService}
		}
		answer, err := v.question.Ask(v.ctx, v.session, question)
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

// performSummary summarises the session documents in the background.
func (v *View) performSummary() tea.Cmd {
	v.busy = true
	v.statusbar.SetState(status.StateThinking)

	return func() tea.Msg {
		if v.question == nil {
			return messages.SummaryCompleted{Err: ErrNoQuestionService}
		}
		summary, err := v.question.Summarise(v.ctx, v.session)
		return messages.SummaryCompleted{Summary: summary, Err: err}
	}
}

func (v *View) handleIngestCompleted(msg messages.IngestCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.done()
	v.statusbar.SetChunks(msg.Result.Chunks)

	origin := "built and cached"
	switch {
	case msg.Result.CacheHit:
		origin = "loaded from cache"
	case msg.Result.StoreErr != nil:
		origin = "built, not cached"
	}
	v.transcript.Append(transcript.Entry{
		Kind: transcript.KindNotice,
		Text: fmt.Sprintf("Indexed %s: %d pages, %d chunks (%s).",
			strings.Join(msg.Result.Documents, ", "), msg.Result.Pages, msg.Result.Chunks, origin),
	})
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.done()
	v.transcript.Append(transcript.Entry{
		Kind:    transcript.KindAnswer,
		Text:    msg.Answer.Text,
		Sources: msg.Answer.Sources,
	})
}

func (v *View) handleSummaryCompleted(msg messages.SummaryCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.done()
	v.transcript.Append(transcript.Entry{Kind: transcript.KindAnswer, Text: msg.Summary})
}

// done returns the view to accepting questions.
func (v *View) done() {
	v.busy = false
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// fail records err. Questions stay possible after a failure, and a failed
// ingest leaves the session without an index.
func (v *View) fail(err error) {
	v.busy = false
	v.err = err
	category, message := domain.Describe(err)
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(category)
	v.transcript.Append(transcript.Entry{Kind: transcript.KindError, Text: category + ": " + message})
}

// View renders the chat view.
func (v *View) View() string {
	header := v.styles.Title.Render("pdfqa")
	if v.busy {
		header += " " + v.spinner.View()
	}

	sections := []string{
		header,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	v.input.SetWidth(width)
	v.transcript.SetDimensions(width, height-chromeHeight)
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Busy reports whether a request is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Transcript returns the conversation so far.
func (v *View) Transcript() []transcript.Entry {
	return v.transcript.Entries()
}

// Query returns the current input text.
func (v *View) Query() string {
	return v.input.Value()
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
