package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// Options configures a TUI run.
type Options struct {
	// UserID owns the session and its chat log.
	UserID string

	// Uploads are indexed when the program starts.
	Uploads []domain.Upload

	// Input and Output override the terminal, mainly for tests.
	Input  io.Reader
	Output io.Writer
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports   *Ports
	opts    Options
	ctx     context.Context
	keymap  *keymap.KeyMap
	session *domain.Session

	chatView *chat.View

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	sess := ports.Sessions.NewSession(opts.UserID)

	return &App{
		ports:    ports,
		opts:     opts,
		ctx:      context.Background(),
		keymap:   km,
		session:  sess,
		chatView: chat.NewView(s, km, ports.Ingest, ports.Question, sess, opts.Uploads),
	}, nil
}

// WithContext sets the context for the app and its service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("pdfqa"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}

	case messages.Quit:
		return a, tea.Quit
	}

	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	return a.chatView.View()
}

// Run starts the TUI and blocks until the user quits.
func (a *App) Run() error {
	defer a.session.Close()

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(a.ctx)}
	if a.opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(a.opts.Input))
	}
	if a.opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(a.opts.Output))
	}

	p := tea.NewProgram(a, progOpts...)
	_, err := p.Run()
	return err
}

// Session returns the session the app works on.
func (a *App) Session() *domain.Session {
	return a.session
}

// Ready returns whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
}
