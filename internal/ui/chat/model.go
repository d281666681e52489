// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/companion-tui/internal/session"
	"github.com/jeranaias/companion-tui/internal/ui/components"
	"github.com/jeranaias/companion-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // A turn is in flight
	StateError                  // The last turn failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options holds the display text and switches for the chat view.
type Options struct {
	Title        string
	Caption      string
	Placeholder  string
	BusyText     string
	ModelName    string
	BackendName  string
	Capabilities []string
	ShowSidebar  bool
	NoColor      bool

	// Preflight, when set, runs once at start-up. A failure is shown as a
	// warning; the user can still send queries.
	Preflight func(context.Context) error

	Logger *slog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State
	err   error
	warn  string

	// Session and turn plumbing
	session *session.Session
	opts    Options
	ctx     context.Context
	cancel  context.CancelFunc
	events  <-chan tea.Msg
	total   string

	// Styling
	theme    *styles.Theme
	markdown *components.Markdown
	rendered map[string]string

	// Dimensions
	width   int
	height  int
	ready   bool
	sidebar bool

	// Components
	keys     KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	logger *slog.Logger
}

// New creates a chat view over s.
func New(s *session.Session, theme *styles.Theme, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.BusyText == "" {
		opts.BusyText = "Processing..."
	}

	ti := textinput.New()
	ti.Placeholder = opts.Placeholder
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.CharLimit = 8000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateReady,
		session:  s,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		theme:    theme,
		markdown: components.NewMarkdown(80, !opts.NoColor),
		rendered: make(map[string]string),
		sidebar:  opts.ShowSidebar,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		logger:   opts.Logger,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.Preflight != nil {
		cmds = append(cmds, preflight(m.ctx, m.opts.Preflight))
	}
	return tea.Batch(cmds...)
}

// State returns the current view state.
func (m Model) State() State { return m.state }

// Err returns the error of the last failed turn.
func (m Model) Err() error { return m.err }

// Partial returns the running total of the reply in flight.
func (m Model) Partial() string { return m.total }

// Close cancels any turn still in flight.
func (m Model) Close() {
	m.cancel()
}
