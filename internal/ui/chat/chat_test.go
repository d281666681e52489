// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/companion-tui/internal/model"
	"github.com/jeranaias/companion-tui/internal/relay"
	"github.com/jeranaias/companion-tui/internal/relay/relaytest"
	"github.com/jeranaias/companion-tui/internal/session"
	"github.com/jeranaias/companion-tui/internal/ui/styles"
)

func newTestModel(t *testing.T, b *relaytest.Backend, opts Options) (Model, *session.Session) {
	t.Helper()
	s := session.New(session.Config{
		SystemPrompt: "You are an expert AI coding assistant.",
		Greeting:     "Hi! How can I help you code today?",
	}, relay.New(b, nil), nil)

	opts.NoColor = true
	if opts.Title == "" {
		opts.Title = "Code Companion"
	}
	if opts.ModelName == "" {
		opts.ModelName = "deepseek-r1:1.5b"
	}
	m := New(s, styles.NewTheme(true), opts)
	t.Cleanup(m.Close)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), s
}

// drive runs cmd and every command it produces until none are left,
// feeding each message back into the model. Spinner ticks are dropped so
// the loop ends. It returns the final model and the messages seen.
func drive(t *testing.T, m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	t.Helper()
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case spinner.TickMsg:
			continue
		}

		seen = append(seen, msg)
		updated, c := m.Update(msg)
		m = updated.(Model)
		queue = append(queue, c)
	}
	return m, seen
}

func typeAndSubmit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestChat_InitialView(t *testing.T) {
	m, _ := newTestModel(t, relaytest.Texts(), Options{Caption: "Your AI pair programmer"})

	view := m.View()
	assert.Contains(t, view, "Code Companion")
	assert.Contains(t, view, "Your AI pair programmer")
	assert.Contains(t, view, "Hi! How can I help you code today?")
	assert.Contains(t, view, "Ready")
	assert.Equal(t, StateReady, m.State())
}

func TestChat_SubmitStreamsAndCommits(t *testing.T) {
	b := relaytest.Texts("A ", "for-loop ", "repeats code.")
	m, s := newTestModel(t, b, Options{})

	m, cmd := typeAndSubmit(t, m, "What is a for-loop?")
	require.NotNil(t, cmd)
	assert.Equal(t, StateStreaming, m.State())
	assert.Empty(t, m.input.Value())

	m, seen := drive(t, m, cmd)

	var totals []string
	for _, msg := range seen {
		if u, ok := msg.(StreamUpdateMsg); ok {
			totals = append(totals, u.Total)
		}
	}
	assert.Equal(t, []string{"A ", "A for-loop ", "A for-loop repeats code."}, totals)
	require.IsType(t, TurnCompleteMsg{}, seen[len(seen)-1])

	assert.Equal(t, StateReady, m.State())
	assert.Empty(t, m.Partial())
	assert.Equal(t, 3, s.Transcript().Len())
	assert.Equal(t, model.RoleAssistant, s.Transcript().Last().Role())
	assert.Contains(t, m.View(), "A for-loop repeats code.")
}

func TestChat_FailureShowsErrorAndKeepsQuery(t *testing.T) {
	m, s := newTestModel(t, relaytest.Unavailable(errors.New("connection refused")), Options{})

	m, cmd := typeAndSubmit(t, m, "hello")
	m, seen := drive(t, m, cmd)

	require.IsType(t, TurnFailedMsg{}, seen[len(seen)-1])
	assert.Equal(t, StateError, m.State())
	assert.ErrorIs(t, m.Err(), relay.ErrBackendUnavailable)
	assert.Equal(t, 2, s.Transcript().Len())
	assert.Contains(t, m.View(), "Backend unavailable")

	// The next turn clears the error.
	m, cmd = typeAndSubmit(t, m, "again")
	assert.Equal(t, StateStreaming, m.State())
	assert.NoError(t, m.Err())
	_, _ = drive(t, m, cmd)
}

func TestChat_BlankInputIgnored(t *testing.T) {
	b := relaytest.Texts("unused")
	m, s := newTestModel(t, b, Options{})

	m, cmd := typeAndSubmit(t, m, "   ")
	assert.Nil(t, cmd)
	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, 1, s.Transcript().Len())
	assert.Empty(t, b.Requests())
}

func TestChat_InFlightReplyReplacesContent(t *testing.T) {
	b := relaytest.Texts("done")
	b.Gate = make(chan struct{})
	m, _ := newTestModel(t, b, Options{BusyText: "Processing..."})

	m, cmd := typeAndSubmit(t, m, "question")

	updated, _ := m.Update(StreamUpdateMsg{Total: "thinking", Fragments: 1})
	m = updated.(Model)
	assert.Equal(t, "thinking", m.Partial())
	assert.Contains(t, m.View(), "thinking")
	assert.Contains(t, m.View(), "Processing...")

	updated, _ = m.Update(StreamUpdateMsg{Total: "thinking harder", Fragments: 2})
	m = updated.(Model)
	assert.Equal(t, "thinking harder", m.Partial())

	// Enter is ignored while the turn is in flight.
	m.input.SetValue("second")
	updated, second := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Nil(t, second)

	close(b.Gate)
	m, _ = drive(t, m, cmd)
	assert.Equal(t, StateReady, m.State())
	assert.Len(t, b.Requests(), 1)
}

func TestChat_SidebarOnlyWhenWide(t *testing.T) {
	m, _ := newTestModel(t, relaytest.Texts(), Options{
		ShowSidebar:  true,
		Capabilities: []string{"Python Expert", "Debugging Assistant"},
	})

	view := m.View()
	assert.Contains(t, view, "Using Model:")
	assert.Contains(t, view, "deepseek-r1:1.5b")
	assert.Contains(t, view, "Debugging Assistant")

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = updated.(Model)
	assert.NotContains(t, m.View(), "Using Model:")
}

func TestChat_ToggleSidebar(t *testing.T) {
	m, _ := newTestModel(t, relaytest.Texts(), Options{ShowSidebar: true})
	require.Contains(t, m.View(), "Using Model:")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlB})
	m = updated.(Model)
	assert.NotContains(t, m.View(), "Using Model:")
}

func TestChat_PreflightWarning(t *testing.T) {
	check := func(context.Context) error {
		return errors.New("Ollama is not running")
	}
	m, _ := newTestModel(t, relaytest.Texts(), Options{Preflight: check})
	require.NotNil(t, m.Init())

	updated, _ := m.Update(preflight(context.Background(), check)())
	m = updated.(Model)
	assert.Contains(t, m.View(), "Ollama is not running")
	assert.Equal(t, StateReady, m.State())
}

func TestChat_Quit(t *testing.T) {
	m, _ := newTestModel(t, relaytest.Texts(), Options{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "error", StateError.String())
}
