// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/companion-tui/internal/ui/styles"
	"github.com/jeranaias/companion-tui/internal/util"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case PreflightMsg:
		if msg.Err != nil {
			m.warn = msg.Err.Error()
			m.logger.Warn("backend preflight failed", "error", msg.Err)
		}
		return m, nil

	case TurnStartedMsg:
		m.refresh()
		return m, waitForTurn(m.events)

	case StreamUpdateMsg:
		m.total = msg.Total
		m.refresh()
		return m, waitForTurn(m.events)

	case TurnCompleteMsg:
		m.state = StateReady
		m.total = ""
		m.events = nil
		m.refresh()
		return m, nil

	case TurnFailedMsg:
		m.state = StateError
		m.err = msg.Err
		m.total = ""
		m.events = nil
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var inputCmd, viewCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, viewCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, viewCmd)
}

// handleKey routes key presses. Anything not bound goes to the input line.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebar = !m.sidebar
		m.layout()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a turn with the current input. It does nothing while a
// turn is in flight or when the input is blank.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}
	query := util.NormalizeInput(m.input.Value())
	if query == "" {
		return m, nil
	}

	m.input.Reset()
	m.state = StateStreaming
	m.err = nil
	m.total = ""
	m.events = runTurn(m.ctx, m.session, query)
	m.refresh()

	return m, tea.Batch(waitForTurn(m.events), m.spinner.Tick)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.layout()
	m.refresh()
	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// showSidebar reports whether the sidebar fits and is switched on.
func (m Model) showSidebar() bool {
	return m.sidebar && m.theme.GetLayoutMode() == styles.LayoutWide
}

// chatWidth is the width left for the transcript column.
func (m Model) chatWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= styles.SidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// layout sizes the viewport and input to the window.
func (m *Model) layout() {
	w := m.chatWidth()

	before := m.markdown.Width()
	m.markdown.SetWidth(bubbleWidth(w) - 2)
	if m.markdown.Width() != before {
		m.rendered = make(map[string]string)
	}

	m.input.Width = w - lipgloss.Width(m.input.Prompt) - 3
	m.help.Width = m.width

	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter())
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.ready = true
}

// refresh re-renders the transcript into the viewport and follows the tail.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
