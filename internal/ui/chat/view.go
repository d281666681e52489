// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/companion-tui/internal/model"
	"github.com/jeranaias/companion-tui/internal/relay"
	"github.com/jeranaias/companion-tui/internal/ui/components"
	"github.com/jeranaias/companion-tui/internal/ui/styles"
	"github.com/jeranaias/companion-tui/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderSidebar())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

// =============================================================================
// HEADER AND SIDEBAR
// =============================================================================

func (m Model) renderHeader() string {
	width := max(m.width, 20)
	title := m.theme.HeaderTitle.Render(util.TruncateWidth(m.opts.Title, width-2))
	caption := m.theme.HeaderCaption.Render(util.TruncateWidth(m.opts.Caption, width-2))
	return m.theme.Header.Width(width).Render(title + "\n" + caption)
}

func (m Model) renderSidebar() string {
	inner := styles.SidebarWidth - 4
	var b strings.Builder

	b.WriteString(m.theme.SidebarHeading.Render("⚙️ Configuration"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.SidebarLabel.Render("Using Model:"))
	b.WriteString("\n")
	b.WriteString(m.theme.SidebarItem.Render(util.TruncateWidth(m.opts.ModelName, inner)))
	b.WriteString("\n")
	if m.opts.BackendName != "" {
		b.WriteString(m.theme.SidebarLabel.Render("Backend: "))
		b.WriteString(m.theme.SidebarItem.Render(m.opts.BackendName))
		b.WriteString("\n")
	}

	if len(m.opts.Capabilities) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.SidebarHeading.Render("Model Capabilities"))
		b.WriteString("\n")
		for _, c := range m.opts.Capabilities {
			b.WriteString(m.theme.SidebarItem.Render("- " + util.TruncateWidth(c, inner-2)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.SidebarFooter.Render("Built with Ollama"))

	return m.theme.Sidebar.Height(m.viewport.Height).Render(b.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// bubbleWidth is the text width of a message bubble in a column of width w.
func bubbleWidth(w int) int {
	return max(w-8, 16)
}

// renderTranscript renders every committed message, then the reply in
// flight. Committed assistant replies are rendered as markdown once and
// cached by message ID.
func (m *Model) renderTranscript() string {
	width := bubbleWidth(m.chatWidth())
	var parts []string

	for _, msg := range m.session.Messages() {
		parts = append(parts, m.renderMessage(msg, width))
	}

	if m.state == StateStreaming && m.total != "" {
		text := components.RenderFences(m.total, width, !m.opts.NoColor)
		parts = append(parts, m.renderBubble(model.RoleAssistant, text, width))
	}

	return strings.Join(parts, "\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	if msg.Role() != model.RoleAssistant {
		return m.renderBubble(msg.Role(), msg.Content(), width)
	}

	text, ok := m.rendered[msg.ID()]
	if !ok {
		text = m.markdown.Render(msg.Content())
		m.rendered[msg.ID()] = text
	}
	out := m.renderBubble(msg.Role(), text, width)

	if stats, ok := msg.Stats(); ok && stats.Fragments > 0 {
		out += "\n" + m.theme.StatsText.Render("  "+stats.Format())
	}
	return out
}

func (m Model) renderBubble(role model.Role, text string, width int) string {
	label := m.theme.RoleLabel.Render(role.DisplayName())
	style := m.theme.AssistantBubble
	if role == model.RoleUser {
		style = m.theme.UserBubble
		label = "    " + label
	}
	if text == "" {
		text = " "
	}
	return label + "\n" + style.Width(width).Render(text)
}

// =============================================================================
// FOOTER
// =============================================================================

// renderFooter renders the status line, input box, and key help. Each part
// is exactly one line so the layout does not jump between states.
func (m Model) renderFooter() string {
	width := max(m.width, 20)
	input := m.theme.InputContainer.Width(width - 2).Render(m.input.View())
	help := m.help.ShortHelpView(m.keys.ShortHelp())
	return lipgloss.JoinVertical(lipgloss.Left, m.renderStatus(width), input, help)
}

func (m Model) renderStatus(width int) string {
	switch {
	case m.state == StateStreaming:
		return m.spinner.View() + " " + m.theme.BusyText.Render(util.TruncateWidth(m.opts.BusyText, width-4))
	case m.state == StateError && m.err != nil:
		line := styles.StatusIndicators.Error + " " + relay.Describe(m.err)
		return m.theme.ErrorStyle.Render(util.TruncateWidth(line, width))
	case m.warn != "":
		line := styles.StatusIndicators.Warning + " " + util.FirstLine(m.warn)
		return m.theme.WarningStyle.Render(util.TruncateWidth(line, width))
	default:
		line := styles.StatusIndicators.Success + " Ready"
		return m.theme.SuccessStyle.Render(line)
	}
}
