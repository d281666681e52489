// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders committed assistant replies. Renderers are rebuilt only
// when the wrap width changes.
type Markdown struct {
	renderer *glamour.TermRenderer
	width    int
	color    bool
}

// NewMarkdown creates a markdown renderer wrapping at width columns.
func NewMarkdown(width int, color bool) *Markdown {
	m := &Markdown{color: color}
	m.SetWidth(width)
	return m
}

// SetWidth changes the wrap width.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == m.width && m.renderer != nil {
		return
	}
	m.width = width

	style := glamour.WithStandardStyle("notty")
	if m.color {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Width returns the current wrap width.
func (m *Markdown) Width() int {
	return m.width
}

// Render renders content as markdown. It returns content unchanged if the
// renderer is unavailable or fails.
func (m *Markdown) Render(content string) string {
	if m.renderer == nil || strings.TrimSpace(content) == "" {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
