// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the companion TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The Theme groups the styles for the header, sidebar, message
bubbles, input area, and status line.

# Layout

GetLayoutMode maps the terminal width to a LayoutMode. The sidebar is only
drawn in LayoutWide.

# Accessibility

Status colors are always paired with the ASCII StatusIndicators so a
status stays readable with --no-color or NO_COLOR set.
*/
package styles
