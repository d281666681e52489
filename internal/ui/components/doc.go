// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable renderers for the companion TUI.
//
//   - CodeBlock, RenderFences: chroma-highlighted code fences, used for the
//     reply that is still streaming
//   - Markdown: glamour rendering for committed replies
package components
