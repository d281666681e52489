// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
)

func TestRenderFences_PlainTextUntouched(t *testing.T) {
	text := "A for-loop repeats code.\nSecond line."
	if got := RenderFences(text, 80, false); got != text {
		t.Errorf("RenderFences() = %q, want %q", got, text)
	}
}

func TestRenderFences_ClosedBlock(t *testing.T) {
	text := "Example:\n```go\nfor i := 0; i < 3; i++ {}\n```\nDone."
	got := RenderFences(text, 80, false)

	if strings.Contains(got, "```") {
		t.Errorf("fence markers left in output: %q", got)
	}
	for _, want := range []string{"Example:", "go", "for i := 0; i < 3; i++ {}", "Done."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
}

func TestRenderFences_UnclosedBlock(t *testing.T) {
	text := "Partial:\n```python\nfor x in range(3):"
	got := RenderFences(text, 80, false)

	if strings.Contains(got, "```") {
		t.Errorf("fence marker left in output: %q", got)
	}
	if !strings.Contains(got, "for x in range(3):") {
		t.Errorf("in-flight code lost: %q", got)
	}
}

func TestHighlightCode(t *testing.T) {
	code := "package main\n\nfunc main() {}\n"
	got := HighlightCode(code, "go")

	if !strings.Contains(got, "\x1b[") {
		t.Errorf("expected ANSI escape codes in highlighted output: %q", got)
	}
	if !strings.Contains(got, "main") {
		t.Errorf("highlighted output lost code: %q", got)
	}
}

func TestMarkdown_NoColor(t *testing.T) {
	md := NewMarkdown(60, false)

	got := md.Render("# Title\n\nSome **bold** text.")
	if !strings.Contains(got, "Title") || !strings.Contains(got, "bold") {
		t.Errorf("Render() lost content: %q", got)
	}
}

func TestMarkdown_EmptyPassthrough(t *testing.T) {
	md := NewMarkdown(60, false)
	if got := md.Render(""); got != "" {
		t.Errorf("Render(\"\") = %q, want empty", got)
	}
}

func TestMarkdown_SetWidth(t *testing.T) {
	md := NewMarkdown(10, false)
	if md.Width() != 20 {
		t.Errorf("Width() = %d, want minimum 20", md.Width())
	}
	md.SetWidth(72)
	if md.Width() != 72 {
		t.Errorf("Width() = %d, want 72", md.Width())
	}
}
