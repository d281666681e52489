// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"fmt"
	"unicode/utf8"
)

// =============================================================================
// FRAGMENT VARIANTS
// =============================================================================

// Fragment is one incremental piece of a streaming completion.
// The only implementations are PlainText and StructuredChunk.
type Fragment interface {
	fragment()
}

// PlainText is a fragment that carries nothing but text.
type PlainText string

func (PlainText) fragment() {}

// StructuredChunk is a fragment that carries text plus backend metadata
// such as the model name, done reason, or token counts.
type StructuredChunk struct {
	Content  string
	Metadata map[string]any
}

func (StructuredChunk) fragment() {}

// Normalize extracts the text of a fragment. A nil fragment or text that
// is not valid UTF-8 yields ErrMalformedFragment.
func Normalize(f Fragment) (string, error) {
	var text string
	switch v := f.(type) {
	case PlainText:
		text = string(v)
	case StructuredChunk:
		text = v.Content
	case *StructuredChunk:
		if v == nil {
			return "", fmt.Errorf("%w: nil chunk", ErrMalformedFragment)
		}
		text = v.Content
	case nil:
		return "", fmt.Errorf("%w: nil fragment", ErrMalformedFragment)
	default:
		return "", fmt.Errorf("%w: unsupported fragment type %T", ErrMalformedFragment, f)
	}

	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrMalformedFragment)
	}
	return text, nil
}
