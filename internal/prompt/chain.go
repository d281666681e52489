// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt builds the prompt chain submitted to the inference backend.
//
// A Chain is the system instruction followed by a one-to-one projection of
// the transcript. It is rebuilt from scratch for every user turn and never
// edited in place.
package prompt

import (
	"fmt"
	"strings"

	"github.com/jeranaias/companion-tui/internal/model"
)

// =============================================================================
// FORMAT
// =============================================================================

// Format selects how a chain is handed to the backend.
type Format string

const (
	// FormatMessages sends role-tagged messages (backend-native chat form).
	FormatMessages Format = "messages"
	// FormatText sends the whole chain as one text blob.
	FormatText Format = "text"
)

// ParseFormat parses a prompt format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMessages, "":
		return FormatMessages, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown prompt format %q (want messages or text)", s)
	}
}

// =============================================================================
// CHAIN
// =============================================================================

// Segment is one entry of a prompt chain.
type Segment struct {
	Role    model.Role
	Content string
}

// Chain is the structured prompt for one completion request.
type Chain struct {
	segments []Segment
}

// Build projects the transcript into a chain headed by the system instruction.
// Every message keeps its role and raw text; nothing is dropped, shortened,
// or interpreted as a template.
func Build(system string, transcript []model.Message) Chain {
	segments := make([]Segment, 0, len(transcript)+1)
	segments = append(segments, Segment{Role: model.RoleSystem, Content: system})
	for _, msg := range transcript {
		segments = append(segments, Segment{Role: msg.Role(), Content: msg.Content()})
	}
	return Chain{segments: segments}
}

// Len returns the number of segments, system instruction included.
func (c Chain) Len() int {
	return len(c.segments)
}

// Segments returns a copy of the chain's segments.
func (c Chain) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

// System returns the system instruction, or "" for an empty chain.
func (c Chain) System() string {
	if len(c.segments) == 0 || c.segments[0].Role != model.RoleSystem {
		return ""
	}
	return c.segments[0].Content
}

// Messages returns the chain as role/content pairs in order.
func (c Chain) Messages() []Segment {
	return c.Segments()
}

// Format renders the chain as a single text blob, one block per segment:
//
//	System: You are an expert AI coding assistant...
//	AI: Hi! How can I help you code today?
//	Human: What is a for-loop?
func (c Chain) Format() string {
	var sb strings.Builder
	for i, seg := range c.segments {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(speaker(seg.Role))
		sb.WriteString(": ")
		sb.WriteString(seg.Content)
	}
	return sb.String()
}

func speaker(role model.Role) string {
	switch role {
	case model.RoleSystem:
		return "System"
	case model.RoleUser:
		return "Human"
	case model.RoleAssistant:
		return "AI"
	default:
		return string(role)
	}
}
