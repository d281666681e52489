// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidRole is returned when a message with a role the transcript cannot hold is appended.
var ErrInvalidRole = errors.New("invalid transcript role")

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered history of chat turns for one session.
// The first entry is always the assistant greeting it was created with.
// Entries are only ever appended; nothing is removed or rewritten.
//
// Transcript is safe for concurrent use: the turn in flight appends while
// the display layer takes snapshots.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates a transcript seeded with an assistant greeting.
func NewTranscript(greeting string) *Transcript {
	return &Transcript{
		messages: []Message{NewAssistantMessage(greeting)},
	}
}

// Append adds a user or assistant message to the end of the transcript
// and returns the new length. System messages are rejected: the system
// instruction belongs to the prompt chain, not the history.
func (t *Transcript) Append(msg Message) (int, error) {
	if msg.Role() != RoleUser && msg.Role() != RoleAssistant {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role())
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return len(t.messages), nil
}

// Messages returns a snapshot of the transcript in chronological order.
// The returned slice is a copy; appending to the transcript does not affect it.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages, including the greeting.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Greeting returns the seed message.
func (t *Transcript) Greeting() Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messages[0]
}

// Last returns the most recent message.
func (t *Transcript) Last() Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messages[len(t.messages)-1]
}

// LastOfRole returns the most recent message with the given role.
func (t *Transcript) LastOfRole(role Role) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role() == role {
			return t.messages[i], true
		}
	}
	return Message{}, false
}

// Alternates reports whether user and assistant turns strictly alternate
// after the greeting. Normal operation keeps this true, but it is not
// enforced: a failed turn leaves two user messages in a row.
func (t *Transcript) Alternates() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := 1; i < len(t.messages); i++ {
		if t.messages[i].Role() == t.messages[i-1].Role() {
			return false
		}
	}
	return true
}
