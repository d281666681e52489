// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/companion-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat turn. It cannot be changed once created.
type Message struct {
	id        string
	role      Role
	content   string
	timestamp time.Time
	stats     *Statistics
}

// NewMessage creates a message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		id:        "msg_" + uuid.NewString(),
		role:      role,
		content:   content,
		timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// WithStats returns a copy of m carrying the given generation statistics.
func (m Message) WithStats(stats Statistics) Message {
	m.stats = &stats
	return m
}

// ID returns the message identifier.
func (m Message) ID() string { return m.id }

// Role returns who sent the message.
func (m Message) Role() Role { return m.role }

// Content returns the raw message text.
func (m Message) Content() string { return m.content }

// Timestamp returns when the message was created.
func (m Message) Timestamp() time.Time { return m.timestamp }

// Stats returns the generation statistics, if any were recorded.
func (m Message) Stats() (Statistics, bool) {
	if m.stats == nil {
		return Statistics{}, false
	}
	return *m.stats, true
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.content) == 0
}

// Preview returns a truncated preview of the message content.
func (m Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.content, maxLen)
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing and fragment information for one generation.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	Fragments int

	TTFT          time.Duration
	TotalDuration time.Duration
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// RecordFirstToken records when the first fragment was received.
func (s *Statistics) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes the final statistics.
func (s *Statistics) Finalize(fragments int) {
	s.EndTime = time.Now()
	s.Fragments = fragments
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
}

// FragmentsPerSecond returns the streaming rate, or 0 before Finalize.
func (s Statistics) FragmentsPerSecond() float64 {
	if s.TotalDuration <= 0 {
		return 0
	}
	return float64(s.Fragments) / s.TotalDuration.Seconds()
}

// Format returns a formatted string of the statistics.
// Format: "2.5s | 128 chunks | 51.2 chunks/s | TTFT 234ms"
func (s Statistics) Format() string {
	return fmt.Sprintf("%s | %d chunks | %.1f chunks/s | TTFT %dms",
		formatDuration(s.TotalDuration), s.Fragments, s.FragmentsPerSecond(), s.TTFT.Milliseconds())
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
