// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/companion-tui/internal/model"
	"github.com/jeranaias/companion-tui/internal/prompt"
	"github.com/jeranaias/companion-tui/internal/relay"
	"github.com/jeranaias/companion-tui/internal/relay/relaytest"
)

const (
	testSystem   = "You are an expert AI coding assistant."
	testGreeting = "Hi! I'm DeepSeek. How can I help you code today? 💻"
)

func newSession(t *testing.T, b *relaytest.Backend, format prompt.Format) *Session {
	t.Helper()
	return New(Config{
		SystemPrompt: testSystem,
		Greeting:     testGreeting,
		Format:       format,
	}, relay.New(b, nil), nil)
}

func TestNew(t *testing.T) {
	s := newSession(t, relaytest.Texts(), "")

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 1, s.Transcript().Len())
	assert.Equal(t, model.RoleAssistant, s.Transcript().Greeting().Role())
	assert.Equal(t, testGreeting, s.Transcript().Greeting().Content())
	assert.False(t, s.Busy())
	assert.Equal(t, 0, s.Turns())
	assert.Equal(t, "scripted", s.BackendName())

	other := newSession(t, relaytest.Texts(), "")
	assert.NotEqual(t, s.ID(), other.ID())
}

func TestSubmit_ForLoopScenario(t *testing.T) {
	b := relaytest.Texts("A ", "for-loop ", "repeats code.")
	s := newSession(t, b, "")

	var totals []string
	reply, err := s.Submit(context.Background(), "What is a for-loop?", func(ev relay.Event) {
		if ev.State == relay.StateStreaming && ev.Total != "" {
			totals = append(totals, ev.Total)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A ", "A for-loop ", "A for-loop repeats code."}, totals)
	assert.Equal(t, model.RoleAssistant, reply.Role())
	assert.Equal(t, "A for-loop repeats code.", reply.Content())

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleUser, msgs[1].Role())
	assert.Equal(t, "What is a for-loop?", msgs[1].Content())
	assert.Equal(t, reply.ID(), msgs[2].ID())
	assert.Equal(t, 1, s.Turns())

	reqs := b.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []prompt.Segment{
		{Role: model.RoleSystem, Content: testSystem},
		{Role: model.RoleAssistant, Content: testGreeting},
		{Role: model.RoleUser, Content: "What is a for-loop?"},
	}, reqs[0].Chain.Segments())
	assert.Equal(t, prompt.FormatMessages, reqs[0].Format)
}

func TestSubmit_ReplyCarriesStats(t *testing.T) {
	s := newSession(t, relaytest.Texts("a", "b", "c"), "")

	reply, err := s.Submit(context.Background(), "q", nil)
	require.NoError(t, err)

	stats, ok := reply.Stats()
	require.True(t, ok)
	assert.Equal(t, 3, stats.Fragments)
	assert.False(t, stats.FirstTokenTime.IsZero())
	assert.GreaterOrEqual(t, stats.TotalDuration, stats.TTFT)
}

func TestSubmit_BackendUnavailable(t *testing.T) {
	s := newSession(t, relaytest.Unavailable(errors.New("connection refused")), "")

	_, err := s.Submit(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, relay.ErrBackendUnavailable)

	assert.Equal(t, 2, s.Transcript().Len())
	assert.Equal(t, model.RoleUser, s.Transcript().Last().Role())
	assert.Equal(t, 0, s.Turns())
	assert.False(t, s.Busy())
}

func TestSubmit_FailureAtEveryFragment(t *testing.T) {
	frags := []string{"A ", "for-loop ", "repeats code."}
	for j := 0; j <= len(frags); j++ {
		b := relaytest.Texts(frags...)
		b.FailAt = j
		s := newSession(t, b, "")
		before := s.Transcript().Len()

		var states []relay.State
		_, err := s.Submit(context.Background(), "What is a for-loop?", func(ev relay.Event) {
			states = append(states, ev.State)
		})

		require.Error(t, err, "fail at %d", j)
		assert.ErrorIs(t, err, relay.ErrStreamInterrupted)
		assert.Equal(t, before+1, s.Transcript().Len(), "fail at %d", j)
		assert.Equal(t, model.RoleUser, s.Transcript().Last().Role())
		assert.Equal(t, relay.StateFailed, states[len(states)-1])
	}
}

func TestSubmit_RetryAfterFailure(t *testing.T) {
	b := relaytest.Texts("ok")
	b.FailAt = 0
	s := newSession(t, b, "")

	_, err := s.Submit(context.Background(), "first", nil)
	require.Error(t, err)

	b.FailAt = -1
	reply, err := s.Submit(context.Background(), "second", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content())

	msgs := s.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "first", msgs[1].Content())
	assert.Equal(t, "second", msgs[2].Content())
	assert.False(t, s.Transcript().Alternates())

	// The retry's chain still carries the failed query.
	reqs := b.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 4, reqs[1].Chain.Len())
}

func TestSubmit_EmptyStreamCommitsEmptyReply(t *testing.T) {
	s := newSession(t, relaytest.Texts(), "")

	reply, err := s.Submit(context.Background(), "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, "", reply.Content())
	assert.Equal(t, 3, s.Transcript().Len())
	assert.Equal(t, model.RoleAssistant, s.Transcript().Last().Role())
	assert.True(t, s.Transcript().Alternates())
}

func TestSubmit_EmptyQuery(t *testing.T) {
	b := relaytest.Texts("unused")
	s := newSession(t, b, "")

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(context.Background(), q, nil)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Equal(t, 1, s.Transcript().Len())
	assert.Empty(t, b.Requests())
}

func TestSubmit_NormalizesQuery(t *testing.T) {
	s := newSession(t, relaytest.Texts("x"), "")

	_, err := s.Submit(context.Background(), "  café  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "café", s.Messages()[1].Content())
}

func TestSubmit_Busy(t *testing.T) {
	b := relaytest.Texts("done")
	b.Gate = make(chan struct{})
	s := newSession(t, b, "")

	errc := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "first", nil)
		errc <- err
	}()

	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	_, err := s.Submit(context.Background(), "second", nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(b.Gate)
	require.NoError(t, <-errc)
	assert.False(t, s.Busy())

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[1].Content())
}

func TestSubmit_TextFormat(t *testing.T) {
	b := relaytest.Texts("x")
	s := newSession(t, b, prompt.FormatText)

	_, err := s.Submit(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, b.Requests(), 1)
	assert.Equal(t, prompt.FormatText, b.Requests()[0].Format)
}

func TestChain(t *testing.T) {
	s := newSession(t, relaytest.Texts("reply"), "")

	assert.Equal(t, 2, s.Chain().Len())
	assert.Equal(t, testSystem, s.Chain().System())

	_, err := s.Submit(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Chain().Len())
}
