// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/companion-tui/internal/model"
	"github.com/jeranaias/companion-tui/internal/relay"
	"github.com/jeranaias/companion-tui/internal/session"
)

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnStartedMsg signals that the user's query has been committed and the
// backend request is going out.
type TurnStartedMsg struct{}

// StreamUpdateMsg carries the running total of the reply in flight.
type StreamUpdateMsg struct {
	Total     string
	Fragments int
}

// TurnCompleteMsg signals that the reply was committed to the transcript.
type TurnCompleteMsg struct {
	Reply model.Message
}

// TurnFailedMsg signals that the turn failed and nothing was committed
// for the assistant.
type TurnFailedMsg struct {
	Err error
}

// =============================================================================
// STARTUP MESSAGES
// =============================================================================

// PreflightMsg reports the start-up backend check.
type PreflightMsg struct {
	Err error
}

// =============================================================================
// COMMANDS
// =============================================================================

// turnBuffer bounds the events queued between the turn goroutine and the
// update loop.
const turnBuffer = 64

// runTurn submits query on a goroutine and returns the channel its events
// arrive on. The channel is closed after the final TurnCompleteMsg or
// TurnFailedMsg.
func runTurn(ctx context.Context, s *session.Session, query string) <-chan tea.Msg {
	events := make(chan tea.Msg, turnBuffer)

	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)
		reply, err := s.Submit(ctx, query, func(ev relay.Event) {
			switch {
			case ev.State == relay.StateRequesting:
				send(TurnStartedMsg{})
			case ev.State == relay.StateStreaming && ev.Total != "":
				send(StreamUpdateMsg{Total: ev.Total, Fragments: ev.Fragments})
			}
		})
		if err != nil {
			send(TurnFailedMsg{Err: err})
			return
		}
		send(TurnCompleteMsg{Reply: reply})
	}()

	return events
}

// waitForTurn delivers the next event of a running turn.
func waitForTurn(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// preflight runs check and reports its result.
func preflight(ctx context.Context, check func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return PreflightMsg{Err: check(ctx)}
	}
}
