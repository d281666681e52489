// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/companion-tui/internal/model"
	"github.com/jeranaias/companion-tui/internal/prompt"
	"github.com/jeranaias/companion-tui/internal/relay"
	"github.com/jeranaias/companion-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyQuery is returned for a query that is blank after normalization.
	ErrEmptyQuery = errors.New("empty query")

	// ErrBusy is returned when a turn is already in flight.
	ErrBusy = errors.New("a reply is already in progress")
)

// =============================================================================
// SESSION
// =============================================================================

// Config holds the fixed inputs of a session.
type Config struct {
	SystemPrompt string
	Greeting     string
	Format       prompt.Format
}

// Session owns one transcript and runs turns against a relay.
// Submit may be called from any goroutine, but only one turn runs at a time.
type Session struct {
	id         string
	cfg        Config
	transcript *model.Transcript
	relay      *relay.Relay
	logger     *slog.Logger
	started    time.Time

	turn  sync.Mutex
	busy  atomic.Bool
	turns atomic.Int64
}

// New creates a session seeded with cfg.Greeting. A nil logger discards output.
func New(cfg Config, r *relay.Relay, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Format == "" {
		cfg.Format = prompt.FormatMessages
	}

	id := uuid.NewString()
	return &Session{
		id:         id,
		cfg:        cfg,
		transcript: model.NewTranscript(cfg.Greeting),
		relay:      r,
		logger:     logger.With("session_id", id),
		started:    time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Transcript returns the session's transcript.
func (s *Session) Transcript() *model.Transcript { return s.transcript }

// Messages returns a snapshot of the transcript.
func (s *Session) Messages() []model.Message { return s.transcript.Messages() }

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool { return s.busy.Load() }

// Turns returns the number of completed turns.
func (s *Session) Turns() int { return int(s.turns.Load()) }

// Started returns when the session was created.
func (s *Session) Started() time.Time { return s.started }

// BackendName returns the name of the backend the relay talks to.
func (s *Session) BackendName() string { return s.relay.Backend().Name() }

// Chain returns the prompt chain the next turn would be built on top of.
func (s *Session) Chain() prompt.Chain {
	return prompt.Build(s.cfg.SystemPrompt, s.transcript.Messages())
}

// =============================================================================
// TURNS
// =============================================================================

// Submit runs one turn. The normalized query is committed to the transcript
// before the backend is called. On success the full reply is committed as
// an assistant message and returned. On failure the error from the relay
// is returned, the partial reply is discarded, and the user message stays.
//
// obs, when non-nil, receives every relay event of the turn.
func (s *Session) Submit(ctx context.Context, query string, obs relay.Observer) (model.Message, error) {
	query = util.NormalizeInput(query)
	if query == "" {
		return model.Message{}, ErrEmptyQuery
	}

	if !s.turn.TryLock() {
		return model.Message{}, ErrBusy
	}
	defer s.turn.Unlock()
	s.busy.Store(true)
	defer s.busy.Store(false)

	if _, err := s.transcript.Append(model.NewUserMessage(query)); err != nil {
		return model.Message{}, err
	}
	if !s.transcript.Alternates() {
		s.logger.Warn("transcript turns no longer alternate", "messages", s.transcript.Len())
	}

	chain := prompt.Build(s.cfg.SystemPrompt, s.transcript.Messages())
	s.logger.Debug("turn started", "query_runes", util.RuneLen(query), "chain", chain.Len())

	stats := model.NewStatistics()
	fragments := 0
	reply, err := s.relay.Run(ctx, relay.Request{Chain: chain, Format: s.cfg.Format}, func(ev relay.Event) {
		if ev.State == relay.StateStreaming && ev.Total != "" {
			stats.RecordFirstToken()
		}
		fragments = ev.Fragments
		if obs != nil {
			obs(ev)
		}
	})
	if err != nil {
		s.logger.Warn("turn failed", "class", relay.Classify(err), "error", err)
		return model.Message{}, err
	}

	stats.Finalize(fragments)
	if reply == "" {
		s.logger.Warn("backend returned an empty reply")
	}

	msg := model.NewAssistantMessage(reply).WithStats(*stats)
	if _, err := s.transcript.Append(msg); err != nil {
		return model.Message{}, err
	}
	s.turns.Add(1)

	s.logger.Info("turn complete",
		"reply_runes", util.RuneLen(reply),
		"fragments", fragments,
		"ttft", stats.TTFT.Round(time.Millisecond),
		"duration", stats.TotalDuration.Round(time.Millisecond))
	return msg, nil
}
