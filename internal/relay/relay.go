// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay turns a backend's fragment stream into a sequence of
// running totals for the in-progress assistant reply.
//
// Each value produced by the relay is the complete text received so far,
// not a delta. Consumers replace what they display with the latest total.
//
// # State Machine
//
//	Idle -> Requesting -> Streaming -> Done
//	             |             |
//	             +-> Failed <--+
//
// # Usage
//
//	r := relay.New(backend, logger)
//	for total, err := range r.Totals(ctx, relay.Request{Chain: chain}) {
//	    if err != nil {
//	        return err
//	    }
//	    render(total)
//	}
package relay

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/companion-tui/internal/prompt"
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of one relay request.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRequesting:
		return "Requesting"
	case StateStreaming:
		return "Streaming"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// =============================================================================
// BACKEND CAPABILITY
// =============================================================================

// Request is one completion request.
type Request struct {
	Chain  prompt.Chain
	Format prompt.Format
}

// FragmentStream is a finite, ordered, non-restartable sequence of fragments.
// Usage mirrors bufio.Scanner:
//
//	for s.Next() {
//	    f := s.Fragment()
//	}
//	if err := s.Err(); err != nil { ... }
type FragmentStream interface {
	Next() bool
	Fragment() Fragment
	Err() error
	Close() error
}

// Backend opens streaming completions.
type Backend interface {
	// Stream sends the request and returns the fragment stream. Errors
	// returned here should wrap ErrBackendUnavailable.
	Stream(ctx context.Context, req Request) (FragmentStream, error)
	// Name identifies the backend in logs and the UI.
	Name() string
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is emitted on every state transition and after every update of
// the accumulated output.
type Event struct {
	State     State
	Total     string
	Fragments int
	Err       error
}

// Observer receives relay events on the goroutine running the request.
type Observer func(Event)

// =============================================================================
// RELAY
// =============================================================================

// Relay drives requests against a backend. A Relay may be reused for many
// requests; each request gets its own accumulator.
type Relay struct {
	backend  Backend
	logger   *slog.Logger
	progress *rate.Sometimes
}

// New creates a relay over backend. A nil logger discards output.
func New(backend Backend, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relay{
		backend:  backend,
		logger:   logger.With("backend", backend.Name()),
		progress: &rate.Sometimes{Interval: time.Second},
	}
}

// Backend returns the backend the relay talks to.
func (r *Relay) Backend() Backend {
	return r.backend
}

// Totals returns the running totals of one request. Every yielded total
// strictly extends the previous one; empty fragments produce no value.
// On failure the last total is yielded once with the error and the
// sequence ends. Breaking out of the loop closes the stream.
func (r *Relay) Totals(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var acc Accumulator
		r.stream(ctx, req, &acc, nil, yield)
	}
}

// Run drives one request to completion, reporting progress to obs, and
// returns the final total. On failure the partial total is returned with
// the error; callers must not commit it.
func (r *Relay) Run(ctx context.Context, req Request, obs Observer) (string, error) {
	if obs == nil {
		obs = func(Event) {}
	}

	var acc Accumulator
	var failure error

	obs(Event{State: StateRequesting})
	opened := func() {
		obs(Event{State: StateStreaming})
	}

	r.stream(ctx, req, &acc, opened, func(total string, err error) bool {
		if err != nil {
			failure = err
			return false
		}
		obs(Event{State: StateStreaming, Total: total, Fragments: acc.Fragments()})
		return true
	})

	if failure != nil {
		obs(Event{State: StateFailed, Total: acc.String(), Fragments: acc.Fragments(), Err: failure})
		return acc.String(), failure
	}
	obs(Event{State: StateDone, Total: acc.String(), Fragments: acc.Fragments()})
	return acc.String(), nil
}

// stream is the single fragment loop behind Totals and Run.
func (r *Relay) stream(ctx context.Context, req Request, acc *Accumulator, opened func(), yield func(string, error) bool) {
	start := time.Now()
	r.logger.Debug("relay request", "segments", req.Chain.Len(), "format", string(req.Format))

	fs, err := r.backend.Stream(ctx, req)
	if err != nil {
		if !classified(err) {
			err = Unavailable(err)
		}
		r.logger.Warn("relay request failed", "class", Classify(err), "error", err)
		yield("", err)
		return
	}
	defer fs.Close()

	if opened != nil {
		opened()
	}

	for fs.Next() {
		text, err := Normalize(fs.Fragment())
		if err != nil {
			r.fail(acc, err, start)
			yield(acc.String(), err)
			return
		}

		total, grew := acc.Append(text)
		r.progress.Do(func() {
			r.logger.Debug("relay progress", "fragments", acc.Fragments(), "bytes", acc.Len())
		})
		if !grew {
			continue
		}
		if !yield(total, nil) {
			r.logger.Debug("relay consumer stopped early", "fragments", acc.Fragments())
			return
		}
	}

	if err := fs.Err(); err != nil {
		if !classified(err) {
			err = Interrupted(err)
		}
		r.fail(acc, err, start)
		yield(acc.String(), err)
		return
	}

	r.logger.Info("relay done",
		"fragments", acc.Fragments(),
		"bytes", acc.Len(),
		"duration", time.Since(start).Round(time.Millisecond))
}

func (r *Relay) fail(acc *Accumulator, err error, start time.Time) {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelInfo
	}
	r.logger.Log(context.Background(), level, "relay stream failed",
		"class", Classify(err),
		"fragments", acc.Fragments(),
		"bytes", acc.Len(),
		"duration", time.Since(start).Round(time.Millisecond),
		"error", err)
}
