// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relaytest provides a scripted in-memory relay.Backend for tests.
package relaytest

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/companion-tui/internal/relay"
)

// ErrScripted is the default failure injected by Backend.
var ErrScripted = errors.New("scripted failure")

// Backend replays a fixed fragment script.
//
// With OpenErr set, Stream fails before any fragment. With FailAt >= 0,
// the stream yields FailAt fragments and then fails with StreamErr.
type Backend struct {
	Fragments []relay.Fragment
	OpenErr   error
	FailAt    int
	StreamErr error

	// Gate, when non-nil, blocks Stream until it is closed.
	Gate chan struct{}

	mu       sync.Mutex
	requests []relay.Request
	closed   int
}

// Texts builds a backend that streams each string as a PlainText fragment.
func Texts(texts ...string) *Backend {
	frags := make([]relay.Fragment, len(texts))
	for i, s := range texts {
		frags[i] = relay.PlainText(s)
	}
	return &Backend{Fragments: frags, FailAt: -1}
}

// Unavailable builds a backend whose Stream always fails.
func Unavailable(cause error) *Backend {
	if cause == nil {
		cause = ErrScripted
	}
	return &Backend{OpenErr: relay.Unavailable(cause), FailAt: -1}
}

// Name implements relay.Backend.
func (b *Backend) Name() string { return "scripted" }

// Stream implements relay.Backend.
func (b *Backend) Stream(ctx context.Context, req relay.Request) (relay.FragmentStream, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	if b.Gate != nil {
		select {
		case <-b.Gate:
		case <-ctx.Done():
			return nil, relay.Unavailable(ctx.Err())
		}
	}
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}

	frags := b.Fragments
	var failErr error
	if b.FailAt >= 0 && b.FailAt <= len(frags) {
		frags = frags[:b.FailAt]
		failErr = b.StreamErr
		if failErr == nil {
			failErr = relay.Interrupted(ErrScripted)
		}
	}
	return &stream{owner: b, frags: frags, failErr: failErr, pos: -1}, nil
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []relay.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]relay.Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Closed returns how many streams have been closed.
func (b *Backend) Closed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type stream struct {
	owner   *Backend
	frags   []relay.Fragment
	failErr error
	pos     int
	err     error
	done    bool
}

func (s *stream) Next() bool {
	if s.done {
		return false
	}
	s.pos++
	if s.pos < len(s.frags) {
		return true
	}
	s.done = true
	s.err = s.failErr
	return false
}

func (s *stream) Fragment() relay.Fragment {
	if s.pos < 0 || s.pos >= len(s.frags) {
		return nil
	}
	return s.frags[s.pos]
}

func (s *stream) Err() error { return s.err }

func (s *stream) Close() error {
	s.done = true
	s.owner.mu.Lock()
	s.owner.closed++
	s.owner.mu.Unlock()
	return nil
}
