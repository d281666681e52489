// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session that owns one transcript.
//
// A Session runs one turn at a time: it commits the user's query, builds
// the prompt chain from the whole transcript, drives the relay, and
// commits the assistant reply only when the stream finishes cleanly.
//
// # Key Types
//
//   - Session: Transcript owner and turn runner
//   - Config: System instruction, greeting, and prompt format
//
// # Usage
//
//	s := session.New(session.Config{
//	    SystemPrompt: cfg.Chat.SystemPrompt,
//	    Greeting:     cfg.Chat.Greeting,
//	}, relay.New(backend, logger), logger)
//
//	reply, err := s.Submit(ctx, "What is a for-loop?", func(ev relay.Event) {
//	    render(ev.Total)
//	})
package session
