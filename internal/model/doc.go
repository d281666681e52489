// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat turns and the session transcript.
//
// # Key Types
//
//   - Role: Message role enumeration (system, user, assistant)
//   - Message: Immutable role-tagged chat turn with an ID and timestamp
//   - Statistics: Timing and fragment counts recorded for an assistant reply
//   - Transcript: Ordered, append-only history of one session, seeded with a greeting
//
// # Usage
//
//	t := model.NewTranscript("Hi! How can I help you code today?")
//	if _, err := t.Append(model.NewUserMessage("What is a for-loop?")); err != nil {
//	    return err
//	}
//	for _, msg := range t.Messages() {
//	    fmt.Println(msg.Role().DisplayName(), msg.Content())
//	}
package model
