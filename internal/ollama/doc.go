// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
//
// This package implements a client for the Ollama local LLM server covering
// health checks, model listing, and streaming chat and generate requests,
// plus a relay.Backend adapter used by the chat session.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - ClientError: Typed error with ErrorType for classification
//   - StreamReader: NDJSON reader for streaming responses
//   - Backend: relay.Backend over /api/chat and /api/generate
//
// # Usage
//
// Create a client and stream a chat:
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: "http://localhost:11434"})
//	reader, err := client.ChatStream(ctx, ollama.ChatRequest{
//	    Model:    "deepseek-r1:1.5b",
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	})
//	if err != nil {
//	    return err
//	}
//	defer reader.Close()
//	for reader.Next() {
//	    fmt.Print(reader.Chunk().Content)
//	}
//	return reader.Err()
package ollama
