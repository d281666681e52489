// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"log/slog"

	"github.com/jeranaias/companion-tui/internal/prompt"
	"github.com/jeranaias/companion-tui/internal/relay"
)

// =============================================================================
// RELAY BACKEND
// =============================================================================

// BackendOptions are the inference options fixed for a session.
type BackendOptions struct {
	Model       string
	Temperature float64
	NumThread   int
}

// Backend adapts the native Ollama API to relay.Backend. Message-format
// requests go to /api/chat; text-format requests send the formatted chain
// as a single prompt to /api/generate.
type Backend struct {
	client *Client
	opts   BackendOptions
	logger *slog.Logger
}

// NewBackend creates a relay backend over client.
func NewBackend(client *Client, opts BackendOptions, logger *slog.Logger) *Backend {
	if opts.Model == "" {
		opts.Model = client.GetDefaultModel()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{client: client, opts: opts, logger: logger}
}

// Name implements relay.Backend.
func (b *Backend) Name() string { return "ollama" }

// Model returns the model the backend requests.
func (b *Backend) Model() string { return b.opts.Model }

// Client returns the underlying API client.
func (b *Backend) Client() *Client { return b.client }

// Stream implements relay.Backend.
func (b *Backend) Stream(ctx context.Context, req relay.Request) (relay.FragmentStream, error) {
	options := NewOptions(b.opts.Temperature, b.opts.NumThread)

	var (
		reader *StreamReader
		err    error
	)
	switch req.Format {
	case prompt.FormatText:
		reader, err = b.client.GenerateStream(ctx, GenerateRequest{
			Model:   b.opts.Model,
			Prompt:  req.Chain.Format(),
			Options: options,
		})
	default:
		reader, err = b.client.ChatStream(ctx, ChatRequest{
			Model:    b.opts.Model,
			Messages: ChainMessages(req.Chain),
			Options:  options,
		})
	}
	if err != nil {
		b.logger.Debug("ollama stream open failed", "model", b.opts.Model, "error", err)
		return nil, relay.Unavailable(err)
	}
	return &fragmentStream{reader: reader}, nil
}

// ChainMessages converts a prompt chain to Ollama chat messages.
func ChainMessages(chain prompt.Chain) []Message {
	segments := chain.Segments()
	messages := make([]Message, len(segments))
	for i, seg := range segments {
		messages[i] = Message{Role: seg.Role.String(), Content: seg.Content}
	}
	return messages
}

// fragmentStream exposes a StreamReader as relay fragments.
type fragmentStream struct {
	reader *StreamReader
}

func (f *fragmentStream) Next() bool {
	return f.reader.Next()
}

func (f *fragmentStream) Fragment() relay.Fragment {
	chunk := f.reader.Chunk()
	return relay.StructuredChunk{Content: chunk.Content, Metadata: chunk.Metadata()}
}

func (f *fragmentStream) Err() error {
	err := f.reader.Err()
	switch {
	case err == nil:
		return nil
	case IsMalformed(err):
		return relay.Malformed(err)
	default:
		return relay.Interrupted(err)
	}
}

func (f *fragmentStream) Close() error {
	return f.reader.Close()
}
