// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openaicompat streams completions from an OpenAI-compatible
// chat completions endpoint, such as the one Ollama serves under /v1.
package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"

	"github.com/jeranaias/companion-tui/internal/model"
	"github.com/jeranaias/companion-tui/internal/prompt"
	"github.com/jeranaias/companion-tui/internal/relay"
)

// placeholderAPIKey is sent because the client requires a key; Ollama ignores it.
const placeholderAPIKey = "ollama"

// Config configures the backend.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:11434. "/v1" is
	// appended unless already present.
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Backend implements relay.Backend over /v1/chat/completions.
type Backend struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

// New creates a backend from cfg.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("model is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base URL is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = placeholderAPIKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(apiBaseURL(cfg.BaseURL)),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}

	return &Backend{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func apiBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}

// Name implements relay.Backend.
func (b *Backend) Name() string { return "openai" }

// Model returns the model the backend requests.
func (b *Backend) Model() string { return b.model }

// Stream implements relay.Backend.
func (b *Backend) Stream(ctx context.Context, req relay.Request) (relay.FragmentStream, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(b.model),
		Messages:    buildMessages(req),
		Temperature: openai.Float(b.temperature),
	}

	stream := b.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		b.logger.Debug("openai stream open failed", "model", b.model, "error", err)
		return nil, relay.Unavailable(err)
	}
	return &chunkStream{stream: stream}, nil
}

func buildMessages(req relay.Request) []openai.ChatCompletionMessageParamUnion {
	if req.Format == prompt.FormatText {
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Chain.Format())}
	}

	segments := req.Chain.Segments()
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(segments))
	for _, seg := range segments {
		messages = append(messages, toChatMessageParam(seg))
	}
	return messages
}

func toChatMessageParam(seg prompt.Segment) openai.ChatCompletionMessageParamUnion {
	switch seg.Role {
	case model.RoleSystem:
		return openai.SystemMessage(seg.Content)
	case model.RoleAssistant:
		return openai.AssistantMessage(seg.Content)
	default:
		return openai.UserMessage(seg.Content)
	}
}

// chunkStream exposes SSE chunks as relay fragments. A stream that ends
// without a finish reason is reported as interrupted.
type chunkStream struct {
	stream   *ssestream.Stream[openai.ChatCompletionChunk]
	finished bool
	err      error
}

func (s *chunkStream) Next() bool {
	if !s.stream.Next() {
		return false
	}
	chunk := s.stream.Current()
	for _, choice := range chunk.Choices {
		if choice.FinishReason != "" {
			s.finished = true
		}
	}
	return true
}

func (s *chunkStream) Fragment() relay.Fragment {
	chunk := s.stream.Current()
	if len(chunk.Choices) == 0 {
		return relay.PlainText("")
	}
	return relay.PlainText(chunk.Choices[0].Delta.Content)
}

func (s *chunkStream) Err() error {
	if s.err != nil {
		return s.err
	}
	err := s.stream.Err()
	switch {
	case err == nil && !s.finished:
		s.err = relay.Interrupted(fmt.Errorf("stream ended before completion: %w", io.ErrUnexpectedEOF))
	case err == nil:
		return nil
	case isDecodeError(err):
		s.err = relay.Malformed(err)
	default:
		s.err = relay.Interrupted(err)
	}
	return s.err
}

func (s *chunkStream) Close() error {
	return s.stream.Close()
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

var _ relay.Backend = (*Backend)(nil)
