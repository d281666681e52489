// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// maxLineSize bounds one NDJSON record.
const maxLineSize = 1 << 20

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
//
//	for r.Next() {
//	    chunk := r.Chunk()
//	}
//	if err := r.Err(); err != nil { ... }
//
// Next returns false after the record with done=true, at end of body, or
// on the first error. An {"error": ...} record, a read error, and end of
// body before the done record all surface through Err as ErrTypeStream.
// A line that is not valid JSON surfaces as ErrTypeInvalidResponse.
type StreamReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	chunk   StreamChunk
	model   string
	chunks  int
	done    bool
	err     error
	start   time.Time
}

// NewStreamReader creates a new stream reader over an NDJSON body.
func NewStreamReader(body io.ReadCloser) *StreamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &StreamReader{
		body:    body,
		scanner: scanner,
		start:   time.Now(),
	}
}

// Next advances to the next chunk.
func (s *StreamReader) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		// Skip empty lines
		if len(line) == 0 {
			continue
		}

		var record streamLine
		if err := json.Unmarshal(line, &record); err != nil {
			s.err = &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed stream record", Cause: err}
			return false
		}
		if record.Error != "" {
			s.err = &ClientError{Type: ErrTypeStream, Message: record.Error}
			return false
		}

		if record.Model != "" {
			s.model = record.Model
		}
		s.chunk = StreamChunk{
			Content:    record.content(),
			Model:      s.model,
			Done:       record.Done,
			DoneReason: record.DoneReason,
		}
		// On completion, extract statistics
		if record.Done {
			s.chunk.TotalDuration = time.Duration(record.TotalDuration)
			s.chunk.LoadDuration = time.Duration(record.LoadDuration)
			s.chunk.PromptEvalDuration = time.Duration(record.PromptEvalDuration)
			s.chunk.EvalDuration = time.Duration(record.EvalDuration)
			s.chunk.PromptTokens = record.PromptEvalCount
			s.chunk.CompletionTokens = record.EvalCount
			s.done = true
		}
		s.chunks++
		return true
	}

	if err := s.scanner.Err(); err != nil {
		s.err = &ClientError{Type: ErrTypeStream, Message: "stream read failed", Cause: err}
		return false
	}
	s.err = &ClientError{Type: ErrTypeStream, Message: "stream ended before completion", Cause: io.ErrUnexpectedEOF}
	return false
}

// Chunk returns the chunk read by the last successful Next.
func (s *StreamReader) Chunk() StreamChunk {
	return s.chunk
}

// Err returns the error that stopped the stream, or nil after a clean finish.
func (s *StreamReader) Err() error {
	return s.err
}

// Done reports whether the terminal record has been read.
func (s *StreamReader) Done() bool {
	return s.done
}

// Chunks returns the number of records read.
func (s *StreamReader) Chunks() int {
	return s.chunks
}

// Model returns the model name reported by the stream.
func (s *StreamReader) Model() string {
	return s.model
}

// Elapsed returns the time since the reader was created.
func (s *StreamReader) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Close releases the response body. It is safe to call more than once.
func (s *StreamReader) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// IsMalformed reports whether err came from a stream record that was not valid JSON.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}
