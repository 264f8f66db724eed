// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thinking

import (
	"strings"
	"sync"
)

// =============================================================================
// STREAMING CONTENT
// =============================================================================

// StreamingContent accumulates streamed chunks for one thinking turn.
//
// Producers append from any goroutine while the render loop reads the
// concatenation. Each chunk is appended atomically, so a reader never sees a
// partial chunk.
type StreamingContent struct {
	mu     sync.Mutex
	chunks []string
}

// NewStreamingContent creates an empty accumulator.
func NewStreamingContent() *StreamingContent {
	return &StreamingContent{}
}

// Append adds a chunk. Thread-safe.
func (s *StreamingContent) Append(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunk)
}

// Content returns every chunk appended since the last Clear, concatenated
// in append order. Thread-safe.
func (s *StreamingContent) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.chunks, "")
}

// Clear drops all chunks. Thread-safe.
func (s *StreamingContent) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
}

// Len returns the number of chunks, not characters. Thread-safe.
func (s *StreamingContent) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Source returns a ContentSource that reads this accumulator.
func (s *StreamingContent) Source() ContentSource {
	return s.Content
}
