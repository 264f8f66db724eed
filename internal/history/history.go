// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps the durable log of everything a session displayed.
//
// The log is an ordered list of (style, text) fragments. In prompt mode the
// same output scrolls past in the terminal; in fullscreen mode the log is
// rendered as a scrollable view, so it has to hold every write in order.
package history

import (
	"strings"
	"sync"
)

// Fragment is one run of text with a style tag.
type Fragment struct {
	Style string
	Text  string
}

// Fragments is an ordered run of fragments.
type Fragments []Fragment

// PlainText concatenates the fragment texts without styling.
func (f Fragments) PlainText() string {
	var b strings.Builder
	for _, frag := range f {
		b.WriteString(frag.Text)
	}
	return b.String()
}

// =============================================================================
// FORMATTED TEXT HISTORY
// =============================================================================

// History is a thread-safe, append-only log of fragments.
//
// Every mutation calls the change callback once per call, after the lock is
// released. The callback may therefore read or even append to the history.
type History struct {
	mu        sync.Mutex
	fragments []Fragment
	onChange  func()
}

// New creates an empty history.
func New() *History {
	return &History{}
}

// OnChange registers the callback run after each mutation. Pass nil to clear it.
// Thread-safe.
func (h *History) OnChange(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Append adds one fragment. Thread-safe.
func (h *History) Append(style, text string) {
	h.mu.Lock()
	h.fragments = append(h.fragments, Fragment{Style: style, Text: text})
	notify := h.onChange
	h.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// AppendFormatted adds a run of fragments as one unit. No other append can
// land between them. Thread-safe.
func (h *History) AppendFormatted(frags []Fragment) {
	h.mu.Lock()
	h.fragments = append(h.fragments, frags...)
	notify := h.onChange
	h.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Clear removes every fragment. Thread-safe.
func (h *History) Clear() {
	h.mu.Lock()
	h.fragments = nil
	notify := h.onChange
	h.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Formatted returns a snapshot copy of the log. Later appends never change a
// returned snapshot. Thread-safe.
func (h *History) Formatted() Fragments {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := make(Fragments, len(h.fragments))
	copy(snapshot, h.fragments)
	return snapshot
}

// Len returns the number of fragments. Thread-safe.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fragments)
}

// IsEmpty reports whether the log has no fragments. Thread-safe.
func (h *History) IsEmpty() bool {
	return h.Len() == 0
}
