// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thinking

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/jeranaias/thinkprompt/internal/history"
	"github.com/jeranaias/thinkprompt/internal/logging"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
	"github.com/jeranaias/thinkprompt/internal/util"
)

// ContentSource returns the current full content of a thinking turn.
// It may be called from the render loop at any time, so it must be safe to
// call concurrently with whatever produces the content.
type ContentSource func() string

// ErrMaxLinesTooSmall is returned for a collapsed height below 2, which
// leaves no room for one content line plus the hint line.
var ErrMaxLinesTooSmall = errors.New("max collapsed lines must be at least 2")

// MinCollapsedLines is the smallest usable collapsed height.
const MinCollapsedLines = 2

// =============================================================================
// THINKING BOX CONTROL
// =============================================================================

// Control is the state machine behind the thinking panel.
//
// One Control lives for the whole session; each Start begins a new turn.
// The mutex guards only the Control's own fields. The ContentSource is
// responsible for its own thread safety.
type Control struct {
	mu       sync.Mutex
	source   ContentSource
	expanded bool

	maxLines  int
	expandKey string
}

// NewControl creates an inactive control. maxCollapsedLines caps the
// collapsed panel including its hint line. expandKey is the key chord shown in
// the hint, in bubbletea ("ctrl+t") or short ("c-t") notation.
func NewControl(maxCollapsedLines int, expandKey string) (*Control, error) {
	if maxCollapsedLines < MinCollapsedLines {
		return nil, fmt.Errorf("%w: got %d", ErrMaxLinesTooSmall, maxCollapsedLines)
	}
	return &Control{
		maxLines:  maxCollapsedLines,
		expandKey: expandKey,
	}, nil
}

// Start attaches a content source and collapses the panel. Calling Start on
// an active control swaps the source. Thread-safe.
func (c *Control) Start(source ContentSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
	c.expanded = false
}

// Finish ends the turn. It returns the content at that moment and whether the
// panel was expanded, then detaches the source and collapses. Errors from
// the source are logged and yield "". Thread-safe.
func (c *Control) Finish() (content string, wasExpanded bool) {
	c.mu.Lock()
	source := c.source
	wasExpanded = c.expanded
	c.source = nil
	c.expanded = false
	c.mu.Unlock()

	// The source may call back into the control.
	return pull(source), wasExpanded
}

// IsActive reports whether a turn is in progress. Thread-safe.
func (c *Control) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source != nil
}

// IsExpanded reports whether the panel shows its full content. Thread-safe.
func (c *Control) IsExpanded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded
}

// Expand shows the full content. Thread-safe.
func (c *Control) Expand() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = true
}

// Collapse returns to the truncated view. Thread-safe.
func (c *Control) Collapse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = false
}

// ToggleExpanded flips between expanded and collapsed. The flag flips even
// when inactive; Start resets it before anything renders. Thread-safe.
func (c *Control) ToggleExpanded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = !c.expanded
}

// MaxCollapsedLines returns the collapsed height, hint line included.
func (c *Control) MaxCollapsedLines() int {
	return c.maxLines
}

// ExpandKeyDisplay returns the expand chord as shown in the hint ("ctrl-t").
func (c *Control) ExpandKeyDisplay() string {
	return KeyDisplay(c.expandKey)
}

// Content pulls the current content. It never panics: a failing source is
// logged and reads as "". Thread-safe.
func (c *Control) Content() string {
	source, _ := c.snapshot()
	return pull(source)
}

// CanToggleExpanded reports whether the expand key should be live: always
// when expanded, otherwise only while active with content overflowing the
// collapsed height. Evaluate it per keypress; streamed content can cross the
// threshold mid-turn. Thread-safe.
func (c *Control) CanToggleExpanded() bool {
	source, expanded := c.snapshot()
	if expanded {
		return true
	}
	if source == nil {
		return false
	}
	content := pull(source)
	if content == "" {
		return false
	}
	return len(util.SplitLines(content)) > c.maxLines-1
}

// ConsoleOutput returns the content as it should be printed once the turn is
// over. Blank content prints nothing. Collapsed content longer than the
// panel is cut to MaxCollapsedLines-1 lines followed by "...". Thread-safe.
func (c *Control) ConsoleOutput() string {
	source, expanded := c.snapshot()
	content := pull(source)
	if util.IsBlank(content) {
		return ""
	}
	if expanded {
		return strings.TrimRightFunc(content, unicode.IsSpace)
	}
	return util.TruncateToLines(content, c.maxLines-1, "...")
}

// Formatted returns the fragments for the live panel. A collapsed panel that
// overflows shows MaxCollapsedLines-1 lines and a hint fragment such as
// "+12 lines... ctrl-t to expand". Thread-safe.
func (c *Control) Formatted() history.Fragments {
	source, expanded := c.snapshot()
	if source == nil {
		return nil
	}
	content := pull(source)
	if content == "" {
		return nil
	}

	lines := util.SplitLines(content)
	shown := c.maxLines - 1
	if expanded || len(lines) <= shown {
		return history.Fragments{{Style: styles.TagThinkingBox, Text: content}}
	}

	hidden := len(lines) - shown
	return history.Fragments{
		{Style: styles.TagThinkingBox, Text: strings.Join(lines[:shown], "\n") + "\n"},
		{Style: styles.TagThinkingHint, Text: fmt.Sprintf("+%d lines... %s to expand", hidden, c.ExpandKeyDisplay())},
	}
}

// LineCount returns how many rows the content occupies at width, counting
// wrapped lines. Thread-safe.
func (c *Control) LineCount(width int) int {
	return util.CountWrappedLines(c.Content(), width)
}

func (c *Control) snapshot() (ContentSource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source, c.expanded
}

// pull calls source, recovering from a panic.
func pull(source ContentSource) (content string) {
	if source == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Printf("CONTENT_SOURCE_PANIC | error=%v", r)
			content = ""
		}
	}()
	return source()
}

// KeyDisplay formats a key chord for hints: "ctrl+t" and "c-t" both become
// "ctrl-t". Other chords are returned as given.
func KeyDisplay(key string) string {
	switch {
	case strings.HasPrefix(key, "c-"):
		return "ctrl-" + key[2:]
	case strings.HasPrefix(key, "ctrl+"):
		return "ctrl-" + key[5:]
	}
	return key
}
