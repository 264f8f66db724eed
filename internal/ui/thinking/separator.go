// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thinking

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/thinkprompt/internal/util"
)

// =============================================================================
// THINKING SEPARATOR
// =============================================================================

// Separator is the animated line drawn above the thinking panel:
//
//	─── ⠋ Thinking ──────────────   frame before text
//	─── Processing ... ──────────   frame after text
//	─── ⠋ ───────────────────────   frame only
//	─────────────────────────────   neither
//
// The frames are driven by a bubbles spinner. Feed it every tea.Msg through
// Update and start it with Tick when a turn begins.
type Separator struct {
	text       string
	frames     []string
	after      bool
	borderChar string
	interval   time.Duration
	spin       spinner.Model
}

// SeparatorOptions configures a Separator. Empty Frames disables the
// animation and empty Text disables the label.
type SeparatorOptions struct {
	Text     string
	Frames   []string
	After    bool
	Interval time.Duration
}

// NewSeparator creates a separator.
func NewSeparator(opts SeparatorOptions) *Separator {
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	s := &Separator{
		text:       opts.Text,
		frames:     append([]string(nil), opts.Frames...),
		after:      opts.After,
		borderChar: "─",
		interval:   opts.Interval,
	}
	s.spin = s.newSpinner()
	return s
}

func (s *Separator) newSpinner() spinner.Model {
	return spinner.New(spinner.WithSpinner(spinner.Spinner{
		Frames: s.frames,
		FPS:    s.interval,
	}))
}

// Animated reports whether the separator has frames to cycle.
func (s *Separator) Animated() bool {
	return len(s.frames) > 0
}

// Tick starts the animation. It returns nil when there are no frames.
func (s *Separator) Tick() tea.Cmd {
	if !s.Animated() {
		return nil
	}
	return s.spin.Tick
}

// Reset rewinds to the first frame and returns the command that restarts
// the animation. Ticks from before the reset are ignored.
func (s *Separator) Reset() tea.Cmd {
	s.spin = s.newSpinner()
	return s.Tick()
}

// Update advances the frame on the separator's own spinner ticks.
func (s *Separator) Update(msg tea.Msg) tea.Cmd {
	if !s.Animated() {
		return nil
	}
	var cmd tea.Cmd
	s.spin, cmd = s.spin.Update(msg)
	return cmd
}

// Frame returns the current animation frame, or "" without animation.
func (s *Separator) Frame() string {
	if !s.Animated() {
		return ""
	}
	return s.spin.View()
}

// Label returns the text and frame combined in configured order.
func (s *Separator) Label() string {
	frame := s.Frame()
	switch {
	case frame != "" && s.text != "":
		if s.after {
			return s.text + " " + frame
		}
		return frame + " " + s.text
	case frame != "":
		return frame
	default:
		return s.text
	}
}

// View draws the separator at width columns. The label sits after a short
// left margin of at most three border characters.
func (s *Separator) View(width int) string {
	label := s.Label()
	if label != "" {
		label = " " + label + " "
	}

	remaining := width - util.StringWidth(label)
	if remaining < 0 {
		remaining = 0
	}
	left := 3
	if remaining < left {
		left = remaining
	}
	return strings.Repeat(s.borderChar, left) + label + strings.Repeat(s.borderChar, remaining-left)
}
