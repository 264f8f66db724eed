// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/jeranaias/thinkprompt/internal/ui/styles"
)

// Width hints for Dialog.Width.
const (
	WidthAuto = 0
	WidthFull = -1
)

// =============================================================================
// ESCAPE RESULT
// =============================================================================

// EscapeResult is what Escape resolves a dialog with. The zero value means
// Escape is disabled, which is distinct from EscapeWith(nil).
type EscapeResult struct {
	enabled bool
	value   any
}

// EscapeDisabled makes Escape a no-op for the dialog.
func EscapeDisabled() EscapeResult {
	return EscapeResult{}
}

// EscapeWith makes Escape resolve the dialog with v. v may be nil.
func EscapeWith(v any) EscapeResult {
	return EscapeResult{enabled: true, value: v}
}

// Enabled reports whether Escape resolves the dialog.
func (e EscapeResult) Enabled() bool {
	return e.enabled
}

// Value returns the configured escape value, nil when disabled.
func (e EscapeResult) Value() any {
	return e.value
}

// =============================================================================
// BODY
// =============================================================================

// Body renders the content between the title and the buttons.
type Body interface {
	View(theme *styles.Theme, width int) string
}

// Interactive is implemented by bodies that take keyboard focus.
// HandleKey reports whether the key was consumed.
type Interactive interface {
	Body
	HandleKey(msg tea.KeyMsg) bool
}

// Editor is implemented by bodies with an edit sub-mode. While Editing
// reports true the body receives every key, Escape included.
type Editor interface {
	Editing() bool
}

// Text is a static body.
type Text string

// View renders the text wrapped to width.
func (t Text) View(theme *styles.Theme, width int) string {
	if theme == nil {
		return wrapText(string(t), width)
	}
	return theme.DialogBody.Render(wrapText(string(t), width))
}

// =============================================================================
// BUTTONS
// =============================================================================

// Button is a label plus the action run when it is pressed.
type Button struct {
	Label  string
	Action func()
}

// ButtonConfig describes a button that resolves its dialog with Result.
type ButtonConfig struct {
	Text    string
	Result  any
	Focused bool
}

// Config describes a dialog by composition. A string Body becomes Text.
type Config struct {
	Title   string
	Body    any
	Buttons []ButtonConfig
	Escape  EscapeResult
	Width   int
	Top     *int
}

// =============================================================================
// DIALOG
// =============================================================================

// Dialog is one modal interaction. Create it with New or FromConfig, or
// through one of the built-in constructors.
type Dialog struct {
	ID      string
	Title   string
	Body    Body
	Buttons []Button
	Escape  EscapeResult

	// Width is WidthAuto, WidthFull or a preferred width that shrinks to
	// the terminal.
	Width int

	// Top is nil for centred, >= 0 rows from the top, < 0 rows from the bottom.
	Top *int

	mu      sync.Mutex
	pending *Pending
	focus   int // -1 is the body, otherwise a button index
	initial int
}

// New creates a dialog whose Escape resolves with nil. Set Escape to
// EscapeDisabled() to turn Escape off.
func New(title string, body Body, buttons ...Button) *Dialog {
	return &Dialog{
		ID:      uuid.NewString(),
		Title:   title,
		Body:    body,
		Buttons: buttons,
		Escape:  EscapeWith(nil),
	}
}

// FromConfig builds a dialog from a Config. Each button resolves the dialog
// with its Result; the last button marked Focused gets initial focus.
func FromConfig(cfg Config) *Dialog {
	var body Body
	switch b := cfg.Body.(type) {
	case Body:
		body = b
	case string:
		body = Text(b)
	case nil:
		body = Text("")
	}

	d := &Dialog{
		ID:     uuid.NewString(),
		Title:  cfg.Title,
		Body:   body,
		Escape: cfg.Escape,
		Width:  cfg.Width,
		Top:    cfg.Top,
	}
	for i, bc := range cfg.Buttons {
		result := bc.Result
		d.Buttons = append(d.Buttons, Button{
			Label:  bc.Text,
			Action: func() { d.SetResult(result) },
		})
		if bc.Focused {
			d.initial = i
		}
	}
	return d
}

// TopOffset is a convenience for Dialog.Top.
func TopOffset(rows int) *int {
	return &rows
}

// SetResult resolves the dialog with v. Only the first call after the
// dialog is shown has any effect. Thread-safe.
func (d *Dialog) SetResult(v any) {
	d.mu.Lock()
	p := d.pending
	d.mu.Unlock()
	if p != nil {
		p.Resolve(v)
	}
}

// Cancel resolves the dialog with its escape value, nil when Escape is
// disabled.
func (d *Dialog) Cancel() {
	d.SetResult(d.Escape.Value())
}

// Resolved reports whether the current showing has been resolved.
func (d *Dialog) Resolved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil && d.pending.IsResolved()
}

// prepare attaches a fresh pending result and resets focus.
func (d *Dialog) prepare() *Pending {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = NewPending()
	d.focus = d.initial
	if _, ok := d.Body.(Interactive); ok {
		d.focus = -1
	}
	if len(d.Buttons) == 0 {
		d.focus = -1
	}
	return d.pending
}

// FocusedButton returns the index of the focused button, or -1 when the
// body has focus.
func (d *Dialog) FocusedButton() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focus
}

// moveFocus cycles focus through the body (when interactive) and buttons.
func (d *Dialog) moveFocus(delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stops := len(d.Buttons)
	first := 0
	if _, ok := d.Body.(Interactive); ok {
		first = -1
		stops++
	}
	if stops == 0 {
		return
	}
	pos := d.focus - first
	pos = ((pos+delta)%stops + stops) % stops
	d.focus = pos + first
}

// press runs the focused button's action.
func (d *Dialog) press() bool {
	d.mu.Lock()
	idx := d.focus
	var action func()
	if idx >= 0 && idx < len(d.Buttons) {
		action = d.Buttons[idx].Action
	}
	d.mu.Unlock()

	if action == nil {
		return false
	}
	action()
	return true
}

// wrapText word-wraps to width, hard-breaking words that are still too long.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wrap.String(wordwrap.String(text, width), width)
}
