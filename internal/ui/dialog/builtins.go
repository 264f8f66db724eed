// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/thinkprompt/internal/ui/styles"
)

// =============================================================================
// BUILT-IN DIALOGS
// =============================================================================

// YesNo asks a confirmation question. It resolves with true or false;
// Escape resolves with false. Empty labels default to "Yes" and "No".
func YesNo(title, text, yesText, noText string) *Dialog {
	if yesText == "" {
		yesText = "Yes"
	}
	if noText == "" {
		noText = "No"
	}
	d := New(title, Text(text))
	d.Buttons = []Button{
		{Label: yesText, Action: func() { d.SetResult(true) }},
		{Label: noText, Action: func() { d.SetResult(false) }},
	}
	d.Escape = EscapeWith(false)
	return d
}

// Message shows text with a single OK button. It resolves with nil, as
// does Escape.
func Message(title, text, okText string) *Dialog {
	if okText == "" {
		okText = "OK"
	}
	d := New(title, Text(text))
	d.Buttons = []Button{
		{Label: okText, Action: func() { d.SetResult(nil) }},
	}
	d.Escape = EscapeWith(nil)
	return d
}

// Choice offers one button per choice and resolves with the chosen string.
// Escape resolves with nil.
func Choice(title, text string, choices []string) *Dialog {
	d := New(title, Text(text))
	for _, c := range choices {
		choice := c
		d.Buttons = append(d.Buttons, Button{
			Label:  choice,
			Action: func() { d.SetResult(choice) },
		})
	}
	d.Escape = EscapeWith(nil)
	return d
}

// Dropdown lets the user pick one option from a list. OK resolves with the
// selected option, Cancel and Escape with nil. defaultOption is
// preselected when it is one of the options.
func Dropdown(title, text string, options []string, defaultOption string) *Dialog {
	list := NewRadioList(text, options, defaultOption)
	d := New(title, list)
	list.OnSubmit = func(v string) { d.SetResult(v) }
	d.Buttons = []Button{
		{Label: "OK", Action: func() { d.SetResult(list.Value()) }},
		{Label: "Cancel", Action: d.Cancel},
	}
	d.Escape = EscapeWith(nil)
	return d
}

// =============================================================================
// RADIO LIST
// =============================================================================

// RadioList is an interactive body holding a label and a single-choice
// list. Up and down move the selection, wrapping at both ends; Enter
// calls OnSubmit.
type RadioList struct {
	Label    string
	OnSubmit func(value string)

	mu       sync.Mutex
	options  []string
	selected int
}

// NewRadioList creates a list with defaultOption selected, or the first
// option when defaultOption is not in options.
func NewRadioList(label string, options []string, defaultOption string) *RadioList {
	r := &RadioList{Label: label, options: append([]string(nil), options...)}
	for i, o := range options {
		if o == defaultOption {
			r.selected = i
			break
		}
	}
	return r
}

// Value returns the selected option, "" for an empty list.
func (r *RadioList) Value() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.options) == 0 {
		return ""
	}
	return r.options[r.selected]
}

// Move shifts the selection by delta with wrap-around.
func (r *RadioList) Move(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.options)
	if n == 0 {
		return
	}
	r.selected = ((r.selected+delta)%n + n) % n
}

// HandleKey implements Interactive.
func (r *RadioList) HandleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "up", "k":
		r.Move(-1)
	case "down", "j":
		r.Move(1)
	case "enter", " ":
		if r.OnSubmit != nil {
			r.OnSubmit(r.Value())
		}
	default:
		return false
	}
	return true
}

// View implements Body.
func (r *RadioList) View(theme *styles.Theme, width int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	if r.Label != "" {
		b.WriteString(Text(r.Label).View(theme, width))
		b.WriteString("\n")
	}
	for i, o := range r.options {
		if i > 0 {
			b.WriteString("\n")
		}
		mark := "( ) "
		if i == r.selected {
			mark = "(*) "
		}
		line := mark + o
		switch {
		case theme == nil:
		case i == r.selected:
			line = theme.MenuSelected.Render(line)
		default:
			line = theme.MenuItem.Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}
