// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/thinkprompt/internal/ui/styles"
)

// =============================================================================
// FORM
// =============================================================================

// Form is the body of a settings dialog: one Control per Item, one selected
// at a time. It implements dialog.Interactive and dialog.Editor.
type Form struct {
	mu       sync.Mutex
	controls []Control
	selected int
	original map[string]any
}

// NewForm builds controls for items. Keys must be unique.
func NewForm(items []Item) (*Form, error) {
	f := &Form{original: make(map[string]any, len(items))}
	for _, item := range items {
		if err := item.validate(); err != nil {
			return nil, err
		}
		if _, dup := f.original[item.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, item.Key)
		}
		c := NewControl(item)
		f.controls = append(f.controls, c)
		f.original[item.Key] = c.Value()
	}
	return f, nil
}

// Values returns every current value by key. Thread-safe.
func (f *Form) Values() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]any, len(f.controls))
	for _, c := range f.controls {
		out[c.Item().Key] = c.Value()
	}
	return out
}

// Changes returns the values that differ from those at construction. The
// map is empty, not nil, when nothing changed. Thread-safe.
func (f *Form) Changes() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]any)
	for _, c := range f.controls {
		key := c.Item().Key
		if v := c.Value(); v != f.original[key] {
			out[key] = v
		}
	}
	return out
}

// Selected returns the index of the selected control.
func (f *Form) Selected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// Control returns the control for key, or nil.
func (f *Form) Control(key string) Control {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.controls {
		if c.Item().Key == key {
			return c
		}
	}
	return nil
}

// Editing reports whether the selected control is in an edit sub-mode.
func (f *Form) Editing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editingLocked()
}

func (f *Form) editingLocked() bool {
	if f.selected >= len(f.controls) {
		return false
	}
	return f.controls[f.selected].Editing()
}

// HandleKey gives the key to the selected control; up and down move the
// selection (clamped) when the control does not take them.
func (f *Form) HandleKey(msg tea.KeyMsg) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.controls) == 0 {
		return false
	}

	current := f.controls[f.selected]
	if current.Editing() {
		return current.HandleKey(msg)
	}

	switch msg.String() {
	case "up", "k":
		if f.selected > 0 {
			f.selected--
		}
		return true
	case "down", "j":
		if f.selected < len(f.controls)-1 {
			f.selected++
		}
		return true
	}
	return current.HandleKey(msg)
}

// View renders one row per control, each followed by its description.
func (f *Form) View(theme *styles.Theme, width int) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var b strings.Builder
	for i, c := range f.controls {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.View(theme, width, i == f.selected))
		if desc := c.Item().Description; desc != "" {
			line := "    " + desc
			if theme != nil {
				line = theme.SettingDesc.Render(line)
			}
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}
