// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/jeranaias/thinkprompt/internal/ui/styles"
	"github.com/jeranaias/thinkprompt/internal/util"
)

// Placeholder and mask shown for text values in view mode.
const (
	EmptyPlaceholder = "(empty)"
	PasswordMask     = "••••••"
)

// Control edits the value of one Item.
//
// HandleKey reports whether the key was consumed. While Editing reports
// true the control owns every key, Escape included.
type Control interface {
	Item() Item
	Value() any
	HandleKey(msg tea.KeyMsg) bool
	Editing() bool
	View(theme *styles.Theme, width int, selected bool) string
}

// NewControl creates the control for an item's kind.
func NewControl(item Item) Control {
	switch item.Kind {
	case KindDropdown:
		return &DropdownControl{choiceControl: newChoice(item)}
	case KindInlineSelect:
		return &InlineSelectControl{choiceControl: newChoice(item)}
	case KindCheckbox:
		v, _ := item.Default.(bool)
		return &CheckboxControl{item: item, value: v}
	default:
		v, _ := item.Default.(string)
		return newTextControl(item, v)
	}
}

// =============================================================================
// CHOICE CONTROLS
// =============================================================================

// choiceControl holds the shared state of the two select kinds. Cycling
// wraps at both ends.
type choiceControl struct {
	item  Item
	index int // -1 when the default is not one of the options
	value string
}

func newChoice(item Item) choiceControl {
	c := choiceControl{item: item, index: -1}
	if def, ok := item.Default.(string); ok {
		c.value = def
	} else if len(item.Options) > 0 {
		c.value = item.Options[0]
	}
	for i, o := range item.Options {
		if o == c.value {
			c.index = i
			break
		}
	}
	return c
}

func (c *choiceControl) Item() Item    { return c.item }
func (c *choiceControl) Value() any    { return c.value }
func (c *choiceControl) Editing() bool { return false }

// Cycle moves to the next (delta > 0) or previous option.
func (c *choiceControl) Cycle(delta int) {
	n := len(c.item.Options)
	if n == 0 {
		return
	}
	if c.index < 0 {
		if delta > 0 {
			c.index = 0
		} else {
			c.index = n - 1
		}
	} else {
		c.index = ((c.index+delta)%n + n) % n
	}
	c.value = c.item.Options[c.index]
}

// DropdownControl cycles on left/right and opens a popup list on Enter.
// In the popup up/down move, Enter confirms and Escape closes it unchanged.
type DropdownControl struct {
	choiceControl
	open   bool
	cursor int
}

// Editing reports whether the popup is open.
func (c *DropdownControl) Editing() bool { return c.open }

// HandleKey implements Control.
func (c *DropdownControl) HandleKey(msg tea.KeyMsg) bool {
	if c.open {
		n := len(c.item.Options)
		switch msg.String() {
		case "up", "k":
			c.cursor = (c.cursor - 1 + n) % n
		case "down", "j":
			c.cursor = (c.cursor + 1) % n
		case "enter", " ":
			c.index = c.cursor
			c.value = c.item.Options[c.index]
			c.open = false
		case "esc":
			c.open = false
		}
		return true
	}

	switch msg.String() {
	case "left", "h":
		c.Cycle(-1)
	case "right", "l":
		c.Cycle(1)
	case "enter", " ":
		if len(c.item.Options) == 0 {
			return false
		}
		c.open = true
		c.cursor = c.index
		if c.cursor < 0 {
			c.cursor = 0
		}
	default:
		return false
	}
	return true
}

// View implements Control.
func (c *DropdownControl) View(theme *styles.Theme, width int, selected bool) string {
	line := renderRow(theme, c.item.Label, width, selected, func(s lipgloss.Style) string {
		return s.Render(c.value + " ▾")
	})
	if !c.open {
		return line
	}

	var b strings.Builder
	b.WriteString(line)
	for i, o := range c.item.Options {
		b.WriteString("\n")
		mark := "    "
		if i == c.cursor {
			mark = "  > "
		}
		entry := mark + o
		if theme != nil {
			if i == c.cursor {
				entry = theme.MenuSelected.Render(entry)
			} else {
				entry = theme.MenuItem.Render(entry)
			}
		}
		b.WriteString(entry)
	}
	return b.String()
}

// InlineSelectControl shows every option on its row and cycles on
// left/right or Enter.
type InlineSelectControl struct {
	choiceControl
}

// HandleKey implements Control.
func (c *InlineSelectControl) HandleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "left", "h":
		c.Cycle(-1)
	case "right", "l", "enter", " ":
		c.Cycle(1)
	default:
		return false
	}
	return true
}

// View implements Control.
func (c *InlineSelectControl) View(theme *styles.Theme, width int, selected bool) string {
	return renderRow(theme, c.item.Label, width, selected, func(s lipgloss.Style) string {
		parts := make([]string, len(c.item.Options))
		for i, o := range c.item.Options {
			if i == c.index {
				parts[i] = s.Render("[" + o + "]")
			} else {
				parts[i] = " " + o + " "
			}
		}
		return strings.Join(parts, " ")
	})
}

// =============================================================================
// CHECKBOX
// =============================================================================

// CheckboxControl toggles on space, enter, left and right.
type CheckboxControl struct {
	item  Item
	value bool
}

func (c *CheckboxControl) Item() Item    { return c.item }
func (c *CheckboxControl) Value() any    { return c.value }
func (c *CheckboxControl) Editing() bool { return false }

// Toggle flips the value.
func (c *CheckboxControl) Toggle() { c.value = !c.value }

// HandleKey implements Control.
func (c *CheckboxControl) HandleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case " ", "enter", "left", "right", "h", "l":
		c.Toggle()
		return true
	}
	return false
}

// View implements Control.
func (c *CheckboxControl) View(theme *styles.Theme, width int, selected bool) string {
	value := "false"
	if c.value {
		value = "true"
	}
	return renderRow(theme, c.item.Label, width, selected, func(s lipgloss.Style) string {
		if theme == nil || selected {
			return s.Render(value)
		}
		if c.value {
			return theme.SettingTrue.Render(value)
		}
		return theme.SettingFalse.Render(value)
	})
}

// =============================================================================
// TEXT
// =============================================================================

// TextControl shows its value and edits it in a single-line input.
// Enter starts editing seeded with the value; Enter again confirms and
// Escape discards the edit.
type TextControl struct {
	item    Item
	value   string
	editing bool
	input   textinput.Model
}

func newTextControl(item Item, value string) *TextControl {
	ti := textinput.New()
	ti.Prompt = ""
	if item.Password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return &TextControl{item: item, value: value, input: ti}
}

func (c *TextControl) Item() Item    { return c.item }
func (c *TextControl) Value() any    { return c.value }
func (c *TextControl) Editing() bool { return c.editing }

// Buffer returns the text being edited.
func (c *TextControl) Buffer() string { return c.input.Value() }

// StartEdit enters edit mode with the buffer seeded from the value.
func (c *TextControl) StartEdit() {
	c.editing = true
	c.input.SetValue(c.value)
	c.input.CursorEnd()
	c.input.Focus()
}

// ConfirmEdit copies the buffer into the value and leaves edit mode.
func (c *TextControl) ConfirmEdit() {
	c.value = c.input.Value()
	c.stopEdit()
}

// CancelEdit leaves edit mode without touching the value.
func (c *TextControl) CancelEdit() {
	c.stopEdit()
}

func (c *TextControl) stopEdit() {
	c.editing = false
	c.input.Blur()
	c.input.SetValue("")
}

// HandleKey implements Control.
func (c *TextControl) HandleKey(msg tea.KeyMsg) bool {
	if !c.editing {
		if msg.Type == tea.KeyEnter {
			c.StartEdit()
			return true
		}
		return false
	}

	switch msg.Type {
	case tea.KeyEnter:
		c.ConfirmEdit()
	case tea.KeyEsc:
		c.CancelEdit()
	default:
		c.input, _ = c.input.Update(msg)
	}
	return true
}

// View implements Control.
func (c *TextControl) View(theme *styles.Theme, width int, selected bool) string {
	return renderRow(theme, c.item.Label, width, selected, func(s lipgloss.Style) string {
		if c.editing {
			c.input.Width = width - labelWidth - 4
			return c.input.View()
		}
		switch {
		case c.value == "":
			return s.Render(EmptyPlaceholder)
		case c.item.Password:
			return s.Render(PasswordMask)
		default:
			return s.Render(c.value)
		}
	})
}

// =============================================================================
// ROW LAYOUT
// =============================================================================

// labelWidth is the column the values start at, after the indicator.
const labelWidth = 20

// renderRow lays out "> Label    value" with the selection indicator.
// value receives the style to render the value with.
func renderRow(theme *styles.Theme, label string, width int, selected bool, value func(lipgloss.Style) string) string {
	indicator := "  "
	if selected {
		indicator = "> "
	}
	label = util.TruncateWidth(label, labelWidth-1)
	padded := label + strings.Repeat(" ", labelWidth-util.StringWidth(label))

	valueStyle := lipgloss.NewStyle()
	if theme != nil {
		if selected {
			indicator = theme.SettingIndicator.Render(indicator)
			padded = theme.SettingLabelSelected.Render(padded)
			valueStyle = theme.SettingValueSelected
		} else {
			padded = theme.SettingLabel.Render(padded)
			valueStyle = theme.SettingValue
		}
	}

	row := indicator + padded + value(valueStyle)
	if width > 0 && lipgloss.Width(row) > width {
		return truncate.String(row, uint(width))
	}
	return row
}
