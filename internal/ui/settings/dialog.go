// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"github.com/jeranaias/thinkprompt/internal/ui/dialog"
)

// DefaultWidth is the settings dialog width when Options.Width is zero.
const DefaultWidth = 60

// Options configures NewDialog.
type Options struct {
	// NoCancel replaces Save/Cancel with a single Done button and disables
	// Escape.
	NoCancel bool

	// Width is a dialog width hint; zero means DefaultWidth.
	Width int

	// Top is the dialog's vertical position hint.
	Top *int
}

// NewDialog wraps a Form over items in a dialog. Save and Done resolve with
// Form.Changes(), a map[string]any; Cancel and Escape resolve with nil.
func NewDialog(title string, items []Item, opts Options) (*dialog.Dialog, *Form, error) {
	form, err := NewForm(items)
	if err != nil {
		return nil, nil, err
	}

	d := dialog.New(title, form)
	d.Width = opts.Width
	if d.Width == 0 {
		d.Width = DefaultWidth
	}
	d.Top = opts.Top

	save := func() { d.SetResult(form.Changes()) }
	if opts.NoCancel {
		d.Buttons = []dialog.Button{{Label: "Done", Action: save}}
		d.Escape = dialog.EscapeDisabled()
	} else {
		d.Buttons = []dialog.Button{
			{Label: "Save", Action: save},
			{Label: "Cancel", Action: d.Cancel},
		}
		d.Escape = dialog.EscapeWith(nil)
	}
	return d, form, nil
}

// Result converts a settings dialog result into its change-set. ok is false
// when the dialog was cancelled.
func Result(v any) (changes map[string]any, ok bool) {
	changes, ok = v.(map[string]any)
	return changes, ok
}
