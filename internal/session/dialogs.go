// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	"github.com/jeranaias/thinkprompt/internal/ui/dialog"
	"github.com/jeranaias/thinkprompt/internal/ui/settings"
)

// =============================================================================
// DIALOG API
// =============================================================================
//
// Every dialog call blocks until the dialog is answered or ctx ends. Call
// them from a handler, never from the Update goroutine.

// YesNoDialog asks a yes/no question. Escape answers no.
func (s *Session) YesNoDialog(ctx context.Context, title, text string) (bool, error) {
	v, err := s.dialogs.Show(ctx, dialog.YesNo(title, text, "", ""))
	if err != nil {
		return false, err
	}
	yes, _ := v.(bool)
	return yes, nil
}

// MessageDialog shows text until dismissed.
func (s *Session) MessageDialog(ctx context.Context, title, text string) error {
	_, err := s.dialogs.Show(ctx, dialog.Message(title, text, ""))
	return err
}

// ChoiceDialog offers one button per choice. ok is false when the user
// pressed Escape.
func (s *Session) ChoiceDialog(ctx context.Context, title, text string, choices []string) (choice string, ok bool, err error) {
	v, err := s.dialogs.Show(ctx, dialog.Choice(title, text, choices))
	if err != nil {
		return "", false, err
	}
	choice, ok = v.(string)
	return choice, ok, nil
}

// DropdownDialog lets the user pick one option from a list, starting at
// defaultOption. ok is false when the dialog was cancelled.
func (s *Session) DropdownDialog(ctx context.Context, title, text string, options []string, defaultOption string) (choice string, ok bool, err error) {
	v, err := s.dialogs.Show(ctx, dialog.Dropdown(title, text, options, defaultOption))
	if err != nil {
		return "", false, err
	}
	choice, ok = v.(string)
	return choice, ok, nil
}

// ShowDialog shows a custom dialog and returns whatever it resolves with.
func (s *Session) ShowDialog(ctx context.Context, d *dialog.Dialog) (any, error) {
	return s.dialogs.Show(ctx, d)
}

// ShowSettingsDialog shows a settings form. It returns the changed values,
// empty when nothing changed, or nil when the user cancelled.
func (s *Session) ShowSettingsDialog(ctx context.Context, title string, items []settings.Item, opts settings.Options) (map[string]any, error) {
	d, _, err := settings.NewDialog(title, items, opts)
	if err != nil {
		return nil, err
	}
	v, err := s.dialogs.Show(ctx, d)
	if err != nil {
		return nil, err
	}
	changes, ok := settings.Result(v)
	if !ok {
		return nil, nil
	}
	return changes, nil
}
