// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/thinkprompt/internal/config"
	"github.com/jeranaias/thinkprompt/internal/ui/thinking"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the session's own key bindings. Keys not bound here go to
// the visible dialog or the input line.
type KeyMap struct {
	Interrupt   key.Binding
	Quit        key.Binding
	Submit      key.Binding
	Expand      key.Binding
	Fullscreen  key.Binding
	HistoryPrev key.Binding
	HistoryNext key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
}

// NewKeyMap builds the bindings, taking the expand and fullscreen chords
// from keys. Chords are expected in bubbletea notation.
func NewKeyMap(keys config.KeysConfig) KeyMap {
	expand := keys.Expand
	if expand == "" {
		expand = "ctrl+t"
	}
	fullscreen := keys.Fullscreen
	if fullscreen == "" {
		fullscreen = "ctrl+e"
	}

	return KeyMap{
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "cancel / exit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "exit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "submit"),
		),
		Expand: key.NewBinding(
			key.WithKeys(expand),
			key.WithHelp(thinking.KeyDisplay(expand), "expand thinking"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys(fullscreen),
			key.WithHelp(thinking.KeyDisplay(fullscreen), "toggle fullscreen"),
		),
		HistoryPrev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous input"),
		),
		HistoryNext: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next input"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
	}
}

// gate re-evaluates the conditional bindings. Call it before matching each
// keypress: thinking content can cross the expand threshold mid-turn.
func (k *KeyMap) gate(fullscreen, fullscreenEnabled bool, control *thinking.Control) {
	k.Expand.SetEnabled(!fullscreen && control.CanToggleExpanded())
	k.Fullscreen.SetEnabled(fullscreenEnabled)
	scroll := fullscreen || control.IsExpanded()
	k.ScrollUp.SetEnabled(scroll)
	k.ScrollDown.SetEnabled(scroll)
}
