// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dialog implements modal dialogs that float over the session.
//
// A Dialog is a title, a Body, a row of Buttons and an EscapeResult. The
// Manager shows one dialog at a time: Show blocks the calling goroutine until
// a button or Escape resolves the dialog, while the bubbletea loop keeps
// drawing the overlay and routing keys to it through HandleKey.
//
// Built-in dialogs (YesNo, Message, Choice, Dropdown) are constructors over
// the same Dialog shape, so focus, Escape and resolution behave identically
// for all of them.
package dialog
