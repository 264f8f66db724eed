// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties the thinking panel, the output display and the dialog
// manager to a bubbletea program.
//
// # Key Types
//
//   - Session: the orchestrator embedding applications talk to
//   - Handler: called once per submitted input on the input loop goroutine
//   - KeyMap: the session's key bindings, gated per keypress
//
// # Usage
//
//	s, err := session.New(cfg)
//	if err != nil {
//	    return err
//	}
//	s.OnInput(func(ctx context.Context, text string) error {
//	    _, err := s.Thinking(func(content *thinking.StreamingContent) error {
//	        content.Append("Working...\n")
//	        return nil
//	    })
//	    s.AddResponse("Echo: " + text)
//	    return err
//	})
//	return s.Run(ctx)
//
// # Threading
//
// Output methods and the thinking API never block and may be called from
// any goroutine. Dialogs block until answered, so they must not be called
// from the bubbletea Update goroutine; handlers run on their own goroutine
// and are the usual caller. Console output is queued and printed above the
// prompt in call order. In fullscreen mode it is held back and printed when
// the session returns to prompt mode.
package session
