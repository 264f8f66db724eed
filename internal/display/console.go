// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import (
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/thinkprompt/internal/history"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
)

// ClearScreen erases the terminal and homes the cursor.
const ClearScreen = "\033[2J\033[H"

// Console is where prompt-mode output is printed. Implementations must not
// block for long: Display calls them while holding its lock.
type Console interface {
	// PrintFormatted prints styled fragments.
	PrintFormatted(frags history.Fragments)

	// PrintRaw prints text that may already carry ANSI sequences.
	PrintRaw(text string)

	// Clear erases the visible terminal.
	Clear()
}

// WriterConsole prints to an io.Writer, styling fragments with a Theme.
// It is used before a session's program starts and after it exits.
type WriterConsole struct {
	mu    sync.Mutex
	w     io.Writer
	theme *styles.Theme
}

// NewWriterConsole creates a console writing to w.
func NewWriterConsole(w io.Writer, theme *styles.Theme) *WriterConsole {
	return &WriterConsole{w: w, theme: theme}
}

// PrintFormatted implements Console.
func (c *WriterConsole) PrintFormatted(frags history.Fragments) {
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.w, RenderFragments(c.theme, frags))
}

// PrintRaw implements Console.
func (c *WriterConsole) PrintRaw(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.w, text)
}

// Clear implements Console.
func (c *WriterConsole) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.w, ClearScreen)
}

// RenderFragments styles and concatenates fragments. A nil theme renders
// plain text.
func RenderFragments(theme *styles.Theme, frags history.Fragments) string {
	if theme == nil {
		return frags.PlainText()
	}
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(theme.Render(f.Style, f.Text))
	}
	return b.String()
}
