// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/jeranaias/thinkprompt/internal/logging"
)

// Renderable is a value that knows how to draw itself for a terminal of the
// given width, such as a table or a panel.
type Renderable interface {
	Render(width int) (string, error)
}

// DefaultWidth is used when the terminal size is unknown.
const DefaultWidth = 80

// TerminalWidth returns the width of stdout, or DefaultWidth when stdout is
// not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownMu        sync.Mutex
	markdownRenderers = map[int]*glamour.TermRenderer{}
)

// markdownRenderer returns a cached renderer. Callers hold markdownMu.
func markdownRenderer(width int) (*glamour.TermRenderer, error) {
	if r, ok := markdownRenderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	markdownRenderers[width] = r
	return r, nil
}

// RenderMarkdown renders markdown for the terminal. It returns the source
// unchanged if rendering fails.
func RenderMarkdown(content string, width int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Printf("RENDER_FALLBACK | kind=markdown error=%v", r)
			out = content
		}
	}()

	markdownMu.Lock()
	defer markdownMu.Unlock()

	r, err := markdownRenderer(width)
	if err != nil {
		logging.Printf("RENDER_FALLBACK | kind=markdown error=%v", err)
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		logging.Printf("RENDER_FALLBACK | kind=markdown error=%v", err)
		return content
	}
	return rendered
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// HighlightCode highlights code for a 256-color terminal. Unknown languages
// are guessed from the code. It returns the code unchanged on failure.
func HighlightCode(code, language string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Printf("RENDER_FALLBACK | kind=code error=%v", r)
			out = code
		}
	}()

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// =============================================================================
// RICH VALUES
// =============================================================================

// RenderValue turns any value into terminal text. Renderables draw
// themselves; anything else is formatted with fmt, which uses String when
// present. A failing Renderable falls back to fmt as well.
func RenderValue(v interface{}, width int) (out string) {
	r, ok := v.(Renderable)
	if !ok {
		return fmt.Sprint(v)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Printf("RENDER_FALLBACK | kind=rich type=%T error=%v", v, rec)
			out = fmt.Sprint(v)
		}
	}()

	rendered, err := r.Render(width)
	if err != nil {
		logging.Printf("RENDER_FALLBACK | kind=rich type=%T error=%v", v, err)
		return fmt.Sprint(v)
	}
	return rendered
}
