// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import (
	"strings"
	"sync"
	"unicode"

	"github.com/jeranaias/thinkprompt/internal/history"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
	"github.com/jeranaias/thinkprompt/internal/util"
)

// Prefixes added to status messages, in both history and console.
const (
	PrefixError   = "[ERROR] "
	PrefixWarning = "[WARN] "
	PrefixSuccess = "[OK] "
)

// pendingItem is one deferred console write.
type pendingItem struct {
	frags history.Fragments
	raw   string
	isRaw bool
}

// =============================================================================
// DISPLAY
// =============================================================================

// Display writes every kind of output to the history and the console.
//
// A single mutex serializes writes, so the history and the console see the
// same order and Clear cannot interleave with a write. The history change
// callback runs under that mutex and must not write to the Display.
type Display struct {
	mu           sync.Mutex
	console      Console
	history      *history.History
	isFullscreen func() bool
	width        func() int
	pending      []pendingItem
}

// Options configures a Display.
type Options struct {
	// IsFullscreen is evaluated on every write. Nil means never fullscreen.
	IsFullscreen func() bool

	// Width is the wrap width for markdown and renderables. Nil uses the
	// terminal width.
	Width func() int
}

// New creates a Display over console with an empty history.
func New(console Console, opts Options) *Display {
	if opts.IsFullscreen == nil {
		opts.IsFullscreen = func() bool { return false }
	}
	if opts.Width == nil {
		opts.Width = TerminalWidth
	}
	return &Display{
		console:      console,
		history:      history.New(),
		isFullscreen: opts.IsFullscreen,
		width:        opts.Width,
	}
}

// History returns the durable output log.
func (d *Display) History() *history.History {
	return d.history
}

// SetConsole swaps the console, for example when a program starts or ends.
func (d *Display) SetConsole(c Console) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.console = c
}

// OnChange registers the callback run after each history mutation.
func (d *Display) OnChange(fn func()) {
	d.history.OnChange(fn)
}

// =============================================================================
// OUTPUT METHODS
// =============================================================================

// UserInput records an accepted input line after its prompt.
func (d *Display) UserInput(prompt, text string) {
	frags := history.Fragments{
		{Style: styles.TagUserPrefix, Text: prompt},
		{Style: styles.TagUserMessage, Text: text + "\n"},
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.AppendFormatted(frags)
	d.emitFormatted(frags)
}

// ThinkingOptions controls how a finished thinking turn is written.
type ThinkingOptions struct {
	// TruncateLines cuts the console copy to this many lines plus "...".
	// Zero prints the full content. History always gets the full content.
	TruncateLines int

	AddToHistory  bool
	EchoToConsole bool
}

// Thinking writes finished thinking content. Blank content writes nothing.
func (d *Display) Thinking(content string, opts ThinkingOptions) {
	if util.IsBlank(content) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if opts.AddToHistory {
		d.history.Append(styles.TagThinking, content+"\n")
	}
	if opts.EchoToConsole {
		var out string
		if opts.TruncateLines > 0 {
			out = util.TruncateToLines(content, opts.TruncateLines, "...")
		} else {
			out = strings.TrimRightFunc(content, unicode.IsSpace)
		}
		d.emitFormatted(history.Fragments{{Style: styles.TagThinking, Text: out + "\n"}})
	}
}

// Response writes an assistant response.
func (d *Display) Response(content string) {
	d.tagged(styles.TagAssistant, content)
}

// System writes a system message.
func (d *Display) System(content string) {
	d.tagged(styles.TagSystem, content)
}

// Error writes an error message prefixed with "[ERROR] ".
func (d *Display) Error(content string) {
	d.prefixed(styles.TagError, PrefixError, content)
}

// Warning writes a warning prefixed with "[WARN] ".
func (d *Display) Warning(content string) {
	d.prefixed(styles.TagWarning, PrefixWarning, content)
}

// Success writes a success message prefixed with "[OK] ".
func (d *Display) Success(content string) {
	d.prefixed(styles.TagSuccess, PrefixSuccess, content)
}

// tagged records content+"\n" and prints it unless content is blank.
func (d *Display) tagged(tag, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history.Append(tag, content+"\n")
	if !util.IsBlank(content) {
		d.emitFormatted(history.Fragments{{Style: tag, Text: content + "\n"}})
	}
}

// prefixed builds the prefixed line once so both copies match.
func (d *Display) prefixed(tag, prefix, content string) {
	line := prefix + content + "\n"

	d.mu.Lock()
	defer d.mu.Unlock()

	d.history.Append(tag, line)
	if !util.IsBlank(content) {
		d.emitFormatted(history.Fragments{{Style: tag, Text: line}})
	}
}

// Markdown renders markdown and writes the result unstyled.
func (d *Display) Markdown(content string) {
	d.rawOut(RenderMarkdown(content, d.width()))
}

// Code writes syntax-highlighted code. An empty language is guessed.
func (d *Display) Code(code, language string) {
	d.rawOut(HighlightCode(code, language))
}

// Rich renders any value (see RenderValue) and writes it.
func (d *Display) Rich(v interface{}) {
	out := RenderValue(v, d.width())
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	d.rawOut(out)
}

// Welcome writes the welcome banner. Renderables are drawn; other values are
// written as text.
func (d *Display) Welcome(v interface{}) {
	if _, ok := v.(Renderable); ok {
		d.Rich(v)
		return
	}
	d.Raw(RenderValue(v, d.width())+"\n", "")
}

// Formatted writes pre-styled fragments as one unit.
func (d *Display) Formatted(frags history.Fragments) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history.AppendFormatted(frags)
	d.emitFormatted(frags)
}

// Raw writes content with an optional style tag. Without a tag the content
// is passed to the console untouched, so it may carry ANSI sequences.
func (d *Display) Raw(content, tag string) {
	if tag == "" {
		d.rawOut(content)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.Append(tag, content)
	d.emitFormatted(history.Fragments{{Style: tag, Text: content}})
}

func (d *Display) rawOut(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history.Append("", content)
	if d.isFullscreen() {
		d.pending = append(d.pending, pendingItem{raw: content, isRaw: true})
		return
	}
	d.console.PrintRaw(content)
}

// emitFormatted prints or queues styled output. Callers hold d.mu.
func (d *Display) emitFormatted(frags history.Fragments) {
	if d.isFullscreen() {
		d.pending = append(d.pending, pendingItem{frags: frags})
		return
	}
	d.console.PrintFormatted(frags)
}

// =============================================================================
// CLEAR AND FLUSH
// =============================================================================

// Clear erases the terminal, the history and any pending output.
func (d *Display) Clear() {
	d.ClearAfter(nil)
}

// ClearAfter runs fn and then clears, both under the display lock. fn may
// change what IsFullscreen reports; the queued output is discarded.
func (d *Display) ClearAfter(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fn != nil {
		fn()
	}
	d.pending = nil
	d.console.Clear()
	d.history.Clear()
}

// FlushPending prints output queued during fullscreen mode, in call order,
// and empties the queue.
func (d *Display) FlushPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLocked()
}

// Switch runs fn, which changes what IsFullscreen reports, under the display
// lock. When the result is prompt mode the pending output is flushed before
// Switch returns, so no write can land between the switch and the flush.
func (d *Display) Switch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn()
	if !d.isFullscreen() {
		d.flushLocked()
	}
}

func (d *Display) flushLocked() {
	pending := d.pending
	d.pending = nil
	for _, item := range pending {
		if item.isRaw {
			d.console.PrintRaw(item.raw)
		} else {
			d.console.PrintFormatted(item.frags)
		}
	}
}

// PendingLen returns the number of queued console writes.
func (d *Display) PendingLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
