// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/thinkprompt/internal/display"
	"github.com/jeranaias/thinkprompt/internal/history"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
)

// host is the part of *tea.Program the session drives.
type host interface {
	Send(msg tea.Msg)
	Quit()
}

// consoleOp is one kind of terminal operation.
type consoleOp int

const (
	opPrint consoleOp = iota
	opClear
	opEnterAlt
	opExitAlt
)

type consoleItem struct {
	op   consoleOp
	text string
}

// screenMsg asks the model to perform one console item. The model closes
// done once the resulting message has reached the program, so the next item
// cannot overtake it.
type screenMsg struct {
	item consoleItem
	done chan struct{}
}

// =============================================================================
// PROGRAM CONSOLE
// =============================================================================

// programConsole implements display.Console on top of a running program.
//
// Items are queued without blocking and a single writer goroutine hands them
// to the program one at a time, waiting for each to be acknowledged. With no
// program attached, output goes straight to the writer.
type programConsole struct {
	theme  *styles.Theme
	direct *display.WriterConsole

	mu    sync.Mutex
	host  host
	queue []consoleItem
	wake  chan struct{}
}

func newProgramConsole(w io.Writer, theme *styles.Theme) *programConsole {
	return &programConsole{
		theme:  theme,
		direct: display.NewWriterConsole(w, theme),
		wake:   make(chan struct{}, 1),
	}
}

// PrintFormatted implements display.Console.
func (c *programConsole) PrintFormatted(frags history.Fragments) {
	c.push(consoleItem{op: opPrint, text: display.RenderFragments(c.theme, frags)})
}

// PrintRaw implements display.Console.
func (c *programConsole) PrintRaw(text string) {
	c.push(consoleItem{op: opPrint, text: text})
}

// Clear implements display.Console.
func (c *programConsole) Clear() {
	c.push(consoleItem{op: opClear})
}

// EnterAltScreen queues the switch to the alternate screen.
func (c *programConsole) EnterAltScreen() {
	c.push(consoleItem{op: opEnterAlt})
}

// ExitAltScreen queues the switch back to the main screen.
func (c *programConsole) ExitAltScreen() {
	c.push(consoleItem{op: opExitAlt})
}

func (c *programConsole) push(item consoleItem) {
	c.mu.Lock()
	if c.host == nil {
		c.writeDirect(item)
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, item)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// writeDirect prints an item without a program. Screen switches are
// meaningless there and dropped. Callers hold c.mu.
func (c *programConsole) writeDirect(item consoleItem) {
	switch item.op {
	case opPrint:
		c.direct.PrintRaw(item.text)
	case opClear:
		c.direct.Clear()
	}
}

// attach routes output to h until detach. stop must be closed when the
// program has exited; run returns at that point.
func (c *programConsole) attach(h host) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.host = h
}

// run is the writer goroutine.
func (c *programConsole) run(stop <-chan struct{}) {
	for {
		c.mu.Lock()
		h := c.host
		if h == nil || len(c.queue) == 0 {
			c.mu.Unlock()
			select {
			case <-c.wake:
				continue
			case <-stop:
				return
			}
		}
		item := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		done := make(chan struct{})
		h.Send(screenMsg{item: item, done: done})
		select {
		case <-done:
		case <-stop:
			c.requeue(item)
			return
		}
	}
}

// requeue puts back an item the program never acknowledged.
func (c *programConsole) requeue(item consoleItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append([]consoleItem{item}, c.queue...)
}

// detach returns to direct output, printing whatever is still queued.
func (c *programConsole) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.host = nil
	for _, item := range c.queue {
		c.writeDirect(item)
	}
	c.queue = nil
}
