// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/thinkprompt/internal/logging"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
	"github.com/jeranaias/thinkprompt/internal/util"
)

// ErrBusy is returned by Show while another dialog is on screen.
var ErrBusy = errors.New("another dialog is already showing")

// FocusController moves input focus between the main input and the overlay.
// Show calls FocusDialog before waiting and FocusInput once the dialog is
// gone, whatever the outcome.
type FocusController interface {
	FocusDialog(d *Dialog)
	FocusInput()
}

// Options configures a Manager. All fields are optional.
type Options struct {
	Focus FocusController
	Theme *styles.Theme

	// Install is called once, the first time any dialog is shown.
	Install func()

	// Invalidate requests a redraw.
	Invalidate func()
}

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap holds the keys the manager handles itself.
type KeyMap struct {
	Escape key.Binding
	Next   key.Binding
	Prev   key.Binding
	Press  key.Binding
}

// DefaultKeyMap returns the dialog key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "right", "down"),
			key.WithHelp("Tab", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "up"),
			key.WithHelp("S-Tab", "previous"),
		),
		Press: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("Enter", "press"),
		),
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager shows dialogs one at a time over the session layout.
type Manager struct {
	mu      sync.Mutex
	current *Dialog

	opts        Options
	keys        KeyMap
	installOnce sync.Once
	installed   bool
}

// NewManager creates a manager with nothing showing.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts, keys: DefaultKeyMap()}
}

// Show displays d and blocks until it is resolved or ctx ends. It must not be
// called from the bubbletea Update goroutine, which has to keep running to
// deliver the keys that resolve the dialog.
func (m *Manager) Show(ctx context.Context, d *Dialog) (any, error) {
	if d == nil {
		return nil, errors.New("dialog: nil dialog")
	}
	m.install()

	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	pending := d.prepare()
	m.current = d
	m.mu.Unlock()

	logging.Printf("DIALOG_SHOW | id=%s title=%q", d.ID, d.Title)

	defer func() {
		m.mu.Lock()
		m.current = nil
		m.mu.Unlock()
		if m.opts.Focus != nil {
			m.opts.Focus.FocusInput()
		}
		m.invalidate()
	}()

	if m.opts.Focus != nil {
		m.opts.Focus.FocusDialog(d)
	}
	m.invalidate()

	result, err := pending.Wait(ctx)
	if err != nil {
		logging.Printf("DIALOG_ABORT | id=%s err=%v", d.ID, err)
		return nil, err
	}
	logging.Printf("DIALOG_CLOSE | id=%s", d.ID)
	return result, nil
}

// Installed reports whether the overlay has been installed.
func (m *Manager) Installed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installed
}

// Visible reports whether a dialog is showing. Thread-safe.
func (m *Manager) Visible() bool {
	return m.Current() != nil
}

// Current returns the dialog on screen, or nil. Thread-safe.
func (m *Manager) Current() *Dialog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// HandleKey routes a key to the visible dialog and reports whether it was
// consumed. With no dialog showing nothing is consumed.
//
// A body in edit mode gets every key. Otherwise Escape resolves with the
// escape value unless disabled, a focused interactive body sees the key
// next, and the remaining keys move between and press buttons.
func (m *Manager) HandleKey(msg tea.KeyMsg) bool {
	d := m.Current()
	if d == nil {
		return false
	}
	defer m.invalidate()

	if ed, ok := d.Body.(Editor); ok && ed.Editing() {
		if in, ok := d.Body.(Interactive); ok {
			in.HandleKey(msg)
		}
		return true
	}

	if key.Matches(msg, m.keys.Escape) {
		if d.Escape.Enabled() {
			d.SetResult(d.Escape.Value())
		}
		return true
	}

	if d.FocusedButton() < 0 {
		if msg.String() == "tab" || msg.String() == "shift+tab" {
			d.moveFocus(tabDelta(msg))
			return true
		}
		if in, ok := d.Body.(Interactive); ok {
			in.HandleKey(msg)
		}
		return true
	}

	switch {
	case key.Matches(msg, m.keys.Press):
		d.press()
	case key.Matches(msg, m.keys.Next):
		d.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		d.moveFocus(-1)
	}
	return true
}

func tabDelta(msg tea.KeyMsg) int {
	if msg.String() == "shift+tab" {
		return -1
	}
	return 1
}

func (m *Manager) install() {
	m.installOnce.Do(func() {
		if m.opts.Install != nil {
			m.opts.Install()
		}
		m.mu.Lock()
		m.installed = true
		m.mu.Unlock()
		logging.Printf("DIALOG_OVERLAY_INSTALLED")
	})
}

func (m *Manager) invalidate() {
	if m.opts.Invalidate != nil {
		m.opts.Invalidate()
	}
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the visible dialog box for a terminal width, or "" when
// nothing is showing.
func (m *Manager) View(termWidth int) string {
	d := m.Current()
	if d == nil {
		return ""
	}
	return m.render(d, termWidth)
}

// Overlay draws the visible dialog over base, a rendered screen of height
// rows, honouring the dialog's Top hint. Whole lines of base are replaced
// so escape sequences in the covered lines are never split.
func (m *Manager) Overlay(base string, width, height int) string {
	d := m.Current()
	if d == nil {
		return base
	}
	box := strings.Split(m.render(d, width), "\n")

	lines := strings.Split(base, "\n")
	if height < len(lines) {
		height = len(lines)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	row := Position(d.Top, len(box), height)
	for i, line := range box {
		if row+i >= len(lines) {
			lines = append(lines, "")
		}
		lines[row+i] = lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
	}
	return strings.Join(lines, "\n")
}

// Position returns the first row of a box of boxHeight rows on a screen of
// height rows for a Top hint: nil centres, >= 0 counts from the top and
// < 0 leaves that many rows below the box. The result is clamped to the
// screen.
func Position(top *int, boxHeight, height int) int {
	var row int
	switch {
	case top == nil:
		row = (height - boxHeight) / 2
	case *top >= 0:
		row = *top
	default:
		row = height - boxHeight + *top
	}
	if row > height-boxHeight {
		row = height - boxHeight
	}
	if row < 0 {
		row = 0
	}
	return row
}

// BoxWidth resolves a width hint to the inner content width for a terminal
// width. natural is the width the content would like in auto mode.
func BoxWidth(hint, natural, termWidth int) int {
	const chrome = 4 // border plus horizontal padding
	maxInner := termWidth - chrome
	if maxInner < 1 {
		maxInner = 1
	}
	var w int
	switch {
	case hint == WidthFull:
		w = maxInner
	case hint > 0:
		w = hint - chrome
	default:
		w = natural
	}
	if w > maxInner {
		w = maxInner
	}
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Manager) render(d *Dialog, termWidth int) string {
	theme := m.opts.Theme
	buttons := m.renderButtons(d)

	natural := util.StringWidth(d.Title)
	if bw := lipgloss.Width(buttons); bw > natural {
		natural = bw
	}
	if d.Body != nil {
		if bw := lipgloss.Width(d.Body.View(theme, termWidth-4)); bw > natural {
			natural = bw
		}
	}
	inner := BoxWidth(d.Width, natural, termWidth)

	var b strings.Builder
	if d.Title != "" {
		title := util.TruncateWidth(d.Title, inner)
		if theme != nil {
			title = theme.DialogTitle.Render(title)
		}
		b.WriteString(lipgloss.PlaceHorizontal(inner, lipgloss.Center, title))
		b.WriteString("\n\n")
	}
	if d.Body != nil {
		b.WriteString(d.Body.View(theme, inner))
		b.WriteString("\n")
	}
	if buttons != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(inner, lipgloss.Center, buttons))
	}

	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if theme != nil {
		frame = theme.DialogFrame
	}
	return frame.Width(inner + 2).Render(b.String())
}

func (m *Manager) renderButtons(d *Dialog) string {
	if len(d.Buttons) == 0 {
		return ""
	}
	focused := d.FocusedButton()
	theme := m.opts.Theme

	parts := make([]string, 0, len(d.Buttons))
	for i, btn := range d.Buttons {
		label := "< " + btn.Label + " >"
		switch {
		case theme == nil:
			if i == focused {
				label = "[ " + btn.Label + " ]"
			}
		case i == focused:
			label = theme.ButtonFocused.Render(label)
		default:
			label = theme.Button.Render(label)
		}
		parts = append(parts, label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, intersperse(parts, " ")...)
}

func intersperse(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
