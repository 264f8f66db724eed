// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/thinkprompt/internal/ui/styles"
)

var (
	keyEnter    = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc      = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab      = tea.KeyMsg{Type: tea.KeyTab}
	keyShiftTab = tea.KeyMsg{Type: tea.KeyShiftTab}
	keyRight    = tea.KeyMsg{Type: tea.KeyRight}
	keyDown     = tea.KeyMsg{Type: tea.KeyDown}
	keyUp       = tea.KeyMsg{Type: tea.KeyUp}
)

// =============================================================================
// PENDING
// =============================================================================

func TestPending_FirstResolveWins(t *testing.T) {
	p := NewPending()
	assert.False(t, p.IsResolved())

	assert.True(t, p.Resolve("first"))
	assert.False(t, p.Resolve("second"))
	assert.True(t, p.IsResolved())

	v, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestPending_ConcurrentResolve(t *testing.T) {
	p := NewPending()
	var wg sync.WaitGroup
	wins := make(chan int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if p.Resolve(n) {
				wins <- n
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	var winner int
	for n := range wins {
		winner = n
		count++
	}
	assert.Equal(t, 1, count)
	v, _ := p.Wait(context.Background())
	assert.Equal(t, winner, v)
}

func TestPending_WaitHonoursContext(t *testing.T) {
	p := NewPending()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, v)
}

// =============================================================================
// DIALOG
// =============================================================================

func TestEscapeResult_DisabledIsNotNil(t *testing.T) {
	var zero EscapeResult
	assert.False(t, zero.Enabled())
	assert.False(t, EscapeDisabled().Enabled())

	withNil := EscapeWith(nil)
	assert.True(t, withNil.Enabled())
	assert.Nil(t, withNil.Value())

	assert.Equal(t, false, EscapeWith(false).Value())
}

func TestDialog_SetResultBeforeShowIsIgnored(t *testing.T) {
	d := New("t", Text("body"))
	d.SetResult(1)
	assert.False(t, d.Resolved())
}

func TestDialog_SetResultAtMostOnce(t *testing.T) {
	d := New("t", Text("body"))
	p := d.prepare()

	d.SetResult("a")
	d.SetResult("b")
	d.Cancel()

	v, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestFromConfig(t *testing.T) {
	d := FromConfig(Config{
		Title: "Pick",
		Body:  "Which one?",
		Buttons: []ButtonConfig{
			{Text: "One", Result: 1},
			{Text: "Two", Result: 2, Focused: true},
		},
	})

	assert.Equal(t, Text("Which one?"), d.Body)
	assert.False(t, d.Escape.Enabled(), "config dialogs default to Escape disabled")
	require.Len(t, d.Buttons, 2)

	p := d.prepare()
	assert.Equal(t, 1, d.FocusedButton())
	d.Buttons[0].Action()
	v, _ := p.Wait(context.Background())
	assert.Equal(t, 1, v)
}

func TestDialog_FocusCycle(t *testing.T) {
	list := NewRadioList("", []string{"a"}, "")
	d := New("t", list, Button{Label: "OK"}, Button{Label: "Cancel"})
	d.prepare()

	assert.Equal(t, -1, d.FocusedButton(), "interactive body takes initial focus")
	d.moveFocus(1)
	assert.Equal(t, 0, d.FocusedButton())
	d.moveFocus(1)
	assert.Equal(t, 1, d.FocusedButton())
	d.moveFocus(1)
	assert.Equal(t, -1, d.FocusedButton())
	d.moveFocus(-1)
	assert.Equal(t, 1, d.FocusedButton())
}

// =============================================================================
// BUILT-INS
// =============================================================================

func TestBuiltins_EscapeValues(t *testing.T) {
	tests := []struct {
		name    string
		dialog  *Dialog
		escape  any
		buttons []string
	}{
		{"yes/no", YesNo("Q", "Sure?", "", ""), false, []string{"Yes", "No"}},
		{"yes/no labels", YesNo("Q", "Sure?", "Do it", "Skip"), false, []string{"Do it", "Skip"}},
		{"message", Message("M", "Done", ""), nil, []string{"OK"}},
		{"choice", Choice("C", "Pick", []string{"a", "b", "c"}), nil, []string{"a", "b", "c"}},
		{"dropdown", Dropdown("D", "Pick", []string{"x", "y"}, ""), nil, []string{"OK", "Cancel"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.dialog.Escape.Enabled())
			assert.Equal(t, tt.escape, tt.dialog.Escape.Value())

			var labels []string
			for _, b := range tt.dialog.Buttons {
				labels = append(labels, b.Label)
			}
			assert.Equal(t, tt.buttons, labels)
		})
	}
}

func TestRadioList(t *testing.T) {
	r := NewRadioList("label", []string{"a", "b", "c"}, "b")
	assert.Equal(t, "b", r.Value())

	r.Move(1)
	assert.Equal(t, "c", r.Value())
	r.Move(1)
	assert.Equal(t, "a", r.Value(), "wraps forward")
	r.Move(-1)
	assert.Equal(t, "c", r.Value(), "wraps backward")

	missing := NewRadioList("", []string{"a", "b"}, "zzz")
	assert.Equal(t, "a", missing.Value())

	empty := NewRadioList("", nil, "")
	empty.Move(1)
	assert.Equal(t, "", empty.Value())
}

func TestRadioList_View(t *testing.T) {
	r := NewRadioList("Choose", []string{"a", "b"}, "b")
	view := r.View(nil, 40)
	assert.Equal(t, "Choose\n( ) a\n(*) b", view)
}

// =============================================================================
// LAYOUT
// =============================================================================

func TestPosition(t *testing.T) {
	tests := []struct {
		name   string
		top    *int
		box    int
		height int
		want   int
	}{
		{"centred", nil, 4, 20, 8},
		{"from top", TopOffset(2), 4, 20, 2},
		{"one row above bottom", TopOffset(-1), 4, 20, 15},
		{"from bottom offset", TopOffset(-3), 4, 20, 13},
		{"bottom offset clamped", TopOffset(-30), 4, 20, 0},
		{"clamped below", TopOffset(30), 4, 20, 16},
		{"taller than screen", nil, 30, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Position(tt.top, tt.box, tt.height))
		})
	}
}

func TestBoxWidth(t *testing.T) {
	tests := []struct {
		name     string
		hint     int
		natural  int
		terminal int
		want     int
	}{
		{"auto", WidthAuto, 20, 80, 20},
		{"auto clamps", WidthAuto, 200, 80, 76},
		{"full", WidthFull, 10, 80, 76},
		{"preferred", 60, 10, 80, 56},
		{"preferred shrinks", 60, 10, 40, 36},
		{"tiny terminal", WidthFull, 10, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BoxWidth(tt.hint, tt.natural, tt.terminal))
		})
	}
}

// =============================================================================
// MANAGER
// =============================================================================

type fakeFocus struct {
	mu      sync.Mutex
	events  []string
	dialogs []*Dialog
}

func (f *fakeFocus) FocusDialog(d *Dialog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "dialog")
	f.dialogs = append(f.dialogs, d)
}

func (f *fakeFocus) FocusInput() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "input")
}

func (f *fakeFocus) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type showResult struct {
	value any
	err   error
}

// showAsync starts Show on its own goroutine and waits for the dialog to
// appear.
func showAsync(t *testing.T, ctx context.Context, m *Manager, d *Dialog) <-chan showResult {
	t.Helper()
	out := make(chan showResult, 1)
	go func() {
		v, err := m.Show(ctx, d)
		out <- showResult{v, err}
	}()
	require.Eventually(t, func() bool { return m.Current() == d }, time.Second, time.Millisecond)
	return out
}

func waitResult(t *testing.T, ch <-chan showResult) showResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("Show did not return")
		return showResult{}
	}
}

func TestManager_ShowYesNo(t *testing.T) {
	focus := &fakeFocus{}
	m := NewManager(Options{Focus: focus})

	d := YesNo("Confirm", "Proceed?", "", "")
	ch := showAsync(t, context.Background(), m, d)

	assert.True(t, m.Visible())
	assert.True(t, m.HandleKey(keyEnter))

	r := waitResult(t, ch)
	require.NoError(t, r.err)
	assert.Equal(t, true, r.value)
	assert.False(t, m.Visible())
	assert.Equal(t, []string{"dialog", "input"}, focus.Events())
}

func TestManager_EscapeResolvesWithConfiguredValue(t *testing.T) {
	m := NewManager(Options{})
	ch := showAsync(t, context.Background(), m, YesNo("Q", "?", "", ""))

	m.HandleKey(keyEsc)
	r := waitResult(t, ch)
	assert.Equal(t, false, r.value)
}

func TestManager_EscapeWithNil(t *testing.T) {
	m := NewManager(Options{})
	ch := showAsync(t, context.Background(), m, Message("M", "hello", ""))

	m.HandleKey(keyEsc)
	r := waitResult(t, ch)
	require.NoError(t, r.err)
	assert.Nil(t, r.value)
}

func TestManager_EscapeDisabled(t *testing.T) {
	m := NewManager(Options{})
	d := FromConfig(Config{
		Title:   "Locked",
		Body:    "Only the button closes this",
		Buttons: []ButtonConfig{{Text: "Close", Result: "closed"}},
	})
	ch := showAsync(t, context.Background(), m, d)

	assert.True(t, m.HandleKey(keyEsc), "escape is swallowed while a dialog shows")
	assert.True(t, m.Visible())
	assert.False(t, d.Resolved())

	m.HandleKey(keyEnter)
	r := waitResult(t, ch)
	assert.Equal(t, "closed", r.value)
}

func TestManager_ChoiceNavigation(t *testing.T) {
	m := NewManager(Options{})
	ch := showAsync(t, context.Background(), m, Choice("C", "Pick", []string{"a", "b", "c"}))

	m.HandleKey(keyRight)
	m.HandleKey(keyTab)
	m.HandleKey(keyShiftTab)
	m.HandleKey(keyEnter)

	r := waitResult(t, ch)
	assert.Equal(t, "b", r.value)
}

func TestManager_DropdownSubmitAndCancel(t *testing.T) {
	t.Run("enter on list", func(t *testing.T) {
		m := NewManager(Options{})
		ch := showAsync(t, context.Background(), m, Dropdown("D", "Pick", []string{"x", "y", "z"}, "y"))

		m.HandleKey(keyDown)
		m.HandleKey(keyEnter)
		r := waitResult(t, ch)
		assert.Equal(t, "z", r.value)
	})

	t.Run("ok button", func(t *testing.T) {
		m := NewManager(Options{})
		ch := showAsync(t, context.Background(), m, Dropdown("D", "Pick", []string{"x", "y"}, ""))

		m.HandleKey(keyUp)
		m.HandleKey(keyTab)
		m.HandleKey(keyEnter)
		r := waitResult(t, ch)
		assert.Equal(t, "y", r.value)
	})

	t.Run("cancel button", func(t *testing.T) {
		m := NewManager(Options{})
		ch := showAsync(t, context.Background(), m, Dropdown("D", "Pick", []string{"x", "y"}, "x"))

		m.HandleKey(keyTab)
		m.HandleKey(keyTab)
		m.HandleKey(keyEnter)
		r := waitResult(t, ch)
		require.NoError(t, r.err)
		assert.Nil(t, r.value)
	})
}

func TestManager_FocusRestoredOnCancel(t *testing.T) {
	focus := &fakeFocus{}
	m := NewManager(Options{Focus: focus})

	ctx, cancel := context.WithCancel(context.Background())
	ch := showAsync(t, ctx, m, Message("M", "x", ""))
	cancel()

	r := waitResult(t, ch)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.False(t, m.Visible())
	assert.Equal(t, []string{"dialog", "input"}, focus.Events())
}

func TestManager_InstallsOverlayOnce(t *testing.T) {
	installs := 0
	m := NewManager(Options{Install: func() { installs++ }})
	assert.False(t, m.Installed())

	for i := 0; i < 3; i++ {
		ch := showAsync(t, context.Background(), m, Message("M", "x", ""))
		m.HandleKey(keyEnter)
		waitResult(t, ch)
	}

	assert.Equal(t, 1, installs)
	assert.True(t, m.Installed())
}

func TestManager_Busy(t *testing.T) {
	m := NewManager(Options{})
	ch := showAsync(t, context.Background(), m, Message("M", "x", ""))

	_, err := m.Show(context.Background(), Message("Other", "y", ""))
	assert.ErrorIs(t, err, ErrBusy)

	m.HandleKey(keyEnter)
	waitResult(t, ch)
}

func TestManager_HandleKeyWithoutDialog(t *testing.T) {
	m := NewManager(Options{})
	assert.False(t, m.HandleKey(keyEsc))
	assert.Equal(t, "", m.View(80))
	assert.Equal(t, "base", m.Overlay("base", 80, 1))
}

// editingBody swallows keys while in edit mode.
type editingBody struct {
	editing bool
	keys    []string
}

func (b *editingBody) View(*styles.Theme, int) string { return "editing body" }
func (b *editingBody) Editing() bool                  { return b.editing }
func (b *editingBody) HandleKey(msg tea.KeyMsg) bool {
	b.keys = append(b.keys, msg.String())
	if msg.String() == "esc" {
		b.editing = false
	}
	return true
}

func TestManager_EditorOwnsEscapeWhileEditing(t *testing.T) {
	m := NewManager(Options{})
	body := &editingBody{editing: true}
	d := New("Edit", body, Button{Label: "Done"})
	ch := showAsync(t, context.Background(), m, d)

	m.HandleKey(keyEsc)
	assert.True(t, m.Visible(), "first escape only leaves edit mode")
	assert.Equal(t, []string{"esc"}, body.keys)

	m.HandleKey(keyEsc)
	r := waitResult(t, ch)
	require.NoError(t, r.err)
	assert.Nil(t, r.value)
}

func TestManager_View(t *testing.T) {
	m := NewManager(Options{})
	d := YesNo("Confirm", "Delete everything?", "", "")
	ch := showAsync(t, context.Background(), m, d)

	view := m.View(80)
	assert.Contains(t, view, "Confirm")
	assert.Contains(t, view, "Delete everything?")
	assert.Contains(t, view, "[ Yes ]")
	assert.Contains(t, view, "< No >")

	base := strings.Repeat("line\n", 19) + "line"
	out := m.Overlay(base, 80, 20)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 20)
	assert.Equal(t, "line", lines[0])
	assert.Contains(t, out, "Delete everything?")

	m.HandleKey(keyEsc)
	waitResult(t, ch)
}
