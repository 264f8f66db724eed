// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/thinkprompt/internal/config"
)

func keyMsg(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func newTestModel(t *testing.T, mutate func(cfg *config.Config)) (*Session, *model) {
	t.Helper()
	s, _ := newTestSession(t, mutate)
	m := newModel(s)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	return s, m
}

// =============================================================================
// INTERRUPT AND QUIT
// =============================================================================

func TestModel_CtrlCDuringTurnDiscardsIt(t *testing.T) {
	s, m := newTestModel(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.turns.set(cancel)
	s.StartThinking(func() string { return "partial thoughts" })

	_, cmd := m.Update(keyMsg(tea.KeyCtrlC))

	assert.Nil(t, cmd, "an interrupted turn does not quit")
	assert.False(t, s.IsThinking())
	assert.False(t, s.Control().IsExpanded())
	assert.True(t, s.History().IsEmpty(), "partial content is not written")
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "the handler is cancelled")
}

func TestModel_CtrlCIdleQuits(t *testing.T) {
	s, m := newTestModel(t, nil)

	errs := make(chan error, 1)
	go func() {
		_, err := s.Prompt(context.Background())
		errs <- err
	}()
	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)

	_, cmd := m.Update(keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, <-errs, ErrInterrupted)
}

func TestModel_CtrlDQuits(t *testing.T) {
	s, m := newTestModel(t, nil)

	errs := make(chan error, 1)
	go func() {
		_, err := s.Prompt(context.Background())
		errs <- err
	}()
	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)

	_, cmd := m.Update(keyMsg(tea.KeyCtrlD))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, <-errs, ErrEOF)
}

// =============================================================================
// KEY GATING
// =============================================================================

func TestModel_ExpandKeyGatedOnOverflow(t *testing.T) {
	s, m := newTestModel(t, func(cfg *config.Config) { cfg.Thinking.MaxHeight = 5 })

	content := "1\n2\n3\n4"
	s.StartThinking(func() string { return content })

	m.Update(keyMsg(tea.KeyCtrlT))
	assert.False(t, s.Control().IsExpanded(), "four lines fit the panel")

	content = "1\n2\n3\n4\n5"
	m.Update(keyMsg(tea.KeyCtrlT))
	assert.True(t, s.Control().IsExpanded(), "the threshold is re-checked per keypress")

	m.Update(keyMsg(tea.KeyCtrlT))
	assert.False(t, s.Control().IsExpanded())
}

func TestModel_ExpandKeyFromConfig(t *testing.T) {
	s, m := newTestModel(t, func(cfg *config.Config) {
		cfg.Thinking.MaxHeight = 2
		cfg.Keys.Expand = "ctrl+o"
	})
	s.StartThinking(func() string { return "a\nb\nc" })

	m.Update(keyMsg(tea.KeyCtrlT))
	assert.False(t, s.Control().IsExpanded())

	m.Update(keyMsg(tea.KeyCtrlO))
	assert.True(t, s.Control().IsExpanded())
}

func TestModel_ExpandKeyShortForm(t *testing.T) {
	s, m := newTestModel(t, func(cfg *config.Config) {
		cfg.Thinking.MaxHeight = 2
		cfg.Keys.Expand = "c-o"
		cfg.Keys.Fullscreen = "c-x"
		cfg.Session.FullscreenEnabled = true
	})
	s.StartThinking(func() string { return "a\nb\nc" })

	assert.Contains(t, s.Control().Formatted().PlainText(), "ctrl-o to expand")

	m.Update(keyMsg(tea.KeyCtrlO))
	assert.True(t, s.Control().IsExpanded())

	m.Update(keyMsg(tea.KeyCtrlX))
	assert.True(t, s.IsFullscreen())
}

func TestNew_DoesNotModifyConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Keys.Expand = "c-o"
	_, err := New(cfg, WithOutput(&syncBuffer{}))
	require.NoError(t, err)
	assert.Equal(t, "c-o", cfg.Keys.Expand)
}

func TestModel_FullscreenKeyGatedOnConfig(t *testing.T) {
	s, m := newTestModel(t, nil)

	m.Update(keyMsg(tea.KeyCtrlE))
	assert.False(t, s.IsFullscreen())

	s.SetFullscreenEnabled(true)
	m.Update(keyMsg(tea.KeyCtrlE))
	assert.True(t, s.IsFullscreen())

	m.Update(keyMsg(tea.KeyCtrlE))
	assert.False(t, s.IsFullscreen())
}

func TestModel_ExpandDisabledInFullscreen(t *testing.T) {
	s, m := newTestModel(t, func(cfg *config.Config) {
		cfg.Session.FullscreenEnabled = true
		cfg.Thinking.MaxHeight = 2
	})
	s.StartThinking(func() string { return "a\nb\nc\nd" })

	m.Update(keyMsg(tea.KeyCtrlE))
	require.True(t, s.IsFullscreen())
	assert.True(t, s.Control().IsExpanded(), "entering fullscreen expands the panel")

	m.Update(keyMsg(tea.KeyCtrlT))
	assert.True(t, s.Control().IsExpanded(), "expand key is inert in fullscreen")
}

// =============================================================================
// INPUT LINE
// =============================================================================

func TestModel_SubmitAndRecall(t *testing.T) {
	s, m := newTestModel(t, nil)

	got := make(chan string, 1)
	go func() {
		text, _ := s.Prompt(context.Background())
		got <- text
	}()
	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)

	m.input.SetValue("first question")
	m.Update(keyMsg(tea.KeyEnter))
	assert.Equal(t, "first question", <-got)
	assert.Equal(t, "", m.input.Value())

	m.input.SetValue("half typed")
	m.Update(keyMsg(tea.KeyUp))
	assert.Equal(t, "first question", m.input.Value())

	m.Update(keyMsg(tea.KeyUp))
	assert.Equal(t, "first question", m.input.Value(), "stops at the oldest entry")

	m.Update(keyMsg(tea.KeyDown))
	assert.Equal(t, "half typed", m.input.Value(), "the draft comes back")
}

func TestModel_BlankInputIsNotRemembered(t *testing.T) {
	_, m := newTestModel(t, nil)

	m.input.SetValue("   ")
	m.Update(keyMsg(tea.KeyEnter))
	assert.Empty(t, m.inputs)
}

// =============================================================================
// RENDERING
// =============================================================================

func TestModel_ViewPromptMode(t *testing.T) {
	s, m := newTestModel(t, nil)

	view := m.View()
	assert.Contains(t, view, "> ")
	assert.Contains(t, view, "Ctrl+C: cancel")
	assert.NotContains(t, view, "Thinking")

	s.SetStatusText("custom status")
	m.Update(invalidateMsg{})
	assert.Contains(t, m.View(), "custom status")
}

func TestModel_ViewShowsThinkingPanel(t *testing.T) {
	s, m := newTestModel(t, func(cfg *config.Config) { cfg.Thinking.MaxHeight = 3 })

	s.StartThinking(func() string { return "one\ntwo\nthree\nfour" })
	_, cmd := m.Update(invalidateMsg{})
	assert.NotNil(t, cmd, "the refresh tick starts with the turn")
	assert.True(t, m.ticking)

	view := m.View()
	assert.Contains(t, view, "Thinking")
	assert.Contains(t, view, "one")
	assert.NotContains(t, view, "four")
	assert.Contains(t, view, "+2 lines... ctrl-t to expand")

	s.FinishThinking(NoHistory(), Echo(false))
	m.Update(refreshMsg{})
	assert.False(t, m.ticking, "the tick stops once the turn ends")
	assert.NotContains(t, m.View(), "Thinking")
}

func TestModel_ViewExpandedPanel(t *testing.T) {
	s, m := newTestModel(t, func(cfg *config.Config) { cfg.Thinking.MaxHeight = 2 })

	s.StartThinking(func() string { return "alpha\nbeta\ngamma" })
	m.Update(keyMsg(tea.KeyCtrlT))
	require.True(t, s.Control().IsExpanded())

	view := m.View()
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "gamma")
}

func TestModel_FullscreenViewShowsHistory(t *testing.T) {
	s, m := newTestModel(t, func(cfg *config.Config) { cfg.Session.FullscreenEnabled = true })

	s.AddResponse("earlier answer")
	m.handleScreen(screenMsg{item: consoleItem{op: opEnterAlt}, done: make(chan struct{})})
	require.True(t, m.alt)

	view := m.View()
	assert.Contains(t, view, "earlier answer")

	m.handleScreen(screenMsg{item: consoleItem{op: opExitAlt}, done: make(chan struct{})})
	assert.False(t, m.alt)
	assert.NotContains(t, m.View(), "earlier answer")
}

func TestModel_DialogShownAboveInput(t *testing.T) {
	s, m := newTestModel(t, nil)

	go func() { _ = s.MessageDialog(context.Background(), "Notice", "Something happened") }()
	require.Eventually(t, s.Dialogs().Visible, time.Second, time.Millisecond)

	view := m.View()
	assert.Contains(t, view, "Notice")
	assert.Less(t, strings.Index(view, "Notice"), strings.Index(view, "> "))

	m.Update(keyMsg(tea.KeyEnter))
	require.Eventually(t, func() bool { return !s.Dialogs().Visible() }, time.Second, time.Millisecond)
}

func TestModel_SpinnerTicksIgnoredWhenIdle(t *testing.T) {
	_, m := newTestModel(t, nil)
	_, cmd := m.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)
}

func TestModel_FocusMessages(t *testing.T) {
	_, m := newTestModel(t, nil)

	m.Update(focusMsg{dialog: true})
	assert.False(t, m.input.Focused())

	m.Update(focusMsg{dialog: false})
	assert.True(t, m.input.Focused())
}
