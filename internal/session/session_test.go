// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/thinkprompt/internal/config"
	"github.com/jeranaias/thinkprompt/internal/display"
	"github.com/jeranaias/thinkprompt/internal/ui/settings"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
	"github.com/jeranaias/thinkprompt/internal/ui/thinking"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeHost stands in for a running *tea.Program.
type fakeHost struct {
	msgs     chan tea.Msg
	quit     chan struct{}
	quitOnce sync.Once
}

func newFakeHost() *fakeHost {
	return &fakeHost{msgs: make(chan tea.Msg, 64), quit: make(chan struct{})}
}

func (h *fakeHost) Send(msg tea.Msg) {
	select {
	case h.msgs <- msg:
	case <-h.quit:
	}
}

func (h *fakeHost) Quit() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// serve acknowledges screen messages until the host quits, recording the
// printed text in order.
func (h *fakeHost) serve() *printLog {
	log := &printLog{}
	go func() {
		for {
			select {
			case msg := <-h.msgs:
				if sm, ok := msg.(screenMsg); ok {
					log.add(sm.item)
					close(sm.done)
				}
			case <-h.quit:
				return
			}
		}
	}()
	return log
}

type printLog struct {
	mu    sync.Mutex
	items []consoleItem
}

func (l *printLog) add(item consoleItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, item)
}

func (l *printLog) prints() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, item := range l.items {
		if item.op == opPrint {
			out = append(out, item.text)
		}
	}
	return out
}

func newTestSession(t *testing.T, mutate func(cfg *config.Config)) (*Session, *syncBuffer) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	out := &syncBuffer{}
	s, err := New(cfg, WithOutput(out), WithInput(strings.NewReader("")), WithTheme(styles.NewTheme()))
	require.NoError(t, err)
	return s, out
}

func (s *Session) hasPendingPrompt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func historyText(s *Session) string {
	return s.History().Formatted().PlainText()
}

// startRun runs the session against h until h quits.
func startRun(t *testing.T, s *Session, h *fakeHost) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() {
		done <- s.run(ctx, cancel, h, func() error {
			<-h.quit
			return nil
		})
	}()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
		return nil
	}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_RejectsBadConfigEagerly(t *testing.T) {
	cfg := config.Default()
	cfg.Thinking.MaxHeight = 1

	s, err := New(cfg, WithOutput(&syncBuffer{}))
	require.Error(t, err)
	assert.Nil(t, s)
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	s, err := New(nil, WithOutput(&syncBuffer{}))
	require.NoError(t, err)
	assert.Equal(t, 15, s.Control().MaxCollapsedLines())
	assert.False(t, s.FullscreenEnabled())
}

// =============================================================================
// THINKING TURNS
// =============================================================================

func TestSession_TurnLifecycle(t *testing.T) {
	s, out := newTestSession(t, nil)

	s.StartThinking(func() string { return "hello\n" })
	assert.True(t, s.IsThinking())

	got := s.FinishThinking()
	assert.Equal(t, "hello\n", got)
	assert.False(t, s.IsThinking())
	assert.Contains(t, historyText(s), "hello")
	assert.Contains(t, out.String(), "hello")
}

func TestSession_FinishWithoutTurn(t *testing.T) {
	s, _ := newTestSession(t, nil)
	assert.Equal(t, "", s.FinishThinking())
	assert.True(t, s.History().IsEmpty())
}

func TestSession_FinishOptions(t *testing.T) {
	s, out := newTestSession(t, nil)

	s.StartThinking(func() string { return "secret" })
	s.FinishThinking(NoHistory(), Echo(false))
	assert.True(t, s.History().IsEmpty())
	assert.Empty(t, out.String())

	s.SetEchoThinking(false)
	s.StartThinking(func() string { return "quiet" })
	s.FinishThinking()
	assert.Contains(t, historyText(s), "quiet")
	assert.NotContains(t, out.String(), "quiet")
}

func TestSession_FinishTruncatesConsoleCopy(t *testing.T) {
	s, out := newTestSession(t, func(cfg *config.Config) { cfg.Thinking.MaxHeight = 3 })

	content := "l1\nl2\nl3\nl4\nl5\n"
	s.StartThinking(func() string { return content })
	assert.Equal(t, content, s.FinishThinking())

	assert.Contains(t, out.String(), "...")
	assert.NotContains(t, out.String(), "l5")
	assert.Contains(t, historyText(s), "l5", "history keeps the full content")
}

func TestSession_ThinkingScope(t *testing.T) {
	s, _ := newTestSession(t, nil)

	got, err := s.Thinking(func(c *thinking.StreamingContent) error {
		c.Append("step one\n")
		c.Append("step two\n")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "step one\nstep two\n", got)
	assert.Contains(t, historyText(s), "step two")
}

func TestSession_ThinkingErrorLeavesNoTrace(t *testing.T) {
	s, out := newTestSession(t, nil)
	boom := errors.New("boom")

	got, err := s.Thinking(func(c *thinking.StreamingContent) error {
		c.Append("partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got)
	assert.False(t, s.IsThinking())
	assert.True(t, s.History().IsEmpty())
	assert.NotContains(t, out.String(), "partial")
}

func TestSession_ThinkingPanicLeavesNoTrace(t *testing.T) {
	s, _ := newTestSession(t, nil)

	assert.PanicsWithValue(t, "kaboom", func() {
		_, _ = s.Thinking(func(c *thinking.StreamingContent) error {
			c.Append("partial")
			panic("kaboom")
		})
	})
	assert.False(t, s.IsThinking())
	assert.True(t, s.History().IsEmpty())
}

func TestSession_ThinkingWithFailingSource(t *testing.T) {
	s, _ := newTestSession(t, nil)

	s.StartThinking(func() string { panic("source broke") })
	assert.Equal(t, "", s.FinishThinking())
	assert.True(t, s.History().IsEmpty())
}

// =============================================================================
// FULLSCREEN
// =============================================================================

func TestSession_FullscreenBuffering(t *testing.T) {
	s, out := newTestSession(t, func(cfg *config.Config) { cfg.Session.FullscreenEnabled = true })

	s.SwitchToFullscreen()
	require.True(t, s.IsFullscreen())

	s.AddResponse("x1")
	s.AddResponse("x2")
	s.AddResponse("x3")
	assert.Empty(t, out.String(), "nothing printed while fullscreen")
	assert.Equal(t, 3, s.Display().PendingLen())

	s.SwitchToPrompt()
	assert.False(t, s.IsFullscreen())
	assert.Equal(t, 0, s.Display().PendingLen())

	printed := out.String()
	i1, i2, i3 := strings.Index(printed, "x1"), strings.Index(printed, "x2"), strings.Index(printed, "x3")
	require.True(t, i1 >= 0 && i2 >= 0 && i3 >= 0, printed)
	assert.True(t, i1 < i2 && i2 < i3, "flushed in call order")
}

func TestSession_FullscreenDisabledIsNoop(t *testing.T) {
	s, _ := newTestSession(t, nil)

	s.SwitchToFullscreen()
	assert.False(t, s.IsFullscreen())

	s.SetFullscreenEnabled(true)
	s.SwitchToFullscreen()
	assert.True(t, s.IsFullscreen())

	s.SetFullscreenEnabled(false)
	assert.False(t, s.IsFullscreen(), "disabling leaves fullscreen")
}

func TestSession_ToggleFullscreenExpandsActiveTurn(t *testing.T) {
	s, _ := newTestSession(t, func(cfg *config.Config) { cfg.Session.FullscreenEnabled = true })

	s.StartThinking(func() string { return "short" })
	s.toggleFullscreen()
	assert.True(t, s.IsFullscreen())
	assert.True(t, s.Control().IsExpanded())

	s.toggleFullscreen()
	assert.False(t, s.IsFullscreen())
}

func TestSession_ClearResetsEverything(t *testing.T) {
	s, out := newTestSession(t, func(cfg *config.Config) {
		cfg.Session.FullscreenEnabled = true
		cfg.App.WelcomeMessage = "welcome back"
	})

	s.AddResponse("old")
	s.SwitchToFullscreen()
	s.AddResponse("queued")

	s.Clear()

	assert.False(t, s.IsFullscreen())
	assert.Equal(t, 0, s.Display().PendingLen())
	assert.NotContains(t, historyText(s), "old")
	assert.Contains(t, historyText(s), "welcome back")
	assert.Contains(t, out.String(), display.ClearScreen)
	assert.NotContains(t, out.String(), "queued")
}

// =============================================================================
// OUTPUT METHODS
// =============================================================================

func TestSession_OutputMethods(t *testing.T) {
	s, _ := newTestSession(t, nil)

	s.AddError("bad")
	s.AddWarning("careful")
	s.AddSuccess("done")
	s.AddSystem("note")
	s.AddRaw("raw text\n", "")

	text := historyText(s)
	assert.Contains(t, text, "[ERROR] bad")
	assert.Contains(t, text, "[WARN] careful")
	assert.Contains(t, text, "[OK] done")
	assert.Contains(t, text, "note")
	assert.Contains(t, text, "raw text")
}

func TestSession_AddMessageRoles(t *testing.T) {
	tests := []struct {
		role  string
		style string
	}{
		{RoleUser, styles.TagUserMessage},
		{RoleAssistant, styles.TagAssistant},
		{RoleThinking, styles.TagThinking},
		{RoleSystem, styles.TagSystem},
		{"narrator", ""},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			s, _ := newTestSession(t, nil)
			s.AddMessage(tt.role, "content")

			frags := s.History().Formatted()
			require.NotEmpty(t, frags)
			last := frags[len(frags)-1]
			assert.Equal(t, tt.style, last.Style)
			assert.Contains(t, last.Text, "content")
		})
	}
}

// =============================================================================
// PROMPT
// =============================================================================

func TestPrompt_ReceivesAcceptedInput(t *testing.T) {
	s, _ := newTestSession(t, nil)

	got := make(chan string, 1)
	go func() {
		text, err := s.Prompt(context.Background())
		assert.NoError(t, err)
		got <- text
	}()
	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)

	s.accept("hello")
	assert.Equal(t, "hello", <-got)
	assert.Contains(t, historyText(s), "> hello", "accepted input is echoed")
}

func TestPrompt_CancelledContextInterrupts(t *testing.T) {
	s, _ := newTestSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Prompt(ctx)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.False(t, s.hasPendingPrompt())
}

func TestPrompt_Busy(t *testing.T) {
	s, _ := newTestSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _, _ = s.Prompt(ctx) }()
	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)

	_, err := s.Prompt(context.Background())
	assert.ErrorIs(t, err, ErrPromptBusy)
}

func TestAccept_DropsInputWithoutPrompt(t *testing.T) {
	s, _ := newTestSession(t, func(cfg *config.Config) { cfg.Session.EchoInput = false })
	s.accept("nobody listens")
	assert.True(t, s.History().IsEmpty())
}

// =============================================================================
// INPUT LOOP
// =============================================================================

func TestRun_RequiresHandler(t *testing.T) {
	s, _ := newTestSession(t, nil)
	assert.ErrorIs(t, s.Run(context.Background()), ErrNoHandler)
}

func TestRun_HandlerErrorDoesNotStopLoop(t *testing.T) {
	s, _ := newTestSession(t, nil)

	var mu sync.Mutex
	var seen []string
	s.OnInput(func(ctx context.Context, text string) error {
		mu.Lock()
		seen = append(seen, text)
		mu.Unlock()
		if text == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	h := newFakeHost()
	h.serve()
	done := startRun(t, s, h)

	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)
	s.accept("bad")
	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)
	s.accept("good")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, time.Millisecond)

	assert.Contains(t, historyText(s), "[ERROR] Handler error: boom")

	s.Exit()
	assert.NoError(t, waitRun(t, done))
	assert.Equal(t, []string{"bad", "good"}, seen)
}

func TestRun_HandlerPanicIsReported(t *testing.T) {
	s, _ := newTestSession(t, nil)
	handled := make(chan struct{})
	s.OnInput(func(ctx context.Context, text string) error {
		defer close(handled)
		panic("handler blew up")
	})

	h := newFakeHost()
	h.serve()
	done := startRun(t, s, h)

	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)
	s.accept("go")
	<-handled
	require.Eventually(t, func() bool {
		return strings.Contains(historyText(s), "Handler error: panic: handler blew up")
	}, time.Second, time.Millisecond)

	s.Exit()
	assert.NoError(t, waitRun(t, done))
}

func TestRun_CancelledTurnIsNotAnError(t *testing.T) {
	s, _ := newTestSession(t, nil)
	started := make(chan struct{})
	s.OnInput(func(ctx context.Context, text string) error {
		_, err := s.Thinking(func(c *thinking.StreamingContent) error {
			c.Append("working\n")
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
		return err
	})

	h := newFakeHost()
	h.serve()
	done := startRun(t, s, h)

	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)
	s.accept("go")
	<-started

	s.cancelTurn()
	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)

	assert.False(t, s.IsThinking())
	text := historyText(s)
	assert.NotContains(t, text, "working")
	assert.NotContains(t, text, "Handler error")

	s.Exit()
	assert.NoError(t, waitRun(t, done))
}

func TestRun_EndsInputLoopOnInterrupt(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.OnInput(func(ctx context.Context, text string) error { return nil })

	h := newFakeHost()
	h.serve()
	done := startRun(t, s, h)

	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)
	s.abortPrompt(ErrInterrupted)

	assert.NoError(t, waitRun(t, done), "the loop exits the program when input ends")
}

func TestRun_OutputRoutedThroughProgram(t *testing.T) {
	s, out := newTestSession(t, nil)
	s.OnInput(func(ctx context.Context, text string) error {
		s.AddResponse("reply to " + text)
		return nil
	})

	h := newFakeHost()
	log := h.serve()
	done := startRun(t, s, h)

	require.Eventually(t, s.hasPendingPrompt, time.Second, time.Millisecond)
	s.accept("ping")

	require.Eventually(t, func() bool {
		for _, p := range log.prints() {
			if strings.Contains(p, "reply to ping") {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	prints := log.prints()
	require.GreaterOrEqual(t, len(prints), 2)
	assert.Contains(t, prints[len(prints)-2], "ping", "echo comes before the reply")
	assert.NotContains(t, out.String(), "reply to ping")

	s.Exit()
	require.NoError(t, waitRun(t, done))

	s.AddResponse("after exit")
	assert.Contains(t, out.String(), "after exit", "direct output once the program is gone")
}

func TestRun_OnlyOnce(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.OnInput(func(ctx context.Context, text string) error { return nil })

	s.mu.Lock()
	s.ran = true
	s.mu.Unlock()

	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)
}

// =============================================================================
// DIALOGS
// =============================================================================

func TestSession_YesNoDialogWithKeys(t *testing.T) {
	s, _ := newTestSession(t, nil)
	m := newModel(s)

	got := make(chan bool, 1)
	go func() {
		yes, err := s.YesNoDialog(context.Background(), "Confirm", "Really?")
		assert.NoError(t, err)
		got <- yes
	}()
	require.Eventually(t, s.Dialogs().Visible, time.Second, time.Millisecond)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case yes := <-got:
		assert.False(t, yes)
	case <-time.After(time.Second):
		t.Fatal("dialog did not resolve")
	}
	assert.False(t, s.Dialogs().Visible())
}

func TestSession_SettingsDialog(t *testing.T) {
	s, _ := newTestSession(t, nil)
	m := newModel(s)

	items := []settings.Item{
		settings.Dropdown("model", "Model", []string{"a", "b"}, "a"),
		settings.Checkbox("stream", "Stream", true),
	}

	type result struct {
		changes map[string]any
		err     error
	}
	got := make(chan result, 1)
	go func() {
		changes, err := s.ShowSettingsDialog(context.Background(), "Settings", items, settings.Options{})
		got <- result{changes, err}
	}()
	require.Eventually(t, s.Dialogs().Visible, time.Second, time.Millisecond)

	m.Update(tea.KeyMsg{Type: tea.KeyRight}) // model: a -> b
	m.Update(tea.KeyMsg{Type: tea.KeyTab})   // focus Save
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case r := <-got:
		require.NoError(t, r.err)
		assert.Equal(t, map[string]any{"model": "b"}, r.changes)
	case <-time.After(time.Second):
		t.Fatal("settings dialog did not resolve")
	}
}

func TestSession_SettingsDialogCancel(t *testing.T) {
	s, _ := newTestSession(t, nil)
	m := newModel(s)

	got := make(chan map[string]any, 1)
	go func() {
		changes, err := s.ShowSettingsDialog(context.Background(), "Settings",
			[]settings.Item{settings.Checkbox("stream", "Stream", true)}, settings.Options{})
		assert.NoError(t, err)
		got <- changes
	}()
	require.Eventually(t, s.Dialogs().Visible, time.Second, time.Millisecond)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	select {
	case changes := <-got:
		assert.Nil(t, changes)
	case <-time.After(time.Second):
		t.Fatal("settings dialog did not resolve")
	}
}
