// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/jeranaias/thinkprompt/internal/config"
	"github.com/jeranaias/thinkprompt/internal/display"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
	"github.com/jeranaias/thinkprompt/internal/ui/thinking"
	"github.com/jeranaias/thinkprompt/internal/util"
)

// maxExpandedHeight caps the expanded thinking panel in prompt mode.
const maxExpandedHeight = 40

// refreshMsg redraws the thinking panel while a turn is active.
type refreshMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// model is the bubbletea model behind a Session. It is only touched from
// the Update goroutine; everything it shares with other goroutines lives on
// the Session behind locks.
type model struct {
	s     *Session
	keys  KeyMap
	theme *styles.Theme

	input    textinput.Model
	sep      *thinking.Separator
	history  viewport.Model
	expanded viewport.Model

	width  int
	height int

	// alt is true between the alternate screen being entered and left.
	alt bool

	refresh   time.Duration
	ticking   bool
	wasActive bool

	// Input history for up/down, oldest first. browse is the index being
	// shown, len(inputs) while editing a fresh line.
	inputs []string
	browse int
	draft  string
}

func newModel(s *Session) *model {
	cfg := s.cfg

	ti := textinput.New()
	ti.Prompt = s.PromptText()
	ti.PromptStyle = s.theme.Prompt
	ti.TextStyle = s.theme.Input
	ti.Focus()

	refresh := time.Duration(cfg.Session.RefreshIntervalMs) * time.Millisecond
	if refresh <= 0 {
		refresh = 100 * time.Millisecond
	}

	return &model{
		s:     s,
		keys:  NewKeyMap(cfg.Keys),
		theme: s.theme,
		input: ti,
		sep: thinking.NewSeparator(thinking.SeparatorOptions{
			Text:     cfg.Thinking.Text,
			Frames:   cfg.Thinking.Animation,
			After:    cfg.Thinking.AnimationPosition == config.PositionAfter,
			Interval: time.Duration(cfg.Thinking.AnimationIntervalMs) * time.Millisecond,
		}),
		history:  viewport.New(display.DefaultWidth, 20),
		expanded: viewport.New(display.DefaultWidth, maxExpandedHeight),
		width:    display.DefaultWidth,
		height:   24,
		refresh:  refresh,
	}
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.syncThinking())
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = m.width - util.StringWidth(m.input.Prompt) - 1
		m.refreshPanels()
		return m, nil

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case screenMsg:
		return m, m.handleScreen(msg)

	case focusMsg:
		if msg.dialog {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()

	case invalidateMsg:
		cmd = m.syncThinking()

	case refreshMsg:
		m.ticking = false
		cmd = m.syncThinking()

	case spinner.TickMsg:
		if m.s.control.IsActive() {
			return m, m.sep.Update(msg)
		}
		return m, nil

	default:
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.input.Prompt = m.s.PromptText()
	m.refreshPanels()
	return m, cmd
}

// syncThinking starts the spinner and the refresh tick when a turn begins.
func (m *model) syncThinking() tea.Cmd {
	active := m.s.control.IsActive()
	var cmds []tea.Cmd
	if active && !m.wasActive {
		cmds = append(cmds, m.sep.Reset())
	}
	if !active && m.wasActive {
		m.expanded.SetContent("")
	}
	m.wasActive = active

	if active && !m.ticking {
		m.ticking = true
		cmds = append(cmds, tea.Tick(m.refresh, func(time.Time) tea.Msg { return refreshMsg{} }))
	}
	return tea.Batch(cmds...)
}

// handleScreen performs one console item and acknowledges it once the
// resulting message has been delivered to the program.
func (m *model) handleScreen(msg screenMsg) tea.Cmd {
	var op tea.Cmd
	switch msg.item.op {
	case opPrint:
		op = tea.Println(strings.TrimSuffix(msg.item.text, "\n"))
	case opClear:
		op = tea.ClearScreen
	case opEnterAlt:
		m.alt = true
		m.refreshPanels()
		m.history.GotoBottom()
		op = tea.EnterAltScreen
	case opExitAlt:
		m.alt = false
		op = tea.ExitAltScreen
	}
	done := msg.done
	return tea.Sequence(op, func() tea.Msg {
		close(done)
		return nil
	})
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := m.s
	m.keys.gate(s.IsFullscreen(), s.FullscreenEnabled(), s.control)

	switch {
	case key.Matches(msg, m.keys.Interrupt):
		if s.control.IsActive() {
			s.cancelTurn()
			return nil
		}
		s.abortPrompt(ErrInterrupted)
		return tea.Quit

	case key.Matches(msg, m.keys.Quit):
		s.abortPrompt(ErrEOF)
		return tea.Quit
	}

	if s.dialogs.HandleKey(msg) {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Fullscreen):
		s.toggleFullscreen()
		return nil

	case key.Matches(msg, m.keys.Expand):
		s.control.ToggleExpanded()
		if s.control.IsExpanded() {
			m.expanded.GotoBottom()
		}
		s.Invalidate()
		return nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.scrollTarget().HalfViewUp()
		return nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.scrollTarget().HalfViewDown()
		return nil

	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return nil

	case key.Matches(msg, m.keys.HistoryPrev):
		m.recall(-1)
		return nil

	case key.Matches(msg, m.keys.HistoryNext):
		m.recall(1)
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// scrollTarget is the viewport the scroll keys move.
func (m *model) scrollTarget() *viewport.Model {
	if m.alt {
		return &m.history
	}
	return &m.expanded
}

// submit accepts the input line.
func (m *model) submit() {
	text := m.input.Value()
	if !util.IsBlank(text) {
		if n := len(m.inputs); n == 0 || m.inputs[n-1] != text {
			m.inputs = append(m.inputs, text)
		}
	}
	m.browse = len(m.inputs)
	m.draft = ""
	m.input.Reset()
	m.s.accept(text)
}

// recall moves through earlier inputs. Leaving the newest entry restores
// the line being typed.
func (m *model) recall(delta int) {
	next := m.browse + delta
	if next < 0 || next > len(m.inputs) {
		return
	}
	if m.browse == len(m.inputs) {
		m.draft = m.input.Value()
	}
	m.browse = next
	if next == len(m.inputs) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.inputs[next])
	}
	m.input.CursorEnd()
}

// =============================================================================
// VIEW
// =============================================================================

// refreshPanels lays out the viewports for the current state.
func (m *model) refreshPanels() {
	w := m.width
	if w < 1 {
		w = 1
	}

	if m.s.control.IsExpanded() {
		atBottom := m.expanded.AtBottom()
		content := wrapWidth(m.theme.Render(styles.TagThinkingBox, m.s.control.Content()), w)
		m.expanded.Width = w
		m.expanded.Height = clamp(strings.Count(content, "\n")+1, 1, m.expandedLimit())
		m.expanded.SetContent(content)
		if atBottom {
			m.expanded.GotoBottom()
		}
	}

	if m.alt {
		atBottom := m.history.AtBottom()
		content := wrapWidth(display.RenderFragments(m.theme, m.s.History().Formatted()), w)
		m.history.Width = w
		m.history.Height = clamp(m.height-m.chromeHeight(), 1, m.height)
		m.history.SetContent(content)
		if atBottom {
			m.history.GotoBottom()
		}
	}
}

// expandedLimit is the tallest the expanded panel may grow.
func (m *model) expandedLimit() int {
	if m.alt {
		return clamp(m.height/2, 1, maxExpandedHeight)
	}
	return clamp(m.height-m.bottomHeight()-1, 1, maxExpandedHeight)
}

// bottomHeight counts the rows below the thinking panel.
func (m *model) bottomHeight() int {
	h := 3
	if m.s.statusBarEnabled() {
		h++
	}
	return h
}

// chromeHeight counts the rows below the fullscreen history.
func (m *model) chromeHeight() int {
	return m.bottomHeight() + m.thinkingHeight()
}

func (m *model) thinkingHeight() int {
	if !m.s.control.IsActive() {
		return 0
	}
	if m.s.control.IsExpanded() {
		return 1 + m.expanded.Height
	}
	return 1 + util.CountWrappedLines(m.s.control.Formatted().PlainText(), m.width)
}

// View implements tea.Model.
func (m *model) View() string {
	var b strings.Builder

	if m.alt {
		b.WriteString(m.history.View())
		b.WriteString("\n")
	} else if box := m.s.dialogs.View(m.width); box != "" {
		b.WriteString(box)
		b.WriteString("\n")
	}

	if panel := m.thinkingView(); panel != "" {
		b.WriteString(panel)
		b.WriteString("\n")
	}

	rule := m.theme.Separator.Render(strings.Repeat("─", m.width))
	b.WriteString(rule)
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(rule)

	if m.s.statusBarEnabled() {
		b.WriteString("\n")
		b.WriteString(m.theme.Render(styles.TagStatusBar, truncate.String(m.s.StatusText(), uint(m.width))))
	}

	if m.alt {
		return m.s.dialogs.Overlay(b.String(), m.width, m.height)
	}
	return b.String()
}

// thinkingView renders the separator and the panel, or "" with no turn.
func (m *model) thinkingView() string {
	if !m.s.control.IsActive() {
		return ""
	}
	line := m.theme.Render(styles.TagThinkingBorder, m.sep.View(m.width))
	if m.s.control.IsExpanded() {
		return line + "\n" + m.expanded.View()
	}
	frags := m.s.control.Formatted()
	if len(frags) == 0 {
		return line
	}
	body := wrapWidth(display.RenderFragments(m.theme, frags), m.width)
	return line + "\n" + strings.TrimRight(body, "\n")
}

// wrapWidth word-wraps s at width and hard-wraps words that are longer.
func wrapWidth(s string, width int) string {
	if width < 1 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
