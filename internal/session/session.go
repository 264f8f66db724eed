// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jeranaias/thinkprompt/internal/config"
	"github.com/jeranaias/thinkprompt/internal/display"
	"github.com/jeranaias/thinkprompt/internal/history"
	"github.com/jeranaias/thinkprompt/internal/logging"
	"github.com/jeranaias/thinkprompt/internal/ui/dialog"
	"github.com/jeranaias/thinkprompt/internal/ui/styles"
	"github.com/jeranaias/thinkprompt/internal/ui/thinking"
	"github.com/jeranaias/thinkprompt/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInterrupted is returned by Prompt when the wait is cancelled or the
	// user presses Ctrl+C with no thinking turn active.
	ErrInterrupted = errors.New("interrupted")

	// ErrEOF is returned by Prompt once the program has exited.
	ErrEOF = errors.New("end of input")

	// ErrNoHandler is returned by Run when no input handler is registered.
	ErrNoHandler = errors.New("no input handler registered")

	// ErrAlreadyRunning is returned by Run on a session that has already run.
	ErrAlreadyRunning = errors.New("session already ran")

	// ErrPromptBusy is returned by Prompt while another Prompt is waiting.
	ErrPromptBusy = errors.New("another prompt is already waiting")
)

// Handler processes one submitted input. ctx is cancelled when the user
// interrupts the turn with Ctrl+C or the session ends.
type Handler func(ctx context.Context, text string) error

// Message roles for AddMessage.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleThinking  = "thinking"
	RoleSystem    = "system"
)

// promptResult is the outcome of one Prompt wait.
type promptResult struct {
	text string
	err  error
}

// =============================================================================
// SESSION
// =============================================================================

// Session is an interactive prompt with a live thinking panel, an optional
// fullscreen history view and modal dialogs.
type Session struct {
	cfg     *config.Config
	theme   *styles.Theme
	control *thinking.Control
	display *display.Display
	dialogs *dialog.Manager
	console *programConsole
	inval   *invalidator
	turns   *cancelManager

	in  io.Reader
	out io.Writer

	// fsMu guards fullscreen. The lock order is display, then fsMu.
	fsMu       sync.Mutex
	fullscreen bool

	mu                sync.Mutex
	host              host
	handler           Handler
	pending           chan promptResult
	prompt            string
	statusText        string
	statusBar         bool
	echoInput         bool
	echoThinking      bool
	fullscreenEnabled bool
	turnID            string
	ran               bool

	runDone chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sets the terminal output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithInput sets the terminal input. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(s *Session) { s.in = r }
}

// WithTheme replaces the default theme.
func WithTheme(t *styles.Theme) Option {
	return func(s *Session) { s.theme = t }
}

// New creates a session from a copy of cfg. Key chords are normalized and
// the configuration is validated here, so a bad value fails now rather than
// on the first turn.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()
	cfg.Keys.Expand = config.NormalizeKey(cfg.Keys.Expand)
	cfg.Keys.Fullscreen = config.NormalizeKey(cfg.Keys.Fullscreen)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	control, err := thinking.NewControl(cfg.Thinking.MaxHeight, cfg.Keys.Expand)
	if err != nil {
		return nil, fmt.Errorf("failed to create thinking control: %w", err)
	}

	s := &Session{
		cfg:               cfg,
		control:           control,
		inval:             newInvalidator(0),
		turns:             newCancelManager(),
		in:                os.Stdin,
		out:               os.Stdout,
		prompt:            cfg.App.Prompt,
		statusText:        cfg.Session.StatusText,
		statusBar:         cfg.Session.StatusBar,
		echoInput:         cfg.Session.EchoInput,
		echoThinking:      cfg.Thinking.Echo,
		fullscreenEnabled: cfg.Session.FullscreenEnabled,
		runDone:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.theme == nil {
		s.theme = styles.NewTheme()
	}

	s.console = newProgramConsole(s.out, s.theme)
	s.display = display.New(s.console, display.Options{IsFullscreen: s.IsFullscreen})
	s.display.OnChange(s.inval.Invalidate)
	s.dialogs = dialog.NewManager(dialog.Options{
		Focus:      s,
		Theme:      s.theme,
		Install:    s.inval.Invalidate,
		Invalidate: s.inval.Invalidate,
	})
	return s, nil
}

// Display returns the output mediator.
func (s *Session) Display() *display.Display {
	return s.display
}

// History returns the durable output log.
func (s *Session) History() *history.History {
	return s.display.History()
}

// Control returns the thinking panel state machine.
func (s *Session) Control() *thinking.Control {
	return s.control
}

// Dialogs returns the dialog manager.
func (s *Session) Dialogs() *dialog.Manager {
	return s.dialogs
}

// =============================================================================
// THINKING TURNS
// =============================================================================

// StartThinking begins a thinking turn that pulls its content from source
// on every redraw.
func (s *Session) StartThinking(source thinking.ContentSource) {
	id := uuid.NewString()
	s.mu.Lock()
	s.turnID = id
	s.mu.Unlock()

	s.control.Start(source)
	logging.Printf("THINKING_START | turn=%s", id)
	s.inval.Invalidate()
}

// finishOptions holds the FinishThinking switches.
type finishOptions struct {
	addToHistory bool
	echo         *bool
}

// FinishOption adjusts FinishThinking.
type FinishOption func(*finishOptions)

// NoHistory keeps the content out of the history.
func NoHistory() FinishOption {
	return func(o *finishOptions) { o.addToHistory = false }
}

// Echo overrides the configured echo-to-console default.
func Echo(echo bool) FinishOption {
	return func(o *finishOptions) { o.echo = &echo }
}

// FinishThinking ends the current turn and returns its full content. Blank
// content writes nothing. Otherwise it goes to the history and, when echo is
// on, to the console cut to the panel height. Without an active turn it
// returns "".
func (s *Session) FinishThinking(opts ...FinishOption) string {
	o := finishOptions{addToHistory: true}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	echo := s.echoThinking
	id := s.turnID
	s.turnID = ""
	s.mu.Unlock()
	if o.echo != nil {
		echo = *o.echo
	}

	if !s.control.IsActive() {
		return ""
	}
	content, wasExpanded := s.control.Finish()
	logging.Printf("THINKING_FINISH | turn=%s chars=%d expanded=%t history=%t echo=%t",
		id, len(content), wasExpanded, o.addToHistory, echo)

	s.display.Thinking(content, display.ThinkingOptions{
		TruncateLines: s.control.MaxCollapsedLines(),
		AddToHistory:  o.addToHistory,
		EchoToConsole: echo,
	})
	s.inval.Invalidate()
	return content
}

// Thinking runs fn inside a thinking turn fed by a fresh StreamingContent.
// When fn returns nil the turn finishes normally and its content is
// returned. When fn fails or panics the turn finishes without touching the
// history or the console, and the error is returned or the panic resumed.
func (s *Session) Thinking(fn func(content *thinking.StreamingContent) error, opts ...FinishOption) (string, error) {
	content := thinking.NewStreamingContent()
	s.StartThinking(content.Source())

	ok := false
	defer func() {
		if !ok {
			s.FinishThinking(NoHistory(), Echo(false))
		}
	}()

	if err := fn(content); err != nil {
		return "", err
	}
	ok = true
	return s.FinishThinking(opts...), nil
}

// IsThinking reports whether a turn is active.
func (s *Session) IsThinking() bool {
	return s.control.IsActive()
}

// =============================================================================
// FULLSCREEN MODE
// =============================================================================

// IsFullscreen reports whether the fullscreen view is active. Thread-safe.
func (s *Session) IsFullscreen() bool {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()
	return s.fullscreen
}

// setFullscreen flips the flag and reports whether it changed.
func (s *Session) setFullscreen(on bool) bool {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()
	if s.fullscreen == on {
		return false
	}
	s.fullscreen = on
	return true
}

// SwitchToFullscreen enters the fullscreen view. It does nothing when
// fullscreen is disabled. Output written meanwhile is held back.
func (s *Session) SwitchToFullscreen() {
	if !s.FullscreenEnabled() {
		return
	}
	s.display.Switch(func() {
		if s.setFullscreen(true) {
			s.console.EnterAltScreen()
			logging.Printf("FULLSCREEN_ENTER")
		}
	})
	s.inval.Invalidate()
}

// SwitchToPrompt leaves the fullscreen view. Output held back while
// fullscreen is queued for printing, in order, before it returns.
func (s *Session) SwitchToPrompt() {
	s.display.Switch(func() {
		if s.setFullscreen(false) {
			s.console.ExitAltScreen()
			logging.Printf("FULLSCREEN_EXIT")
		}
	})
	s.inval.Invalidate()
}

// toggleFullscreen is bound to the fullscreen key. Entering fullscreen
// expands an active thinking panel.
func (s *Session) toggleFullscreen() {
	if s.IsFullscreen() {
		s.SwitchToPrompt()
		return
	}
	if s.control.IsActive() {
		s.control.Expand()
	}
	s.SwitchToFullscreen()
}

// FullscreenEnabled reports whether the fullscreen toggle has any effect.
func (s *Session) FullscreenEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreenEnabled
}

// SetFullscreenEnabled turns the fullscreen toggle on or off. Disabling it
// while fullscreen returns to prompt mode.
func (s *Session) SetFullscreenEnabled(enabled bool) {
	s.mu.Lock()
	s.fullscreenEnabled = enabled
	s.mu.Unlock()
	if !enabled {
		s.SwitchToPrompt()
	}
}

// =============================================================================
// OUTPUT METHODS
// =============================================================================

// AddResponse writes an assistant response.
func (s *Session) AddResponse(content string) {
	s.display.Response(content)
}

// AddMarkdown renders markdown and writes it.
func (s *Session) AddMarkdown(content string) {
	s.display.Markdown(content)
}

// AddMessage writes content styled for role. Unknown roles are written as
// plain text.
func (s *Session) AddMessage(role, content string) {
	switch role {
	case RoleUser:
		s.display.UserInput(s.PromptText(), content)
	case RoleAssistant:
		s.display.Response(content)
	case RoleThinking:
		s.display.Thinking(content, display.ThinkingOptions{AddToHistory: true, EchoToConsole: true})
	case RoleSystem:
		s.display.System(content)
	default:
		s.display.Raw(content+"\n", "")
	}
}

// AddError writes an error message.
func (s *Session) AddError(content string) {
	s.display.Error(content)
}

// AddWarning writes a warning.
func (s *Session) AddWarning(content string) {
	s.display.Warning(content)
}

// AddSuccess writes a success message.
func (s *Session) AddSuccess(content string) {
	s.display.Success(content)
}

// AddSystem writes a system notice.
func (s *Session) AddSystem(content string) {
	s.display.System(content)
}

// AddCode writes a highlighted code block. An empty language is guessed.
func (s *Session) AddCode(code, language string) {
	s.display.Code(code, language)
}

// AddRich renders any value, see display.RenderValue.
func (s *Session) AddRich(v interface{}) {
	s.display.Rich(v)
}

// AddFormatted writes pre-styled fragments.
func (s *Session) AddFormatted(frags history.Fragments) {
	s.display.Formatted(frags)
}

// AddRaw writes text with an optional style tag.
func (s *Session) AddRaw(text, tag string) {
	s.display.Raw(text, tag)
}

// Clear returns to prompt mode and wipes the terminal, the history and any
// held-back output, then prints the welcome banner again.
func (s *Session) Clear() {
	s.display.ClearAfter(func() {
		if s.setFullscreen(false) {
			s.console.ExitAltScreen()
		}
	})
	s.printWelcome()
	s.inval.Invalidate()
}

func (s *Session) printWelcome() {
	s.display.Welcome(s.cfg.WelcomeContent())
}

// =============================================================================
// SESSION STATE
// =============================================================================

// PromptText returns the prompt string shown before the input line.
func (s *Session) PromptText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// SetPrompt changes the prompt string.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
	s.inval.Invalidate()
}

// StatusText returns the status bar text.
func (s *Session) StatusText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusText
}

// SetStatusText changes the status bar text.
func (s *Session) SetStatusText(text string) {
	s.mu.Lock()
	s.statusText = text
	s.mu.Unlock()
	s.inval.Invalidate()
}

func (s *Session) statusBarEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusBar
}

// SetEchoThinking changes the default for echoing finished turns.
func (s *Session) SetEchoThinking(echo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echoThinking = echo
}

// Invalidate requests a redraw.
func (s *Session) Invalidate() {
	s.inval.Invalidate()
}

// =============================================================================
// FOCUS
// =============================================================================

// focusMsg moves focus between the input line and a dialog.
type focusMsg struct {
	dialog bool
}

// FocusDialog implements dialog.FocusController.
func (s *Session) FocusDialog(d *dialog.Dialog) {
	s.send(focusMsg{dialog: true})
}

// FocusInput implements dialog.FocusController.
func (s *Session) FocusInput() {
	s.send(focusMsg{dialog: false})
}

// send delivers msg to the running program, if any.
func (s *Session) send(msg tea.Msg) {
	s.mu.Lock()
	h := s.host
	s.mu.Unlock()
	if h != nil {
		h.Send(msg)
	}
}

// Exit stops the program. Run returns once the handler in flight is done.
func (s *Session) Exit() {
	s.mu.Lock()
	h := s.host
	s.mu.Unlock()
	if h != nil {
		h.Quit()
	}
}

// =============================================================================
// INPUT
// =============================================================================

// OnInput registers the handler called for each submitted input.
func (s *Session) OnInput(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Prompt waits for the next submitted input. It returns ErrInterrupted when
// ctx ends or the user interrupts, and ErrEOF once the program has exited.
func (s *Session) Prompt(ctx context.Context) (string, error) {
	req := make(chan promptResult, 1)

	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return "", ErrPromptBusy
	}
	s.pending = req
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.pending == req {
			s.pending = nil
		}
		s.mu.Unlock()
	}()

	select {
	case r := <-req:
		return r.text, r.err
	case <-ctx.Done():
		return "", ErrInterrupted
	case <-s.runDone:
		select {
		case r := <-req:
			return r.text, r.err
		default:
		}
		return "", ErrEOF
	}
}

// takePending removes and returns the waiting Prompt request, or nil.
func (s *Session) takePending() chan promptResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.pending
	s.pending = nil
	return req
}

// accept handles a submitted line: echo it, then hand it to the waiting
// Prompt. Input submitted while nobody waits is dropped.
func (s *Session) accept(text string) {
	s.mu.Lock()
	echo := s.echoInput
	prompt := s.prompt
	s.mu.Unlock()

	if echo && !util.IsBlank(text) {
		s.display.UserInput(prompt, text)
	}

	req := s.takePending()
	if req == nil {
		logging.Printf("INPUT_DROPPED | chars=%d", len(text))
		return
	}
	req <- promptResult{text: text}
}

// abortPrompt resolves the waiting Prompt with err.
func (s *Session) abortPrompt(err error) {
	if req := s.takePending(); req != nil {
		req <- promptResult{err: err}
	}
}

// cancelTurn handles Ctrl+C during a thinking turn: the panel is reset
// without writing anything and the handler's context is cancelled.
func (s *Session) cancelTurn() {
	s.mu.Lock()
	id := s.turnID
	s.turnID = ""
	s.mu.Unlock()

	s.control.Finish()
	cancelled := s.turns.cancel()
	logging.Printf("THINKING_CANCEL | turn=%s handler_cancelled=%t", id, cancelled)
	s.inval.Invalidate()
}

// inputLoop feeds submitted inputs to the handler until the input ends.
func (s *Session) inputLoop(ctx context.Context, h Handler) {
	for {
		text, err := s.Prompt(ctx)
		if err != nil {
			logging.Printf("INPUT_LOOP_END | reason=%v", err)
			s.Exit()
			return
		}
		s.dispatch(ctx, h, text)
	}
}

// dispatch runs one handler call. Failures are reported and the loop
// carries on; a cancelled turn is not a failure.
func (s *Session) dispatch(ctx context.Context, h Handler, text string) {
	turnCtx, cancel := context.WithCancel(ctx)
	s.turns.set(cancel)
	defer s.turns.clear()

	start := time.Now()
	err := callHandler(turnCtx, h, text)
	switch {
	case err == nil:
		logging.Printf("HANDLER_DONE | duration=%s", time.Since(start))
	case errors.Is(err, context.Canceled) && turnCtx.Err() != nil:
		logging.Printf("HANDLER_CANCELLED | duration=%s", time.Since(start))
	default:
		logging.Printf("HANDLER_ERROR | error=%v", err)
		s.AddError("Handler error: " + err.Error())
	}
}

// callHandler runs h, turning a panic into an error.
func callHandler(ctx context.Context, h Handler, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, text)
}

// =============================================================================
// RUN
// =============================================================================

// Run prints the welcome banner and runs the session until the user exits,
// a handler calls Exit or ctx ends. Output written before Run or after it
// returns goes straight to the terminal.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	h := s.handler
	switch {
	case h == nil:
		s.mu.Unlock()
		return ErrNoHandler
	case s.ran:
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.ran = true
	s.mu.Unlock()

	s.printWelcome()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(s),
		tea.WithContext(runCtx),
		tea.WithInput(s.in),
		tea.WithOutput(s.out),
	)
	err := s.run(runCtx, cancel, p, func() error {
		_, err := p.Run()
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		return nil
	default:
		return fmt.Errorf("session: %w", err)
	}
}

// run wires the goroutines around a program and returns the program's
// error. runProgram blocks until the program exits. Run waits for the
// handler in flight to return.
func (s *Session) run(ctx context.Context, cancel context.CancelFunc, h host, runProgram func() error) error {
	s.mu.Lock()
	s.host = h
	handler := s.handler
	s.mu.Unlock()
	s.console.attach(h)

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.console.run(stop)
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.inval.run(ctx, h)
	}()
	go func() {
		defer wg.Done()
		s.inputLoop(ctx, handler)
	}()

	logging.Printf("SESSION_START")
	err := runProgram()

	close(s.runDone)
	cancel()
	close(stop)
	<-writerDone
	s.console.detach()
	s.detach()
	s.turns.cancel()
	wg.Wait()

	logging.Printf("SESSION_END | error=%v", err)
	return err
}

// detach stops routing focus and quit requests to the program.
func (s *Session) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.host = nil
}
