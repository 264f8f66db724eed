// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/thinkprompt/internal/config"
	"github.com/jeranaias/thinkprompt/internal/logging"
	"github.com/jeranaias/thinkprompt/internal/session"
	"github.com/jeranaias/thinkprompt/internal/ui/settings"
	"github.com/jeranaias/thinkprompt/internal/ui/thinking"
)

// defaultStepDelay paces the simulated thinking stream.
const defaultStepDelay = 150 * time.Millisecond

// restartKeys only take effect when a new session starts.
var restartKeys = map[string]bool{
	"thinking.max_height":         true,
	"thinking.animation_position": true,
}

const demoHelp = `Commands:
  /help                 show this help
  /settings             edit settings (saved to the config file)
  /confirm [question]   ask a yes/no question
  /choose               pick a color with buttons
  /pick                 pick a language from a list
  /info [text]          show a message dialog
  /code                 print a highlighted snippet
  /fullscreen           switch to the fullscreen history (when enabled)
  /status <text>        replace the status bar text
  /clear                clear the screen and history
  /exit                 leave the session

Anything else is answered after a simulated thinking turn.`

// demo answers input for the interactive session command.
type demo struct {
	s    *session.Session
	path string
	step time.Duration

	mu  sync.Mutex
	cfg *config.Config
}

func newDemo(s *session.Session, cfg *config.Config, path string) *demo {
	return &demo{s: s, path: path, step: defaultStepDelay, cfg: cfg}
}

func (d *demo) config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *demo) setConfig(cfg *config.Config) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
}

// handle is the session input handler.
func (d *demo) handle(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		return d.command(ctx, text)
	}
	return d.answer(ctx, text)
}

// =============================================================================
// THINKING TURN
// =============================================================================

// answer streams a thinking turn for text, then prints a reply.
func (d *demo) answer(ctx context.Context, text string) error {
	_, err := d.s.Thinking(func(content *thinking.StreamingContent) error {
		for _, line := range thoughtsFor(text) {
			content.Append(line + "\n")
			if err := pause(ctx, d.step); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.s.AddMarkdown(answerFor(text))
	return nil
}

// thoughtsFor produces the simulated reasoning for text, one line per step.
func thoughtsFor(text string) []string {
	words := strings.Fields(text)
	lines := []string{
		fmt.Sprintf("Reading the input: %q", text),
		fmt.Sprintf("It has %d words and %d characters.", len(words), len([]rune(text))),
	}
	for i, w := range words {
		lines = append(lines, fmt.Sprintf("Looking at word %d of %d: %q", i+1, len(words), w))
	}
	lines = append(lines,
		"Putting the observations together.",
		"Drafting a reply.",
	)
	return lines
}

func answerFor(text string) string {
	words := strings.Fields(text)
	longest := ""
	for _, w := range words {
		if len([]rune(w)) > len([]rune(longest)) {
			longest = w
		}
	}
	return fmt.Sprintf("**You said:** %s\n\n- words: %d\n- longest word: `%s`\n", text, len(words), longest)
}

// pause waits for delay or until ctx is done.
func pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func (d *demo) command(ctx context.Context, line string) error {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/help":
		d.s.AddSystem(demoHelp)

	case "/clear":
		d.s.Clear()

	case "/exit", "/quit":
		d.s.Exit()

	case "/settings":
		return d.editSettings(ctx)

	case "/confirm":
		question := arg
		if question == "" {
			question = "Do you want to continue?"
		}
		yes, err := d.s.YesNoDialog(ctx, "Confirm", question)
		if err != nil {
			return err
		}
		if yes {
			d.s.AddSuccess("You said yes.")
		} else {
			d.s.AddWarning("You said no.")
		}

	case "/choose":
		choice, ok, err := d.s.ChoiceDialog(ctx, "Choose", "Pick a color", []string{"Red", "Green", "Blue"})
		if err != nil {
			return err
		}
		d.reportChoice(choice, ok)

	case "/pick":
		choice, ok, err := d.s.DropdownDialog(ctx, "Pick", "Pick a language",
			[]string{"Go", "Rust", "Zig", "C"}, "Go")
		if err != nil {
			return err
		}
		d.reportChoice(choice, ok)

	case "/info":
		text := arg
		if text == "" {
			text = "Dialogs block the handler until they are dismissed.\nPress Enter or Escape to close."
		}
		return d.s.MessageDialog(ctx, "Info", text)

	case "/code":
		d.s.AddCode(sampleCode, "go")

	case "/fullscreen":
		if !d.s.FullscreenEnabled() {
			d.s.AddWarning("Fullscreen is disabled. Enable it in /settings or with --fullscreen.")
			return nil
		}
		d.s.SwitchToFullscreen()

	case "/status":
		d.s.SetStatusText(arg)

	default:
		d.s.AddWarning(fmt.Sprintf("Unknown command %s. Type /help for the list.", name))
	}
	return nil
}

func (d *demo) reportChoice(choice string, ok bool) {
	if !ok {
		d.s.AddSystem("Cancelled.")
		return
	}
	d.s.AddSuccess("You picked " + choice + ".")
}

const sampleCode = `func greet(name string) string {
	return fmt.Sprintf("hello, %s", name)
}`

// =============================================================================
// SETTINGS
// =============================================================================

// settingsItems builds the settings form from cfg.
func settingsItems(cfg *config.Config) []settings.Item {
	return []settings.Item{
		settings.Checkbox("thinking.echo", "Echo thinking", cfg.Thinking.Echo).
			WithDescription("Print finished thinking above the prompt"),
		settings.Checkbox("session.fullscreen_enabled", "Allow fullscreen", cfg.Session.FullscreenEnabled),
		settings.Dropdown("thinking.max_height", "Panel height",
			heightOptions(cfg.Thinking.MaxHeight), strconv.Itoa(cfg.Thinking.MaxHeight)),
		settings.InlineSelect("thinking.animation_position", "Spinner position",
			[]string{config.PositionBefore, config.PositionAfter}, cfg.Thinking.AnimationPosition),
		settings.Text("app.prompt", "Prompt", cfg.App.Prompt, false),
	}
}

// heightOptions lists the panel heights offered, always including current.
func heightOptions(current int) []string {
	heights := []int{5, 10, 15, 20, 30}
	found := false
	for _, h := range heights {
		if h == current {
			found = true
		}
	}
	if !found {
		heights = append(heights, current)
		sort.Ints(heights)
	}
	opts := make([]string, len(heights))
	for i, h := range heights {
		opts[i] = strconv.Itoa(h)
	}
	return opts
}

func (d *demo) editSettings(ctx context.Context) error {
	changes, err := d.s.ShowSettingsDialog(ctx, "Settings", settingsItems(d.config()), settings.Options{})
	if err != nil {
		return err
	}
	switch {
	case changes == nil:
		d.s.AddSystem("Settings unchanged.")
		return nil
	case len(changes) == 0:
		d.s.AddSystem("No changes.")
		return nil
	}
	return d.applySettings(changes)
}

// applySettings validates and saves changes, then applies the ones the
// running session can take.
func (d *demo) applySettings(changes map[string]any) error {
	next := d.config().Clone()

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := next.Set(k, changes[k]); err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}
	next.SetDefaults()
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := config.SaveTOML(next, d.path); err != nil {
		return err
	}

	d.setConfig(next)
	d.applyRuntime(next)
	logging.Printf("SETTINGS_SAVED | keys=%s path=%s", strings.Join(keys, ","), d.path)

	d.s.AddSuccess(fmt.Sprintf("Saved %d setting(s) to %s", len(keys), d.path))
	var restart []string
	for _, k := range keys {
		if restartKeys[k] {
			restart = append(restart, k)
		}
	}
	if len(restart) > 0 {
		d.s.AddWarning(strings.Join(restart, ", ") + " take effect in the next session.")
	}
	return nil
}

// applyRuntime pushes the settings a live session can change.
func (d *demo) applyRuntime(cfg *config.Config) {
	d.s.SetEchoThinking(cfg.Thinking.Echo)
	d.s.SetFullscreenEnabled(cfg.Session.FullscreenEnabled)
	d.s.SetPrompt(cfg.App.Prompt)
	d.s.SetStatusText(cfg.Session.StatusText)
}

// reload is the config watcher callback.
func (d *demo) reload(cfg *config.Config) {
	d.setConfig(cfg)
	d.applyRuntime(cfg)
	logging.Printf("CONFIG_RELOADED | path=%s", d.path)
}
