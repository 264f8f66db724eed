// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Style tags understood by Theme.Render.
const (
	TagThinkingBox    = "thinking-box"
	TagThinkingHint   = "thinking-box.hint"
	TagThinkingBorder = "thinking-box.border"

	TagUserPrefix  = "history.user-prefix"
	TagUserMessage = "history.user-message"
	TagThinking    = "history.thinking"
	TagAssistant   = "history.assistant-message"
	TagSystem      = "history.system"
	TagError       = "history.error"
	TagWarning     = "history.warning"
	TagSuccess     = "history.success"

	TagStatusBar = "status-bar"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// PROMPT STYLES
	// ==========================================================================

	Prompt    lipgloss.Style
	Input     lipgloss.Style
	StatusBar lipgloss.Style
	Separator lipgloss.Style

	// ==========================================================================
	// DIALOG STYLES
	// ==========================================================================

	DialogFrame   lipgloss.Style
	DialogTitle   lipgloss.Style
	DialogBody    lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	MenuItem      lipgloss.Style
	MenuSelected  lipgloss.Style

	// ==========================================================================
	// SETTINGS STYLES
	// ==========================================================================

	SettingIndicator     lipgloss.Style
	SettingLabel         lipgloss.Style
	SettingLabelSelected lipgloss.Style
	SettingValue         lipgloss.Style
	SettingValueSelected lipgloss.Style
	SettingTrue          lipgloss.Style
	SettingFalse         lipgloss.Style
	SettingDesc          lipgloss.Style

	tags map[string]lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Prompt = lipgloss.NewStyle().Foreground(Cyan)
	t.Input = lipgloss.NewStyle().Foreground(TextPrimary)
	t.StatusBar = lipgloss.NewStyle().Foreground(TextMuted).Background(SurfaceStatus)
	t.Separator = lipgloss.NewStyle().Foreground(Border)

	t.DialogFrame = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
	t.DialogTitle = lipgloss.NewStyle().Bold(true).Foreground(TextBright)
	t.DialogBody = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Button = lipgloss.NewStyle().Foreground(TextPrimary).Padding(0, 1)
	t.ButtonFocused = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextBright).
		Background(Blue).
		Padding(0, 1)
	t.MenuItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.MenuSelected = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.SettingIndicator = lipgloss.NewStyle().Foreground(Cyan)
	t.SettingLabel = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SettingLabelSelected = lipgloss.NewStyle().Foreground(Cyan)
	t.SettingValue = lipgloss.NewStyle().Foreground(TextMuted)
	t.SettingValueSelected = lipgloss.NewStyle().Foreground(Cyan).Italic(true)
	t.SettingTrue = lipgloss.NewStyle().Foreground(Emerald)
	t.SettingFalse = lipgloss.NewStyle().Foreground(TextMuted)
	t.SettingDesc = lipgloss.NewStyle().Foreground(TextMuted).Faint(true)

	t.tags = map[string]lipgloss.Style{
		TagThinkingBox:    lipgloss.NewStyle().Foreground(TextDim).Italic(true),
		TagThinkingHint:   lipgloss.NewStyle().Foreground(TextMuted).Italic(true),
		TagThinkingBorder: t.Separator,
		TagUserPrefix:     lipgloss.NewStyle().Foreground(Cyan).Background(SurfaceInput),
		TagUserMessage:    lipgloss.NewStyle().Foreground(TextBright).Background(SurfaceInput).Italic(true),
		TagThinking:       lipgloss.NewStyle().Foreground(TextDim).Italic(true),
		TagAssistant:      lipgloss.NewStyle().Foreground(TextBright),
		TagSystem:         lipgloss.NewStyle().Foreground(Amber),
		TagError:          lipgloss.NewStyle().Foreground(Rose).Bold(true),
		TagWarning:        lipgloss.NewStyle().Foreground(Amber),
		TagSuccess:        lipgloss.NewStyle().Foreground(Emerald),
		TagStatusBar:      t.StatusBar,
	}
}

// Style returns the style for a tag. Space-separated tags are combined, later
// tags overriding earlier ones. Unknown tags contribute nothing.
func (t *Theme) Style(tag string) lipgloss.Style {
	style := lipgloss.NewStyle()
	for _, name := range strings.Fields(tag) {
		if s, ok := t.tags[name]; ok {
			style = s.Inherit(style)
		}
	}
	return style
}

// SetStyle overrides the style for a tag.
func (t *Theme) SetStyle(tag string, style lipgloss.Style) {
	t.tags[tag] = style
}

// Render styles text line by line so multi-line fragments keep their own
// widths and newlines stay outside the escape sequences.
func (t *Theme) Render(tag, text string) string {
	if tag == "" || text == "" {
		return text
	}
	style := t.Style(tag)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
