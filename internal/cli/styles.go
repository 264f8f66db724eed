// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func init() {
	// Respects NO_COLOR, FORCE_COLOR and TTY detection.
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // Cyan
			MarginBottom(1)

	// SectionStyle is used for section headers within commands
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")). // White
			MarginTop(1)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(28)

	// ValueStyle is used for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")). // Green
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray

	// PathStyle highlights file system paths
	PathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")) // Purple
)

// =============================================================================
// STYLE HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule, 50 wide unless given.
func RenderSeparator(width ...int) string {
	w := 50
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("=", w))
}

// RenderLabel renders a label with a trailing colon.
func RenderLabel(label string) string {
	if !strings.HasSuffix(label, ":") {
		label += ":"
	}
	return LabelStyle.Render(label)
}

// RenderOK renders an "[OK] message" line.
func RenderOK(message string) string {
	return SuccessStyle.Render("[OK]") + " " + message
}
