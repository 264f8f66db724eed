// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// LINE HELPERS
// =============================================================================

// SplitLines splits content on "\n". A trailing newline counts as one more
// (empty) line, so "a\nb\n" is three lines. The panels size and truncate
// streamed content by this count.
func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// TruncateToLines keeps the first maxLines lines of content. When content has
// more lines than that, the kept lines are joined with "\n" and followed by
// "\n" and suffix. Otherwise the content is returned right-trimmed.
func TruncateToLines(content string, maxLines int, suffix string) string {
	lines := SplitLines(content)
	if maxLines < 0 {
		maxLines = 0
	}
	if len(lines) > maxLines {
		return strings.Join(lines[:maxLines], "\n") + "\n" + suffix
	}
	return strings.TrimRightFunc(content, unicode.IsSpace)
}

// CountWrappedLines returns how many terminal rows content occupies at the
// given width. Every "\n"-separated line is at least one row and long lines
// wrap by display width, not by byte or rune count, so a wide rune such as
// a CJK character takes two columns. Empty content occupies no rows.
func CountWrappedLines(content string, width int) int {
	if content == "" {
		return 0
	}
	if width <= 0 {
		width = 1
	}
	rows := 0
	for _, line := range strings.Split(content, "\n") {
		w := runewidth.StringWidth(line)
		if w == 0 {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}

// =============================================================================
// WIDTH HELPERS
// =============================================================================

// StringWidth returns the display width of s. Wide runes count as two columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateWidth shortens s to maxWidth columns, ending with "..." when there
// is room for it.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadCenter centers s in a field of width columns using spaces. Extra space
// goes to the right.
func PadCenter(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// TruncateRunes truncates s to maxRunes characters, ending with "..." when
// there is room for it.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
