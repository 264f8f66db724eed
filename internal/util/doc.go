// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the thinkprompt packages.
//
// # Key Functions
//
// Line Utilities:
//   - SplitLines: Split content into lines the way the panels count them
//   - TruncateToLines: Keep the first N lines and append a marker
//   - CountWrappedLines: Count display rows at a given terminal width
//
// Width Utilities:
//   - StringWidth, TruncateWidth, PadCenter: Display-width aware helpers
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Keep at most 4 lines of a transcript
//	shown := util.TruncateToLines(content, 4, "...")
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0644)
package util
