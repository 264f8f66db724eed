// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for thinkprompt.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Style Tags

Output is recorded as (tag, text) fragments. A tag names a role rather than a
look, so the history log can be re-rendered with any Theme:

	thinking-box              Live thinking panel content
	thinking-box.hint         "+N lines... ctrl-t to expand" hint
	history.user-prefix       Prompt echoed before user input
	history.user-message      Echoed user input
	history.thinking          Finished thinking content
	history.assistant-message Assistant responses
	history.system            System messages
	history.error             "[ERROR] " messages
	history.warning           "[WARN] " messages
	history.success           "[OK] " messages

Unknown or empty tags render unstyled. Several tags separated by spaces are
applied left to right.

# Usage

	theme := styles.NewTheme()
	line := theme.Render(styles.TagError, "[ERROR] boom")
*/
package styles
