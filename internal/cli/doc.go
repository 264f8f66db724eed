// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the thinkprompt command line.
//
// Running thinkprompt with no subcommand starts an interactive session:
// plain input gets a simulated thinking turn and a reply, and slash
// commands exercise the dialogs, the settings form and fullscreen mode.
// The config subcommands read and edit ~/.thinkprompt/config.toml.
//
// Commands return errors; Execute prints them once and exits with a code
// chosen by GetExitCode.
package cli
