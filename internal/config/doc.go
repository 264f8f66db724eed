// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for thinkprompt.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation. A running session can follow edits to the file
// through Watch.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - AppConfig: Application name, version, welcome text and prompt
//   - ThinkingConfig: Thinking panel height, echo and animation
//   - SessionConfig: Fullscreen gate, input echo and status bar
//   - LogConfig: Rotating log file settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (THINKPROMPT_*)
//   - ~/.thinkprompt/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	height := cfg.Thinking.MaxHeight
package config
