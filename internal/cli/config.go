// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a configuration value
//   init                Write a config file with the defaults
//   path                Show configuration file path
//
// Examples:
//   thinkprompt config show --json
//   thinkprompt config set thinking.max_height 20
//   thinkprompt config set keys.expand c-o
//   thinkprompt config set thinking.animation "-,\,|,/"
//   thinkprompt config set session.fullscreen_enabled true

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jeranaias/thinkprompt/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleConfigShow(cmd.OutOrStdout(), opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleConfigShow(cmd.OutOrStdout(), opts)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleConfigGet(cmd.OutOrStdout(), opts, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleConfigSet(cmd.OutOrStdout(), opts, args[0], args[1])
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleConfigInit(cmd.OutOrStdout(), opts, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleConfigPath(cmd.OutOrStdout(), opts)
		},
	})

	return cmd
}

// =============================================================================
// CONFIG SHOW
// =============================================================================

func handleConfigShow(out io.Writer, opts *rootOptions) error {
	cfg, path, err := opts.loadConfig()
	if err != nil {
		return NewCommandError("config", "show", "could not load configuration", err)
	}

	if opts.jsonOutput {
		values := make(map[string]interface{})
		for _, key := range config.Keys() {
			v, _ := cfg.Get(key)
			values[key] = v
		}
		return writeJSON(out, map[string]interface{}{
			"path":   path,
			"config": values,
		})
	}

	fmt.Fprintln(out, TitleStyle.Render("thinkprompt Configuration"))
	fmt.Fprintf(out, "%s %s\n", RenderLabel("File"), PathStyle.Render(path))
	fmt.Fprintln(out, RenderSeparator())
	fmt.Fprintln(out, configTable(cfg))
	return nil
}

// configTable renders every key grouped by section.
func configTable(cfg *config.Config) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SeparatorStyle).
		Headers("SECTION", "KEY", "VALUE").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Inherit(SectionStyle)
			case col == 2:
				return style.Inherit(ValueStyle)
			default:
				return style.Inherit(DimStyle)
			}
		})

	last := ""
	for _, key := range config.Keys() {
		section, name, _ := strings.Cut(key, ".")
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		label := section
		if section == last {
			label = ""
		}
		last = section
		t.Row(label, name, formatValue(v))
	}
	return t.String()
}

// formatValue renders a config value the way `config set` accepts it.
func formatValue(v interface{}) string {
	switch v := v.(type) {
	case []string:
		return strings.Join(v, ",")
	case string:
		if v == "" {
			return "(empty)"
		}
		return strings.ReplaceAll(v, "\n", `\n`)
	default:
		return fmt.Sprint(v)
	}
}

// =============================================================================
// CONFIG GET / SET
// =============================================================================

func handleConfigGet(out io.Writer, opts *rootOptions, key string) error {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return NewCommandError("config", "get", "could not load configuration", err)
	}
	v, err := cfg.Get(key)
	if err != nil {
		return unknownKeyError(key, err)
	}
	if opts.jsonOutput {
		return writeJSON(out, map[string]interface{}{"key": key, "value": v})
	}
	fmt.Fprintln(out, formatValue(v))
	return nil
}

func handleConfigSet(out io.Writer, opts *rootOptions, key, value string) error {
	cfg, path, err := opts.loadConfig()
	if err != nil {
		return NewCommandError("config", "set", "could not load configuration", err)
	}

	if err := cfg.Set(key, value); err != nil {
		return unknownKeyError(key, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return NewValidationErrorWithExample(key, value, err.Error(),
			"thinkprompt config set thinking.max_height 15")
	}

	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "set", "could not save configuration", err)
	}

	stored, _ := cfg.Get(key)
	if opts.jsonOutput {
		return writeJSON(out, map[string]interface{}{"key": key, "value": stored, "success": true})
	}
	fmt.Fprintln(out, RenderOK(fmt.Sprintf("%s = %s", key, formatValue(stored))))
	return nil
}

func unknownKeyError(key string, err error) error {
	return &ValidationError{
		Field:   "key",
		Value:   key,
		Reason:  err.Error(),
		Example: "thinkprompt config set thinking.echo false (keys: " + strings.Join(config.Keys(), ", ") + ")",
	}
}

// =============================================================================
// CONFIG INIT / PATH
// =============================================================================

func handleConfigInit(out io.Writer, opts *rootOptions, force bool) error {
	path, err := opts.resolvePath()
	if err != nil {
		return NewCommandError("config", "init", "could not determine config path", err)
	}
	if _, statErr := os.Stat(path); statErr == nil && !force {
		return NewCommandError("config", "init", "file already exists (use --force to overwrite)", errors.New(path))
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "could not write configuration", err)
	}

	if opts.jsonOutput {
		return writeJSON(out, map[string]interface{}{"path": path, "success": true})
	}
	fmt.Fprintln(out, RenderOK("Wrote default configuration to "+PathStyle.Render(path)))
	return nil
}

func handleConfigPath(out io.Writer, opts *rootOptions) error {
	path, err := opts.resolvePath()
	if err != nil {
		return NewCommandError("config", "path", "could not determine config path", err)
	}
	if opts.jsonOutput {
		_, statErr := os.Stat(path)
		return writeJSON(out, map[string]interface{}{"path": path, "exists": statErr == nil})
	}
	fmt.Fprintln(out, path)
	return nil
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
