// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/thinkprompt/internal/config"
	"github.com/jeranaias/thinkprompt/internal/logging"
	"github.com/jeranaias/thinkprompt/internal/session"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	fullscreen bool
	noEcho     bool
	jsonOutput bool
}

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// tests can run commands without sharing flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "thinkprompt",
		Short: "Interactive prompt with a live thinking panel",
		Long: `thinkprompt runs an interactive prompt that streams intermediate
"thinking" output above the input line, with dialogs, a settings form and
an optional fullscreen history view.

Keys:
  ctrl-t   expand or collapse the thinking panel (when it overflows)
  ctrl-e   toggle fullscreen history (when enabled)
  ctrl-c   cancel the current turn, or exit when idle
  ctrl-d   exit

Type /help inside the session for the demo commands.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.thinkprompt/config.toml)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	root.Flags().BoolVar(&opts.fullscreen, "fullscreen", false, "allow the fullscreen history view")
	root.Flags().BoolVar(&opts.noEcho, "no-echo", false, "do not print finished thinking content")

	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd(opts))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		jsonMode, _ := root.PersistentFlags().GetBool("json")
		DisplayError(os.Stderr, err, jsonMode)
		os.Exit(GetExitCode(err))
	}
}

// =============================================================================
// CONFIG LOADING
// =============================================================================

// resolvePath returns the config file path the command works on.
func (o *rootOptions) resolvePath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.ConfigPath()
}

// loadConfig loads the config file, or defaults when it does not exist.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path, err := o.resolvePath()
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := config.Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("invalid config: %w", err)
		}
		return cfg, path, nil
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// =============================================================================
// SESSION COMMAND
// =============================================================================

func runSession(cmd *cobra.Command, opts *rootOptions) error {
	if err := RequiresTTY("run a session"); err != nil {
		return err
	}

	cfg, path, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cfg.App.Version == "" {
		cfg.App.Version = Version
	}
	if opts.fullscreen {
		cfg.Session.FullscreenEnabled = true
	}
	if opts.noEcho {
		cfg.Thinking.Echo = false
	}

	if err := logging.Init(cfg.Log); err != nil {
		return NewCommandError("session", "start", "could not open log file", err)
	}
	defer logging.Close()
	logStart(path)

	s, err := session.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d := newDemo(s, cfg, path)
	s.OnInput(d.handle)

	if w, err := config.Watch(ctx, path, d.reload, func(err error) {
		logging.Printf("CONFIG_RELOAD_ERROR | err=%v", err)
	}); err != nil {
		logging.Printf("CONFIG_WATCH_DISABLED | path=%s err=%v", path, err)
	} else {
		defer w.Close()
	}

	return s.Run(ctx)
}

// logStart records the binary version and config path. The session logs its
// own SESSION_START once it runs.
func logStart(path string) {
	logging.Printf("CLI_START | version=%s config=%s", Version, path)
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, map[string]string{
					"version":    Version,
					"git_commit": GitCommit,
					"build_date": BuildDate,
				})
			}
			fmt.Fprintf(out, "thinkprompt %s\n", Version)
			fmt.Fprintf(out, "  %s %s\n", RenderLabel("Commit"), GitCommit)
			fmt.Fprintf(out, "  %s %s\n", RenderLabel("Built"), BuildDate)
			return nil
		},
	}
}
