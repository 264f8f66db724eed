// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/thinkprompt/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete thinkprompt configuration.
type Config struct {
	// Application identity and welcome banner
	App AppConfig `toml:"app"`

	// Key chords for the session's own bindings
	Keys KeysConfig `toml:"keys"`

	// Thinking panel behaviour
	Thinking ThinkingConfig `toml:"thinking"`

	// Prompt and fullscreen behaviour
	Session SessionConfig `toml:"session"`

	// File logging
	Log LogConfig `toml:"log"`
}

// AppConfig describes the application hosting the session.
type AppConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`

	// WelcomeMessage replaces the generated welcome box when set.
	WelcomeMessage string `toml:"welcome_message"`

	// Prompt is the string shown before the input line.
	Prompt string `toml:"prompt"`
}

// KeysConfig holds key chords in bubbletea notation ("ctrl+t").
// The "c-t" form is accepted and normalized on load.
type KeysConfig struct {
	Expand     string `toml:"expand"`
	Fullscreen string `toml:"fullscreen"`
}

// ThinkingConfig controls the live thinking panel.
type ThinkingConfig struct {
	// MaxHeight caps the collapsed panel, hint line included. Must be >= 2.
	MaxHeight int `toml:"max_height"`

	// Echo prints finished thinking content to the console by default.
	Echo bool `toml:"echo"`

	// Text is the separator label. Empty disables the label.
	Text string `toml:"text"`

	// Animation frames for the separator spinner. Empty disables the spinner.
	Animation []string `toml:"animation"`

	// AnimationPosition is "before" or "after" the label.
	AnimationPosition string `toml:"animation_position"`

	// AnimationIntervalMs is the time between spinner frames.
	AnimationIntervalMs int `toml:"animation_interval_ms"`
}

// SessionConfig controls the prompt and fullscreen modes.
type SessionConfig struct {
	// FullscreenEnabled gates the fullscreen toggle. Off by default.
	FullscreenEnabled bool `toml:"fullscreen_enabled"`

	// EchoInput prints accepted input above the prompt.
	EchoInput bool `toml:"echo_input"`

	StatusBar  bool   `toml:"status_bar"`
	StatusText string `toml:"status_text"`

	// RefreshIntervalMs is the redraw tick while a thinking turn is active.
	RefreshIntervalMs int `toml:"refresh_interval_ms"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	// Path of the log file. Empty uses ~/.thinkprompt/logs/thinkprompt.log.
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// AnimationPosition values.
const (
	PositionBefore = "before"
	PositionAfter  = "after"
)

// DefaultAnimation is the braille spinner shown beside the thinking label.
var DefaultAnimation = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:   "thinkprompt",
			Prompt: "> ",
		},
		Keys: KeysConfig{
			Expand:     "ctrl+t",
			Fullscreen: "ctrl+e",
		},
		Thinking: ThinkingConfig{
			MaxHeight:           15,
			Echo:                true,
			Text:                "Thinking",
			Animation:           append([]string(nil), DefaultAnimation...),
			AnimationPosition:   PositionBefore,
			AnimationIntervalMs: 100,
		},
		Session: SessionConfig{
			FullscreenEnabled: false,
			EchoInput:         true,
			StatusBar:         true,
			StatusText:        "Ctrl+C: cancel | Ctrl+D: exit",
			RefreshIntervalMs: 100,
		},
		Log: LogConfig{
			MaxSizeMB:  15,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// WelcomeContent returns the welcome banner: the configured message, or a
// box with the application name and version.
func (c *Config) WelcomeContent() string {
	if c.App.WelcomeMessage != "" {
		return c.App.WelcomeMessage
	}
	return DefaultWelcome(c.App.Name, c.App.Version)
}

// DefaultWelcome draws the generated welcome box.
func DefaultWelcome(name, version string) string {
	title := name
	if version != "" {
		title += " v" + version
	}
	width := util.StringWidth(title) + 4
	if width < 30 {
		width = 30
	}
	border := strings.Repeat("─", width)
	return "┌" + border + "┐\n│" + util.PadCenter(title, width) + "│\n└" + border + "┘"
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the thinkprompt configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".thinkprompt"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.thinkprompt/config.toml, falling back to defaults when the
// file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		return cfg, cfg.finish()
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep the
// values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# thinkprompt configuration file\n")
	buf.WriteString("# Generated by thinkprompt - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Thinking.MaxHeight < 2 {
		errs = append(errs, ValidationError{
			Field:   "thinking.max_height",
			Message: "max_thinking_height must be at least 2",
		})
	}

	switch c.Thinking.AnimationPosition {
	case PositionBefore, PositionAfter:
	default:
		errs = append(errs, ValidationError{
			Field:   "thinking.animation_position",
			Message: fmt.Sprintf("invalid position '%s', must be one of: before, after", c.Thinking.AnimationPosition),
		})
	}

	if c.Thinking.AnimationIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "thinking.animation_interval_ms",
			Message: "must not be negative",
		})
	}
	if c.Session.RefreshIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.refresh_interval_ms",
			Message: "must not be negative",
		})
	}

	if c.Keys.Expand == "" {
		errs = append(errs, ValidationError{Field: "keys.expand", Message: "must not be empty"})
	}
	if c.Keys.Fullscreen == "" {
		errs = append(errs, ValidationError{Field: "keys.fullscreen", Message: "must not be empty"})
	}
	if c.Keys.Expand != "" && c.Keys.Expand == c.Keys.Fullscreen {
		errs = append(errs, ValidationError{
			Field:   "keys.fullscreen",
			Message: fmt.Sprintf("'%s' is already bound to keys.expand", c.Keys.Fullscreen),
		})
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{Field: "log", Message: "rotation limits must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have a sensible default and normalizes
// key chords. It never touches Thinking.Animation or Thinking.Text, where an
// empty value is meaningful.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.App.Name == "" {
		c.App.Name = defaults.App.Name
	}
	if c.App.Prompt == "" {
		c.App.Prompt = defaults.App.Prompt
	}
	if c.Thinking.AnimationPosition == "" {
		c.Thinking.AnimationPosition = defaults.Thinking.AnimationPosition
	}
	c.Thinking.AnimationPosition = strings.ToLower(c.Thinking.AnimationPosition)
	if c.Thinking.AnimationIntervalMs == 0 {
		c.Thinking.AnimationIntervalMs = defaults.Thinking.AnimationIntervalMs
	}
	if c.Session.RefreshIntervalMs == 0 {
		c.Session.RefreshIntervalMs = defaults.Session.RefreshIntervalMs
	}

	if c.Keys.Expand == "" {
		c.Keys.Expand = defaults.Keys.Expand
	}
	if c.Keys.Fullscreen == "" {
		c.Keys.Fullscreen = defaults.Keys.Fullscreen
	}
	c.Keys.Expand = NormalizeKey(c.Keys.Expand)
	c.Keys.Fullscreen = NormalizeKey(c.Keys.Fullscreen)
}

// NormalizeKey converts a short-form chord ("c-t", "s-tab",
// "escape") into bubbletea notation ("ctrl+t", "shift+tab", "esc").
// Chords already in bubbletea notation are returned lower-cased.
func NormalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	switch {
	case strings.HasPrefix(k, "c-"):
		return "ctrl+" + k[2:]
	case strings.HasPrefix(k, "s-"):
		return "shift+" + k[2:]
	case strings.HasPrefix(k, "m-"):
		return "alt+" + k[2:]
	case k == "escape":
		return "esc"
	}
	return k
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - THINKPROMPT_MAX_THINKING_HEIGHT: overrides thinking.max_height
//   - THINKPROMPT_ECHO_THINKING: overrides thinking.echo
//   - THINKPROMPT_FULLSCREEN: overrides session.fullscreen_enabled
//   - THINKPROMPT_LOG_PATH: overrides log.path
//   - THINKPROMPT_APP_NAME: overrides app.name
func (c *Config) ApplyEnvOverrides() {
	if height := os.Getenv("THINKPROMPT_MAX_THINKING_HEIGHT"); height != "" {
		if n, err := strconv.Atoi(height); err == nil {
			c.Thinking.MaxHeight = n
		}
	}
	if echo := os.Getenv("THINKPROMPT_ECHO_THINKING"); echo != "" {
		c.Thinking.Echo = parseBool(echo)
	}
	if fs := os.Getenv("THINKPROMPT_FULLSCREEN"); fs != "" {
		c.Session.FullscreenEnabled = parseBool(fs)
	}
	if path := os.Getenv("THINKPROMPT_LOG_PATH"); path != "" {
		c.Log.Path = path
	}
	if name := os.Getenv("THINKPROMPT_APP_NAME"); name != "" {
		c.App.Name = name
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "thinking.max_height").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "thinking.max_height").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. "max_size_mb" becomes "MaxSizeMb", which matches MaxSizeMB
// case-insensitively.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var frames []string
				if strVal != "" {
					frames = strings.Split(strVal, ",")
				}
				field.Set(reflect.ValueOf(frames))
				return nil
			}
		}
	}

	if value == nil {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := section.Tag.Get("toml")
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Thinking.Animation = append([]string(nil), c.Thinking.Animation...)
	return &clone
}
