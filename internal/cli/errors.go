// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for the CLI commands.
//
// Commands always return errors and never print-and-return-nil.
// Execute displays the error once and picks the exit code from its type.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/thinkprompt/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitTerminalError indicates a missing or unusable terminal
	ExitTerminalError = 4
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "config")
	Action  string // Action being performed (e.g., "set")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationErrorWithExample creates a validation error with a usage example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON in jsonMode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		displayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

func displayErrorJSON(w io.Writer, err error) {
	output := map[string]interface{}{
		"error":   err.Error(),
		"success": false,
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		output["error_type"] = "validation_error"
		output["field"] = valErr.Field
		output["value"] = valErr.Value
		output["reason"] = valErr.Reason
	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
		output["reason"] = cmdErr.Reason
	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

// GetExitCode maps an error to its exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var ttyErr *TTYRequiredError
	if errors.As(err, &ttyErr) {
		return ExitTerminalError
	}

	var configErrs config.ValidateErrors
	var configErr config.ValidationError
	if errors.As(err, &configErrs) || errors.As(err, &configErr) {
		return ExitConfigError
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Command == "config" {
		return ExitConfigError
	}

	return ExitGeneralError
}
