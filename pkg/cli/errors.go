package cli

import (
	"errors"
	"fmt"
)

// Exit codes the callisto command reports. Rule problems get their own
// code so scripts can tell a bad document from a crashed run.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitBadRules = 2
)

// ConfigError represents an error in configuration or flag values.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// CommandError represents a failed command execution, carrying the
// exit code the process should return.
type CommandError struct {
	Command string
	Code    int
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError with the general error code.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Code:    ExitError,
		Err:     err,
	}
}

// NewRuleError creates a CommandError for invalid rule documents.
func NewRuleError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Code:    ExitBadRules,
		Err:     err,
	}
}

// ExitCode resolves the process exit code for err: 0 for nil, the
// carried code for a CommandError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}
	return ExitError
}
