package engine

import (
	"errors"
	"fmt"

	"latent-hq/callisto/pkg/lrl/ast"
)

var (
	// ErrNoProgram indicates evaluation was attempted before any rule
	// program was loaded.
	ErrNoProgram = errors.New("no rule program loaded")

	// ErrClosed indicates the engine was closed.
	ErrClosed = errors.New("engine is closed")

	// ErrInvalidConfig indicates the engine configuration is invalid.
	ErrInvalidConfig = errors.New("invalid engine configuration")
)

// ConfigError reports a failure while turning documents into a
// runnable program.
type ConfigError struct {
	// Stage is "validate" or "compile".
	Stage string

	// Cause is the underlying error.
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %s failed: %v", e.Stage, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// MissingStateError reports an operation whose prerequisite the
// invocation did not provide, such as unscale without a skip tensor
// or noise without a sigma schedule.
type MissingStateError struct {
	// Op is the operation that failed.
	Op ast.OpKind

	// Need describes the missing prerequisite.
	Need string
}

func (e *MissingStateError) Error() string {
	return fmt.Sprintf("operation %q requires %s", e.Op, e.Need)
}

// OpError wraps a tensor operation failure with its rule location.
type OpError struct {
	Op       ast.OpKind
	Location ast.Location
	Cause    error
}

func (e *OpError) Error() string {
	if e.Location.IsValid() {
		return fmt.Sprintf("operation %q at %s: %v", e.Op, e.Location, e.Cause)
	}
	return fmt.Sprintf("operation %q: %v", e.Op, e.Cause)
}

func (e *OpError) Unwrap() error {
	return e.Cause
}
