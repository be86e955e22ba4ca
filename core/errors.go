package core

import (
	"errors"
	"fmt"
)

// ErrAgentNotFound is observed when a message names a receiver that is not
// present in the registry. The dispatch loop logs it and drops the message;
// it never terminates the loop.
var ErrAgentNotFound = errors.New("agent not found")

// ErrQueueClosed is returned by queue operations after Close.
var ErrQueueClosed = errors.New("queue closed")

// ConfigError reports an invalid workflow step template. It is surfaced to
// the driver at workflow construction time, before the dispatch loop runs.
type ConfigError struct {
	Field   string // step field that failed validation
	Message string // human-readable explanation
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid workflow step: field %q: %s", e.Field, e.Message)
}
