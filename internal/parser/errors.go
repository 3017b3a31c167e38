package parser

import (
	"errors"
)

// ErrInvalidConfig is matched by every *ConfigError through errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports options that cannot form a valid configuration.
type ConfigError struct {
	Option  string
	Message string
}

func (e *ConfigError) Error() string {
	return "csv: invalid " + e.Option + ": " + e.Message
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// InternalError is raised (as a panic) when the automaton reaches a state it
// does not define. It signals a bug, never bad input.
type InternalError struct {
	State string
}

func (e *InternalError) Error() string {
	return "csv: internal error: undefined parser state " + e.State
}
