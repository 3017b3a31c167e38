package csv

import (
	"fmt"

	"github.com/shapestone/shape-csvchunk/internal/parser"
)

// ErrInvalidConfig is matched by every configuration error through
// errors.Is.
var ErrInvalidConfig = parser.ErrInvalidConfig

// ConfigError reports an option that cannot be used.
type ConfigError = parser.ConfigError

// InternalError is the panic value raised when the parser reaches an
// undefined state. It indicates a bug in this package.
type InternalError = parser.InternalError

// Warning describes a recoverable quoting problem and the line it belongs to.
type Warning = parser.Warning

// WarningKind classifies a Warning.
type WarningKind = parser.WarningKind

// Warning kinds.
const (
	DelimiterNotEscaped    = parser.DelimiterNotEscaped
	DelimiterNotTerminated = parser.DelimiterNotTerminated
)

// ContextDelimitedField is the Context of warnings raised inside a quoted
// field.
const ContextDelimitedField = parser.ContextDelimitedField

// WarningsError is returned by Validate when the input parsed with warnings.
type WarningsError struct {
	Warnings []Warning
}

func (e *WarningsError) Error() string {
	switch len(e.Warnings) {
	case 0:
		return "csv: no warnings"
	case 1:
		return "csv: " + e.Warnings[0].String()
	default:
		return fmt.Sprintf("csv: %s (and %d more warnings)", e.Warnings[0].String(), len(e.Warnings)-1)
	}
}
