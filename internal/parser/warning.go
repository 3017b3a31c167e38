package parser

import (
	"fmt"
	"unicode/utf8"
)

// WarningKind classifies a recoverable syntax problem.
type WarningKind string

const (
	// DelimiterNotEscaped: a closing delimiter was followed by something other
	// than a delimiter, a field separator or a line separator.
	DelimiterNotEscaped WarningKind = "DelimiterNotEscaped"
	// DelimiterNotTerminated: input ended inside a quoted field.
	DelimiterNotTerminated WarningKind = "DelimiterNotTerminated"
)

// ContextDelimitedField is the context of every warning raised inside a
// quoted field.
const ContextDelimitedField = "DelimitedField"

// Warning describes a recoverable problem found while parsing. Line is the
// 1-based number of the record the problem belongs to.
type Warning struct {
	Context string      `json:"context"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
	Line    int         `json:"line"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s: %s", w.Line, w.Kind, w.Message)
}

func notEscapedWarning(delimiter, token string, line int) Warning {
	r, _ := utf8.DecodeRuneInString(token)
	return Warning{
		Context: ContextDelimitedField,
		Kind:    DelimiterNotEscaped,
		Message: fmt.Sprintf("Expects field delimiter (%s) but got character %s", delimiter, string(r)),
		Line:    line,
	}
}

func notTerminatedWarning(delimiter string, line int) Warning {
	return Warning{
		Context: ContextDelimitedField,
		Kind:    DelimiterNotTerminated,
		Message: fmt.Sprintf("Expects field delimiter (%s) but no more data to read", delimiter),
		Line:    line,
	}
}
