package csv

import (
	"fmt"
	"slices"

	"github.com/shapestone/shape-csvchunk/internal/parser"
)

// Options configures parsing. Start from DefaultOptions; the zero value has
// no field delimiter and is rejected.
type Options = parser.Options

// Config is the validated form of Options, including the derived
// tokenizing pattern.
type Config = parser.Config

// SkipPolicy selects which empty-looking lines are dropped.
type SkipPolicy = parser.SkipPolicy

// Skip policies.
const (
	SkipNone            = parser.SkipNone
	SkipReallyEmpty     = parser.SkipReallyEmpty
	SkipBlank           = parser.SkipBlank
	SkipOnlyBlankFields = parser.SkipOnlyBlankFields
)

// DefaultOptions returns the default parser configuration: delimiter `"`,
// separator ",", line separator "\n", smart pattern on, nothing skipped.
func DefaultOptions() Options {
	return parser.DefaultOptions()
}

// NewConfig validates opts.
func NewConfig(opts Options) (Config, error) {
	return parser.NewConfig(opts)
}

// ParseOptions builds Options from a loosely typed map such as decoded JSON,
// YAML or query parameters. See parser.ParseOptions for the accepted shapes.
//
// Example:
//
//	opts, err := csv.ParseOptions(map[string]any{
//	    "fieldSeparators":    []any{";"},
//	    "skipEmptyLinesWhen": "blank",
//	})
func ParseOptions(raw map[string]any) (Options, error) {
	return parser.ParseOptions(raw)
}

// ParseSkipPolicy parses a skip policy name such as "blank".
func ParseSkipPolicy(name string) (SkipPolicy, error) {
	return parser.ParseSkipPolicy(name)
}

// WriterOptions configures rendering.
type WriterOptions struct {
	// FieldDelimiter quotes fields that need it. Default: `"`
	FieldDelimiter string
	// FieldSeparator is written between fields. Default: ","
	FieldSeparator string
	// LineSeparator is written after every record. Default: "\n"
	LineSeparator string
	// QuoteAll quotes every field, not only those that need it.
	QuoteAll bool

	// separators and lineSeparators are the other values the reader
	// recognizes. Set by WriterOptionsFor.
	separators     []string
	lineSeparators []string
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		FieldDelimiter: `"`,
		FieldSeparator: ",",
		LineSeparator:  "\n",
	}
}

// WriterOptionsFor returns writer options whose output parses back to the
// same records under cfg. The first configured separators are used for
// writing; every other configured separator still forces quoting. A field
// that has no such encoding makes the Writer fail with ErrUnrepresentable.
func WriterOptionsFor(cfg Config) WriterOptions {
	w := WriterOptions{FieldDelimiter: cfg.FieldDelimiter, LineSeparator: "\n"}
	if len(cfg.FieldSeparators) > 0 {
		w.FieldSeparator = cfg.FieldSeparators[0]
	}
	if len(cfg.LineSeparators) > 0 {
		w.LineSeparator = cfg.LineSeparators[0]
	}
	w.separators = slices.Clone(cfg.FieldSeparators)
	w.lineSeparators = slices.Clone(cfg.LineSeparators)
	return w
}

func (o WriterOptions) validate() error {
	if o.FieldDelimiter == "" {
		return &ConfigError{Option: "FieldDelimiter", Message: "must be a non-empty string"}
	}
	if o.LineSeparator == "" {
		return &ConfigError{Option: "LineSeparator", Message: "must be a non-empty string"}
	}
	if o.FieldSeparator == o.FieldDelimiter || o.LineSeparator == o.FieldDelimiter {
		return &ConfigError{Option: "FieldDelimiter", Message: fmt.Sprintf("%q is also a separator", o.FieldDelimiter)}
	}
	if o.FieldSeparator != "" && o.FieldSeparator == o.LineSeparator {
		return &ConfigError{Option: "FieldSeparator", Message: fmt.Sprintf("%q is also the line separator", o.FieldSeparator)}
	}
	return nil
}
