package parser

import (
	"fmt"
	"strings"
)

// SkipPolicy selects which closed lines are dropped instead of becoming
// records.
type SkipPolicy int

const (
	// SkipNone keeps every line.
	SkipNone SkipPolicy = iota
	// SkipReallyEmpty drops lines whose raw text is empty.
	SkipReallyEmpty
	// SkipBlank drops lines whose raw text is only whitespace.
	SkipBlank
	// SkipOnlyBlankFields drops lines whose fields, joined, are only whitespace.
	SkipOnlyBlankFields
)

// String returns the name used in configuration files.
func (p SkipPolicy) String() string {
	switch p {
	case SkipNone:
		return "none"
	case SkipReallyEmpty:
		return "reallyEmpty"
	case SkipBlank:
		return "blank"
	case SkipOnlyBlankFields:
		return "onlyBlankFields"
	default:
		return fmt.Sprintf("SkipPolicy(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p SkipPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SkipPolicy) UnmarshalText(text []byte) error {
	policy, err := ParseSkipPolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// ParseSkipPolicy parses a policy name. Matching ignores case, dashes and
// underscores, so "only-blank-fields" and "OnlyBlankFields" are equivalent.
func ParseSkipPolicy(name string) (SkipPolicy, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
	switch key {
	case "", "none":
		return SkipNone, nil
	case "reallyempty", "lineisreallyempty":
		return SkipReallyEmpty, nil
	case "blank", "lineisblank":
		return SkipBlank, nil
	case "onlyblankfields", "linehasonlyblankfields":
		return SkipOnlyBlankFields, nil
	default:
		return SkipNone, &ConfigError{Option: "skipEmptyLinesWhen", Message: fmt.Sprintf("unknown policy %q", name)}
	}
}

// Options configures a Parser.
//
// The zero value is not usable: start from DefaultOptions.
type Options struct {
	// FieldDelimiter quotes a field. Default: `"`
	FieldDelimiter string
	// FieldSeparators are the alternatives separating fields on a line. Default: [","]
	FieldSeparators []string
	// LineSeparators are the alternatives separating lines. Default: ["\n"]
	LineSeparators []string
	// SmartRegex allows the single-character tokenizing pattern when the
	// configuration permits it. Default: true
	SmartRegex bool
	// SkipEmptyLinesWhen drops lines matching the policy. Default: SkipNone
	SkipEmptyLinesWhen SkipPolicy
	// SkipLinesWithWarnings drops lines that produced at least one warning,
	// together with those warnings. Default: false
	SkipLinesWithWarnings bool
}

// DefaultOptions returns the default parser options.
func DefaultOptions() Options {
	return Options{
		FieldDelimiter:        `"`,
		FieldSeparators:       []string{","},
		LineSeparators:        []string{"\n"},
		SmartRegex:            true,
		SkipEmptyLinesWhen:    SkipNone,
		SkipLinesWithWarnings: false,
	}
}
