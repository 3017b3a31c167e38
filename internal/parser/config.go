package parser

import (
	"fmt"
	"slices"

	"github.com/shapestone/shape-csvchunk/internal/tokenizer"
)

// Config is the validated, immutable form of Options plus the derived
// tokenizing pattern.
type Config struct {
	FieldDelimiter        string     `json:"fieldDelimiter"`
	FieldSeparators       []string   `json:"fieldSeparators"`
	LineSeparators        []string   `json:"lineSeparators"`
	SmartRegex            bool       `json:"smartRegex"`
	RegexOptimized        bool       `json:"regexOptimized"`
	Pattern               string     `json:"regexPattern"`
	SkipEmptyLinesWhen    SkipPolicy `json:"skipEmptyLinesWhen"`
	SkipLinesWithWarnings bool       `json:"skipLinesWithWarnings"`
}

// NewConfig validates opts and derives the tokenizing pattern.
func NewConfig(opts Options) (Config, error) {
	if err := validate(opts); err != nil {
		return Config{}, err
	}

	set := tokenizer.Set{
		Delimiter:      opts.FieldDelimiter,
		Separators:     opts.FieldSeparators,
		LineSeparators: opts.LineSeparators,
	}
	pattern, optimized := tokenizer.BuildPattern(set, opts.SmartRegex)

	return Config{
		FieldDelimiter:        opts.FieldDelimiter,
		FieldSeparators:       slices.Clone(opts.FieldSeparators),
		LineSeparators:        slices.Clone(opts.LineSeparators),
		SmartRegex:            opts.SmartRegex,
		RegexOptimized:        optimized,
		Pattern:               pattern,
		SkipEmptyLinesWhen:    opts.SkipEmptyLinesWhen,
		SkipLinesWithWarnings: opts.SkipLinesWithWarnings,
	}, nil
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	c.FieldSeparators = slices.Clone(c.FieldSeparators)
	c.LineSeparators = slices.Clone(c.LineSeparators)
	return c
}

// Options converts c back to the options it was built from.
func (c Config) Options() Options {
	return Options{
		FieldDelimiter:        c.FieldDelimiter,
		FieldSeparators:       slices.Clone(c.FieldSeparators),
		LineSeparators:        slices.Clone(c.LineSeparators),
		SmartRegex:            c.SmartRegex,
		SkipEmptyLinesWhen:    c.SkipEmptyLinesWhen,
		SkipLinesWithWarnings: c.SkipLinesWithWarnings,
	}
}

func (c Config) tokenSet() tokenizer.Set {
	return tokenizer.Set{
		Delimiter:      c.FieldDelimiter,
		Separators:     c.FieldSeparators,
		LineSeparators: c.LineSeparators,
	}
}

// validate enforces non-empty values, no duplicates within the separator
// lists and no value shared between the three sets.
func validate(opts Options) error {
	if opts.FieldDelimiter == "" {
		return &ConfigError{Option: "fieldDelimiter", Message: "must be a non-empty string"}
	}

	lists := []struct {
		name   string
		values []string
	}{
		{"fieldSeparators", opts.FieldSeparators},
		{"lineSeparators", opts.LineSeparators},
	}
	for _, list := range lists {
		seen := make(map[string]struct{}, len(list.values))
		for _, v := range list.values {
			if v == "" {
				return &ConfigError{Option: list.name, Message: "must contain only non-empty strings"}
			}
			if _, dup := seen[v]; dup {
				return &ConfigError{Option: list.name, Message: fmt.Sprintf("contains duplicate value %q", v)}
			}
			seen[v] = struct{}{}
		}
	}

	if slices.Contains(opts.FieldSeparators, opts.FieldDelimiter) {
		return overlapError(opts.FieldDelimiter, "fieldDelimiter", "fieldSeparators")
	}
	if slices.Contains(opts.LineSeparators, opts.FieldDelimiter) {
		return overlapError(opts.FieldDelimiter, "fieldDelimiter", "lineSeparators")
	}
	for _, sep := range opts.FieldSeparators {
		if slices.Contains(opts.LineSeparators, sep) {
			return overlapError(sep, "fieldSeparators", "lineSeparators")
		}
	}
	return nil
}

func overlapError(value, a, b string) error {
	return &ConfigError{
		Option:  a,
		Message: fmt.Sprintf("value %q is also used by %s", value, b),
	}
}
