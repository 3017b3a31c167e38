package parser

import (
	"fmt"
	"math"
	"reflect"
)

// Option keys accepted by ParseOptions.
const (
	KeyFieldDelimiter        = "fieldDelimiter"
	KeyFieldSeparators       = "fieldSeparators"
	KeyLineSeparators        = "lineSeparators"
	KeySmartRegex            = "smartRegex"
	KeySkipEmptyLinesWhen    = "skipEmptyLinesWhen"
	KeySkipLinesWithWarnings = "skipLinesWithWarnings"
)

// ParseOptions builds Options from loosely typed values, such as decoded
// JSON or YAML. Missing keys keep their defaults and unknown keys are
// ignored.
//
// Strings may be given as any fmt.Stringer. The separator lists accept any
// slice or array whose elements are strings or Stringers. smartRegex is
// disabled by any present value other than true, while
// skipLinesWithWarnings is enabled only by true. skipEmptyLinesWhen takes a
// policy number (0, 1 or 2) or name; anything else disables skipping.
//
// The returned Options are not validated: pass them to NewConfig or
// NewParser.
func ParseOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()

	if v, ok := raw[KeyFieldDelimiter]; ok {
		s, ok := stringValue(v)
		if !ok {
			return Options{}, &ConfigError{Option: KeyFieldDelimiter, Message: fmt.Sprintf("must be a string, got %T", v)}
		}
		opts.FieldDelimiter = s
	}
	if v, ok := raw[KeyFieldSeparators]; ok {
		list, err := stringList(KeyFieldSeparators, v)
		if err != nil {
			return Options{}, err
		}
		opts.FieldSeparators = list
	}
	if v, ok := raw[KeyLineSeparators]; ok {
		list, err := stringList(KeyLineSeparators, v)
		if err != nil {
			return Options{}, err
		}
		opts.LineSeparators = list
	}
	if v, ok := raw[KeySmartRegex]; ok {
		b, isBool := v.(bool)
		opts.SmartRegex = isBool && b
	}
	if v, ok := raw[KeySkipEmptyLinesWhen]; ok {
		opts.SkipEmptyLinesWhen = skipPolicyValue(v)
	}
	if v, ok := raw[KeySkipLinesWithWarnings]; ok {
		b, isBool := v.(bool)
		opts.SkipLinesWithWarnings = isBool && b
	}
	return opts, nil
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	default:
		return "", false
	}
}

func stringList(key string, v any) ([]string, error) {
	if list, ok := v.([]string); ok {
		return append([]string(nil), list...), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &ConfigError{Option: key, Message: fmt.Sprintf("must be a list of strings, got %T", v)}
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, ok := stringValue(rv.Index(i).Interface())
		if !ok {
			return nil, &ConfigError{Option: key, Message: fmt.Sprintf("element %d must be a string", i)}
		}
		out = append(out, s)
	}
	return out, nil
}

// skipPolicyValue maps 0, 1 and 2 (and their names) to the three skip
// policies. Any other value means no skipping.
func skipPolicyValue(v any) SkipPolicy {
	var n float64
	switch x := v.(type) {
	case SkipPolicy:
		return x
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case int32:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint64:
		n = float64(x)
	case float64:
		n = x
	case float32:
		n = float64(x)
	default:
		if s, ok := stringValue(v); ok {
			if p, err := ParseSkipPolicy(s); err == nil {
				return p
			}
		}
		return SkipNone
	}
	switch {
	case n != math.Trunc(n):
		return SkipNone
	case n == 0:
		return SkipReallyEmpty
	case n == 1:
		return SkipBlank
	case n == 2:
		return SkipOnlyBlankFields
	default:
		return SkipNone
	}
}
