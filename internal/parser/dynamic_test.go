package parser

import (
	"errors"
	"reflect"
	"testing"
)

type boxed string

func (b boxed) String() string { return string(b) }

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Options
	}{
		{
			name: "empty map gives defaults",
			raw:  map[string]any{},
			want: DefaultOptions(),
		},
		{
			name: "plain values",
			raw: map[string]any{
				"fieldDelimiter":        "'",
				"fieldSeparators":       []any{";", "\t"},
				"lineSeparators":        []string{"\r\n"},
				"smartRegex":            true,
				"skipEmptyLinesWhen":    1,
				"skipLinesWithWarnings": true,
				"somethingElse":         42,
			},
			want: Options{
				FieldDelimiter:        "'",
				FieldSeparators:       []string{";", "\t"},
				LineSeparators:        []string{"\r\n"},
				SmartRegex:            true,
				SkipEmptyLinesWhen:    SkipBlank,
				SkipLinesWithWarnings: true,
			},
		},
		{
			name: "boxed strings",
			raw: map[string]any{
				"fieldDelimiter":  boxed("|"),
				"fieldSeparators": []boxed{"#"},
				"lineSeparators":  []any{boxed("\n"), "\r"},
			},
			want: withOpts(func(o *Options) {
				o.FieldDelimiter = "|"
				o.FieldSeparators = []string{"#"}
				o.LineSeparators = []string{"\n", "\r"}
			}),
		},
		{
			name: "smartRegex only stays on for true",
			raw:  map[string]any{"smartRegex": "yes"},
			want: withOpts(func(o *Options) { o.SmartRegex = false }),
		},
		{
			name: "skipLinesWithWarnings only turns on for true",
			raw:  map[string]any{"skipLinesWithWarnings": 1},
			want: DefaultOptions(),
		},
		{
			name: "skip policy from decoded JSON number",
			raw:  map[string]any{"skipEmptyLinesWhen": float64(0)},
			want: withOpts(func(o *Options) { o.SkipEmptyLinesWhen = SkipReallyEmpty }),
		},
		{
			name: "skip policy by name",
			raw:  map[string]any{"skipEmptyLinesWhen": "onlyBlankFields"},
			want: withOpts(func(o *Options) { o.SkipEmptyLinesWhen = SkipOnlyBlankFields }),
		},
		{
			name: "unknown skip policy ignored",
			raw:  map[string]any{"skipEmptyLinesWhen": 7},
			want: DefaultOptions(),
		},
		{
			name: "empty separator list kept",
			raw:  map[string]any{"fieldSeparators": []any{}},
			want: withOpts(func(o *Options) { o.FieldSeparators = []string{} }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(tt.raw)
			if err != nil {
				t.Fatalf("ParseOptions() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseOptions_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		option string
	}{
		{"delimiter not a string", map[string]any{"fieldDelimiter": 1}, KeyFieldDelimiter},
		{"delimiter nil", map[string]any{"fieldDelimiter": nil}, KeyFieldDelimiter},
		{"separators not a list", map[string]any{"fieldSeparators": ","}, KeyFieldSeparators},
		{"separator element not a string", map[string]any{"fieldSeparators": []any{",", 3}}, KeyFieldSeparators},
		{"line separators not a list", map[string]any{"lineSeparators": map[string]string{}}, KeyLineSeparators},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(tt.raw)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ParseOptions() error = %v, want *ConfigError", err)
			}
			if cfgErr.Option != tt.option {
				t.Errorf("Option = %q, want %q", cfgErr.Option, tt.option)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("error does not match ErrInvalidConfig")
			}
		})
	}
}

func TestParseOptions_ValidatedLater(t *testing.T) {
	opts, err := ParseOptions(map[string]any{"fieldDelimiter": ""})
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if _, err := NewConfig(opts); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewConfig() error = %v, want ErrInvalidConfig", err)
	}
}
