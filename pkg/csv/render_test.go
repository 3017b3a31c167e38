package csv

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRenderRecords(t *testing.T) {
	crlf := DefaultWriterOptions()
	crlf.LineSeparator = "\r\n"
	quoteAll := DefaultWriterOptions()
	quoteAll.QuoteAll = true
	semicolon := DefaultWriterOptions()
	semicolon.FieldSeparator = ";"
	semicolon.FieldDelimiter = "'"

	tests := []struct {
		name    string
		records [][]string
		opts    WriterOptions
		want    string
	}{
		{"plain", [][]string{{"a", "b"}, {"c", "d"}}, DefaultWriterOptions(), "a,b\nc,d\n"},
		{"separator quoted", [][]string{{"a,b", "c"}}, DefaultWriterOptions(), "\"a,b\",c\n"},
		{"delimiter doubled", [][]string{{`say "hi"`}}, DefaultWriterOptions(), "\"say \"\"hi\"\"\"\n"},
		{"line breaks quoted", [][]string{{"a\nb", "c\rd"}}, DefaultWriterOptions(), "\"a\nb\",\"c\rd\"\n"},
		{"empty fields", [][]string{{"", ""}}, DefaultWriterOptions(), ",\n"},
		{"CRLF", [][]string{{"a"}, {"b"}}, crlf, "a\r\nb\r\n"},
		{"quote all", [][]string{{"a", ""}}, quoteAll, "\"a\",\"\"\n"},
		{"custom dialect", [][]string{{"it's", "a;b", "c,d"}}, semicolon, "'it''s';'a;b';c,d\n"},
		{"no records", nil, DefaultWriterOptions(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderRecords(tt.records, tt.opts)
			if err != nil {
				t.Fatalf("RenderRecords() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("RenderRecords() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_RoundTrip(t *testing.T) {
	records := [][]string{
		{"plain", "with,comma", `with"quote`},
		{"multi\nline", "", " spaced "},
		{`""`, "end"},
	}
	node := RecordsToNode(records)

	out, err := Render(node, DefaultWriterOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	got, warnings, err := ParseRecords(string(out), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip = %q, want %q", got, records)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestWriterOptionsFor_RoundTrip(t *testing.T) {
	multi := DefaultOptions()
	multi.FieldDelimiter = "'"
	multi.FieldSeparators = []string{"||", ";"}
	multi.LineSeparators = []string{"<eol>", "\n"}

	doubled := DefaultOptions()
	doubled.FieldDelimiter = "''"

	prefix := DefaultOptions()
	prefix.FieldDelimiter = "ab"
	prefix.FieldSeparators = []string{"b"}

	tests := []struct {
		name    string
		opts    Options
		records [][]string
		want    string
	}{
		{
			name: "multi-character separators",
			opts: multi,
			records: [][]string{
				{"a", "b;c", "x|y"},
				{"", "it's", "<eol>"},
				{"line\nbreak"},
			},
			want: "a||'b;c'||'x|y'<eol>||'it''s'||'<eol>'<eol>'line\nbreak'<eol>",
		},
		{
			name: "self-overlapping delimiter",
			opts: doubled,
			records: [][]string{
				{"it''s", "'a", "a'b", "x,y"},
				{"''", "ok"},
			},
		},
		{
			name:    "field joins the separator into a delimiter",
			opts:    prefix,
			records: [][]string{{"a", "x"}, {"bab", "y"}},
			want:    "abaabbx\nabbabababby\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfig(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			out, err := RenderRecords(tt.records, WriterOptionsFor(cfg))
			if err != nil {
				t.Fatalf("RenderRecords() error = %v", err)
			}
			if tt.want != "" && string(out) != tt.want {
				t.Errorf("RenderRecords() = %q, want %q", out, tt.want)
			}

			got, warnings, err := ParseRecords(string(out), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.records) {
				t.Errorf("round trip of %q = %q, want %q", out, got, tt.records)
			}
			if len(warnings) != 0 {
				t.Errorf("unexpected warnings: %v", warnings)
			}
		})
	}
}

func TestWriter_Unrepresentable(t *testing.T) {
	opts := DefaultOptions()
	opts.FieldDelimiter = "''"
	cfg, err := NewConfig(opts)
	if err != nil {
		t.Fatal(err)
	}

	// A field ending in a lone ' always merges with the closing ''.
	for _, field := range []string{"x,y'", "'''"} {
		var buf strings.Builder
		w, err := NewWriter(&buf, WriterOptionsFor(cfg))
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Write([]string{"ok"}); err != nil {
			t.Fatalf("Write(ok) error = %v", err)
		}
		if err := w.Write([]string{field, "z"}); !errors.Is(err, ErrUnrepresentable) {
			t.Errorf("Write(%q) error = %v, want ErrUnrepresentable", field, err)
		}
		if err := w.Flush(); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "ok\n" {
			t.Errorf("output = %q, want only the first record", buf.String())
		}
	}
}

func TestWriter_Errors(t *testing.T) {
	noSep := DefaultWriterOptions()
	noSep.FieldSeparator = ""
	if _, err := RenderRecords([][]string{{"a", "b"}}, noSep); !errors.Is(err, ErrNoFieldSeparator) {
		t.Errorf("error = %v, want ErrNoFieldSeparator", err)
	}
	if out, err := RenderRecords([][]string{{"a,b"}}, noSep); err != nil || string(out) != "a,b\n" {
		t.Errorf("single field without separator = %q, %v", out, err)
	}

	bad := []WriterOptions{
		{FieldSeparator: ",", LineSeparator: "\n"},
		{FieldDelimiter: `"`, FieldSeparator: ","},
		{FieldDelimiter: `"`, FieldSeparator: `"`, LineSeparator: "\n"},
		{FieldDelimiter: `"`, FieldSeparator: "\n", LineSeparator: "\n"},
	}
	for i, opts := range bad {
		if _, err := RenderRecords(nil, opts); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: error = %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestRender_Nil(t *testing.T) {
	out, err := Render(nil, DefaultWriterOptions())
	if err != nil || len(out) != 0 {
		t.Errorf("Render(nil) = %q, %v", out, err)
	}
}
