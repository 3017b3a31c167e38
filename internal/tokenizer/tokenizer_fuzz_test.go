package tokenizer

import (
	"strings"
	"testing"
)

// FuzzScan checks that scanning never loses or reorders input.
func FuzzScan(f *testing.F) {
	seeds := []string{
		"",
		"a,b,c\n",
		"\"quoted\",field\r\n",
		"a;;b<eol>",
		"\xff\xfe",
		"héllo,wörld",
	}
	for _, s := range seeds {
		f.Add(s, true)
		f.Add(s, false)
	}

	sets := []Set{
		defaultSet,
		{Delimiter: "''", Separators: []string{";", ";;"}, LineSeparators: []string{"<eol>", "\r\n"}},
	}

	f.Fuzz(func(t *testing.T, input string, smart bool) {
		for _, set := range sets {
			tk, err := New(set, smart)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			var sb strings.Builder
			tk.Scan(input, func(kind, value string) {
				if value == "" {
					t.Fatalf("empty %s token", kind)
				}
				sb.WriteString(value)
			})
			if sb.String() != input {
				t.Fatalf("Scan() reassembled %q, want %q", sb.String(), input)
			}
			if cut := tk.SafeCut(input); cut < 0 || cut > len(input) {
				t.Fatalf("SafeCut() = %d out of range", cut)
			}
		}
	})
}
