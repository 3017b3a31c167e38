// Package tokenizer splits CSV text into the units the record assembler works
// with, using a single regular expression derived from the configured field
// delimiter, field separators and line separators.
package tokenizer

// Token kinds produced by the tokenizer.
//
// A configured value is always matched as a whole token, so kinds are
// mutually exclusive: the three configured sets never share a value.
const (
	TokenDelimiter     = "Delimiter"     // field delimiter (quote)
	TokenSeparator     = "Separator"     // one of the field separators
	TokenLineSeparator = "LineSeparator" // one of the line separators
	TokenOrdinary      = "Ordinary"      // anything else
)

// Standard line breaks. CRLF comes first so that it is never split into two
// tokens by the alternation.
var standardLineBreaks = []string{"\r\n", "\r", "\n"}

// IsStandardLineBreak reports whether s is CR, LF or CRLF.
func IsStandardLineBreak(s string) bool {
	for _, lb := range standardLineBreaks {
		if s == lb {
			return true
		}
	}
	return false
}
