package tokenizer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Set holds the configured values the pattern is built from.
type Set struct {
	Delimiter      string
	Separators     []string
	LineSeparators []string
}

// literals returns every configured value, delimiter first.
func (s Set) literals() []string {
	all := make([]string, 0, 1+len(s.Separators)+len(s.LineSeparators))
	all = append(all, s.Delimiter)
	all = append(all, s.Separators...)
	all = append(all, s.LineSeparators...)
	return all
}

// Eligible reports whether the single-character pattern can tokenize s: the
// delimiter and every separator are one character long and every line
// separator is a standard line break.
func Eligible(s Set) bool {
	if utf8.RuneCountInString(s.Delimiter) != 1 {
		return false
	}
	for _, sep := range s.Separators {
		if utf8.RuneCountInString(sep) != 1 {
			return false
		}
	}
	for _, ls := range s.LineSeparators {
		if !IsStandardLineBreak(ls) {
			return false
		}
	}
	return true
}

// BuildPattern returns the alternation used to tokenize input for s, and
// whether it is the optimized single-character form. The optimized form is
// only used when smart is set and s is Eligible.
//
// Optimized:
//
//	[^<delim><seps>\n\r]+ | [<delim><seps>] | \r\n|\r|\n
//
// General: every configured value, escaped, longest first, then the
// catch-alls ".", "\n" and "\r". Longest-first keeps a multi-character value
// from being shadowed by a shorter one sharing its prefix; "." does not match
// "\n", hence the explicit line break branches.
func BuildPattern(s Set, smart bool) (pattern string, optimized bool) {
	if smart && Eligible(s) {
		var class strings.Builder
		class.WriteString(QuoteLiteral(s.Delimiter))
		for _, sep := range s.Separators {
			class.WriteString(QuoteLiteral(sep))
		}
		branches := []string{
			"[^" + class.String() + "\n\r]+",
			"[" + class.String() + "]",
			strings.Join(standardLineBreaks, "|"),
		}
		return strings.Join(branches, "|"), true
	}

	values := s.literals()
	sort.SliceStable(values, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(values[i]), utf8.RuneCountInString(values[j])
		if li != lj {
			return li > lj
		}
		return values[i] < values[j]
	})
	branches := make([]string, 0, len(values)+3)
	for _, v := range values {
		branches = append(branches, QuoteLiteral(v))
	}
	branches = append(branches, ".", "\n", "\r")
	return strings.Join(branches, "|"), false
}

// regexMeta is the set of characters escaped by QuoteLiteral. It includes '-'
// so that a value is also safe inside a character class.
const regexMeta = `.*+-?^${}()|[]\`

// QuoteLiteral escapes every regular expression metacharacter in s.
func QuoteLiteral(s string) string {
	if !strings.ContainsAny(s, regexMeta) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if strings.ContainsRune(regexMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
