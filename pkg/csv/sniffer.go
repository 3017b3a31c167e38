package csv

import (
	"regexp"
	"strings"
	"unicode"
)

// Dialect is what Sniff infers from a sample.
type Dialect struct {
	FieldSeparator string `json:"fieldSeparator"`
	LineSeparator  string `json:"lineSeparator"`
	HasHeader      bool   `json:"hasHeader"`
}

// Options returns DefaultOptions adjusted to the dialect.
func (d Dialect) Options() Options {
	opts := DefaultOptions()
	opts.FieldSeparators = []string{d.FieldSeparator}
	opts.LineSeparators = []string{d.LineSeparator}
	return opts
}

// sniffSeparators are the field separators Sniff considers, in order of
// preference on ties.
var sniffSeparators = []string{",", "\t", ";", "|"}

// Sniff guesses the line separator, the field separator and whether the
// first record is a header. For best results, provide at least 2-3 lines.
// A trailing incomplete line is ignored when earlier lines exist.
func Sniff(sample string) Dialect {
	d := Dialect{FieldSeparator: ",", LineSeparator: sniffLineSeparator(sample)}

	bestScore := 0
	for _, sep := range sniffSeparators {
		rows := sniffRows(sample, sep, d.LineSeparator)
		if score := separatorScore(rows); score > bestScore {
			d.FieldSeparator, bestScore = sep, score
		}
	}

	d.HasHeader = detectHeader(sniffRows(sample, d.FieldSeparator, d.LineSeparator))
	return d
}

func sniffLineSeparator(sample string) string {
	crlf := strings.Count(sample, "\r\n")
	cr := strings.Count(sample, "\r") - crlf
	lf := strings.Count(sample, "\n") - crlf
	switch {
	case crlf > 0 && crlf >= cr && crlf >= lf:
		return "\r\n"
	case cr > lf:
		return "\r"
	default:
		return "\n"
	}
}

// sniffRows parses sample with a single separator and drops blank lines.
func sniffRows(sample, sep, lineSep string) [][]string {
	opts := DefaultOptions()
	opts.FieldSeparators = []string{sep}
	opts.LineSeparators = []string{lineSep}
	opts.SkipEmptyLinesWhen = SkipBlank
	p, err := NewParser(opts)
	if err != nil {
		return nil
	}
	p.ReadChunk(sample)
	if len(p.RecordsRef()) == 0 {
		p.Flush()
	}
	return p.RecordsRef()
}

// separatorScore favors separators that split every line into the same
// number of fields.
func separatorScore(rows [][]string) int {
	if len(rows) == 0 {
		return 0
	}
	first := len(rows[0]) - 1
	if first == 0 {
		return 0
	}
	for _, row := range rows[1:] {
		if len(row)-1 != first {
			return first
		}
	}
	return first * 10
}

// detectHeader uses heuristics to decide whether the first row is a header.
func detectHeader(rows [][]string) bool {
	if len(rows) < 2 {
		return false
	}
	headerScore, dataScore := 0, 0
	for _, field := range rows[0] {
		field = strings.TrimSpace(field)
		if isLikelyHeader(field) {
			headerScore++
		}
		if isLikelyData(field) {
			dataScore++
		}
	}
	return headerScore > dataScore
}

var (
	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`),       // snake_case or identifier
		regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`),      // camelCase
		regexp.MustCompile(`^[A-Z][a-z]+([ ][A-Z][a-z]+)*$`), // Title Case
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	}
)

func isLikelyHeader(s string) bool {
	if s == "" || isNumeric(s) {
		return false
	}
	for _, pattern := range headerPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

func isLikelyData(s string) bool {
	if s == "" {
		return false
	}
	if isNumeric(s) || strings.Contains(s, "@") {
		return true
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	if s == "" {
		return false
	}
	hasDot := false
	for _, ch := range s {
		switch {
		case ch == '.' && !hasDot:
			hasDot = true
		case !unicode.IsDigit(ch):
			return false
		}
	}
	return s != "."
}
