// Package match provides generic regular-expression helpers: locating every
// non-overlapping match of a pattern together with its offset, and splitting a
// string into an ordered sequence of matched and unmatched segments.
//
// Nothing here knows about CSV; the tokenizer builds on Isolate.
package match

import (
	"fmt"
	"regexp"
)

// Match is a single non-overlapping match and its byte offset in the input.
type Match struct {
	Index int
	Value string
}

// Segment is a contiguous run of the input that either matched the pattern or
// lies between two matches.
type Segment struct {
	Value   string
	Matched bool
	Index   int
}

// Compile compiles pattern, optionally case-insensitively. An empty pattern is
// rejected because it matches everywhere without consuming input.
func Compile(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("match: empty pattern")
	}
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("match: compile %q: %w", pattern, err)
	}
	return re, nil
}

// FindAll returns every non-overlapping match of pattern in s, left to right.
// It returns nil when nothing matches.
func FindAll(s, pattern string, ignoreCase bool) ([]Match, error) {
	re, err := Compile(pattern, ignoreCase)
	if err != nil {
		return nil, err
	}
	return FindAllCompiled(re, s), nil
}

// FindAllCompiled is FindAll for an already compiled expression.
func FindAllCompiled(re *regexp.Regexp, s string) []Match {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		// Empty matches carry no data and would make offsets ambiguous.
		if loc[0] == loc[1] {
			continue
		}
		matches = append(matches, Match{Index: loc[0], Value: s[loc[0]:loc[1]]})
	}
	if len(matches) == 0 {
		return nil
	}
	return matches
}

// Isolate partitions s into matched and unmatched segments. Concatenating the
// segment values yields s again, and each Index is the segment's byte offset.
func Isolate(s, pattern string, ignoreCase bool) ([]Segment, error) {
	re, err := Compile(pattern, ignoreCase)
	if err != nil {
		return nil, err
	}
	var segments []Segment
	IsolateFunc(re, s, func(seg Segment) {
		segments = append(segments, seg)
	})
	return segments, nil
}

// IsolateFunc walks the segments of s in order without collecting them.
func IsolateFunc(re *regexp.Regexp, s string, yield func(Segment)) {
	pos := 0
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > pos {
			yield(Segment{Value: s[pos:loc[0]], Matched: false, Index: pos})
		}
		yield(Segment{Value: s[loc[0]:loc[1]], Matched: true, Index: loc[0]})
		pos = loc[1]
	}
	if pos < len(s) {
		yield(Segment{Value: s[pos:], Matched: false, Index: pos})
	}
}
