package tokenizer

import (
	"regexp"
	"unicode/utf8"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"

	"github.com/shapestone/shape-csvchunk/internal/match"
)

// Tokenizer splits text with a compiled pattern and classifies each piece.
// It holds no per-input state and is safe for concurrent use.
type Tokenizer struct {
	set        Set
	re         *regexp.Regexp
	separators map[string]struct{}
	lineSeps   map[string]struct{}
	maxLen     int // longest literal alternative, in bytes
}

// New builds the pattern for set and compiles it.
func New(set Set, smart bool) (*Tokenizer, error) {
	pattern, optimized := BuildPattern(set, smart)
	re, err := match.Compile(pattern, false)
	if err != nil {
		return nil, err
	}

	t := &Tokenizer{
		set:        set,
		re:         re,
		separators: make(map[string]struct{}, len(set.Separators)),
		lineSeps:   make(map[string]struct{}, len(set.LineSeparators)),
	}
	for _, sep := range set.Separators {
		t.separators[sep] = struct{}{}
	}
	for _, ls := range set.LineSeparators {
		t.lineSeps[ls] = struct{}{}
	}
	for _, v := range set.literals() {
		t.maxLen = max(t.maxLen, len(v))
	}
	if optimized {
		t.maxLen = max(t.maxLen, len("\r\n"))
	}
	return t, nil
}

// Classify returns the token kind of a matched value.
func (t *Tokenizer) Classify(value string) string {
	if value == t.set.Delimiter {
		return TokenDelimiter
	}
	if _, ok := t.separators[value]; ok {
		return TokenSeparator
	}
	if _, ok := t.lineSeps[value]; ok {
		return TokenLineSeparator
	}
	return TokenOrdinary
}

// Scan tokenizes s left to right and calls fn with each token. Text the
// pattern does not cover is reported as ordinary.
func (t *Tokenizer) Scan(s string, fn func(kind, value string)) {
	match.IsolateFunc(t.re, s, func(seg match.Segment) {
		if !seg.Matched {
			fn(TokenOrdinary, seg.Value)
			return
		}
		fn(t.Classify(seg.Value), seg.Value)
	})
}

// Tokens returns the tokens of s as shape tokens, mainly for inspection.
func (t *Tokenizer) Tokens(s string) []*shapetokenizer.Token {
	var tokens []*shapetokenizer.Token
	t.Scan(s, func(kind, value string) {
		tokens = append(tokens, shapetokenizer.NewToken(kind, []rune(value)))
	})
	return tokens
}

// SafeCut returns the length of the longest prefix of s that can be
// tokenized now without changing how s tokenizes once more input is
// appended: the prefix never ends inside a UTF-8 sequence and never splits a
// configured multi-character value.
//
// The cut is placed at the start of the first token that begins within the
// last maxLen-1 bytes; any token starting earlier cannot grow into a longer
// alternative.
func (t *Tokenizer) SafeCut(s string) int {
	end := completeRunes(s)
	if t.maxLen <= 1 {
		return end
	}
	threshold := end - (t.maxLen - 1)
	if threshold <= 0 {
		return 0
	}
	for _, m := range match.FindAllCompiled(t.re, s[:end]) {
		if m.Index >= threshold {
			return m.Index
		}
	}
	return end
}

// completeRunes returns len(s) minus any incomplete trailing UTF-8 sequence.
func completeRunes(s string) int {
	for i := len(s) - 1; i >= 0 && i >= len(s)-utf8.UTFMax; i-- {
		if utf8.RuneStart(s[i]) {
			if utf8.FullRuneInString(s[i:]) {
				return len(s)
			}
			return i
		}
	}
	return len(s)
}
