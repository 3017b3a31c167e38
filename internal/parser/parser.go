// Package parser implements the incremental CSV automaton.
//
// Text is fed in arbitrary chunks with ReadChunk. Completed lines become
// records; the partially read line is carried over to the next chunk, so the
// result never depends on where the input was split. Flush closes the last
// line once the input is exhausted.
package parser

import (
	"slices"
	"strings"
	"unicode"

	"github.com/shapestone/shape-csvchunk/internal/tokenizer"
)

// Parser accumulates records and warnings from chunked input.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	cfg Config
	tok *tokenizer.Tokenizer

	// trackRaw is set when the skip policy inspects the raw line text.
	trackRaw bool

	state        state
	field        strings.Builder
	line         []string
	lineRaw      strings.Builder
	lineWarnings []Warning
	pending      bool

	records  [][]string
	warnings []Warning
	// lineBase counts records handed out by Drain.
	lineBase int
}

// NewParser validates opts and returns a Parser ready for ReadChunk.
func NewParser(opts Options) (*Parser, error) {
	cfg, err := NewConfig(opts)
	if err != nil {
		return nil, err
	}
	return NewParserFromConfig(cfg)
}

// NewParserFromConfig returns a Parser for an already validated Config.
func NewParserFromConfig(cfg Config) (*Parser, error) {
	cfg = cfg.Clone()
	tok, err := tokenizer.New(cfg.tokenSet(), cfg.SmartRegex)
	if err != nil {
		return nil, err
	}
	return &Parser{
		cfg:      cfg,
		tok:      tok,
		trackRaw: cfg.SkipEmptyLinesWhen == SkipReallyEmpty || cfg.SkipEmptyLinesWhen == SkipBlank,
	}, nil
}

// Config returns a copy of the effective configuration.
func (p *Parser) Config() Config {
	return p.cfg.Clone()
}

// ReadChunk feeds the next piece of input. Completed lines are appended to
// the records; an incomplete trailing line stays pending.
func (p *Parser) ReadChunk(chunk string) {
	p.tok.Scan(chunk, p.consume)
}

// Flush closes the pending line, if any. An open quoted field is closed with
// a DelimiterNotTerminated warning. Flush is a no-op without pending data,
// so calling it twice is harmless.
func (p *Parser) Flush() {
	if !p.pending {
		return
	}
	switch p.state {
	case stateStart, stateUnquotedField, stateQuoteSeen:
	case stateQuotedField:
		p.warn(notTerminatedWarning(p.cfg.FieldDelimiter, p.lineNumber()))
	default:
		panic(&InternalError{State: p.state.String()})
	}
	p.closeLine()
	p.state = stateStart
}

// HasPendingData reports whether tokens have been consumed since the last
// closed line.
func (p *Parser) HasPendingData() bool {
	return p.pending
}

// RecordsRef returns the records parsed so far without copying. The caller
// must not modify the result.
func (p *Parser) RecordsRef() [][]string {
	return p.records
}

// RecordsCopy returns a deep copy of the records parsed so far.
func (p *Parser) RecordsCopy() [][]string {
	if p.records == nil {
		return nil
	}
	out := make([][]string, len(p.records))
	for i, rec := range p.records {
		out[i] = slices.Clone(rec)
	}
	return out
}

// WarningsRef returns the warnings of closed lines followed by those of the
// line being built. It copies only when the current line has warnings. The
// caller must not modify the result.
func (p *Parser) WarningsRef() []Warning {
	if len(p.lineWarnings) == 0 {
		return p.warnings
	}
	return append(p.warnings[:len(p.warnings):len(p.warnings)], p.lineWarnings...)
}

// WarningsCopy returns an independent copy of WarningsRef.
func (p *Parser) WarningsCopy() []Warning {
	return slices.Clone(p.WarningsRef())
}

// Drain returns the closed records and their warnings and removes them from
// the parser. The open line is kept, and warnings raised later keep counting
// lines from where the drained records left off.
func (p *Parser) Drain() ([][]string, []Warning) {
	records, warnings := p.records, p.warnings
	p.lineBase += len(records)
	p.records, p.warnings = nil, nil
	return records, warnings
}

// SafeCut returns the length of the longest prefix of s that ReadChunk can
// take now without splitting a multi-character token or a UTF-8 sequence.
// The rest should be prepended to the next chunk.
func (p *Parser) SafeCut(s string) int {
	return p.tok.SafeCut(s)
}

// Reset discards all records, warnings and pending state. The configuration
// is kept.
func (p *Parser) Reset() {
	p.state = stateStart
	p.field.Reset()
	p.line = nil
	p.lineRaw.Reset()
	p.lineWarnings = nil
	p.pending = false
	p.records = nil
	p.warnings = nil
	p.lineBase = 0
}

// consume advances the automaton by one token.
func (p *Parser) consume(kind, value string) {
	p.pending = true
	closed := false

	switch p.state {
	case stateStart:
		switch kind {
		case tokenizer.TokenDelimiter:
			p.state = stateQuotedField
		case tokenizer.TokenSeparator:
			p.closeField()
		case tokenizer.TokenLineSeparator:
			p.closeLine()
			closed = true
		default:
			p.field.WriteString(value)
			p.state = stateUnquotedField
		}

	case stateUnquotedField:
		switch kind {
		case tokenizer.TokenSeparator:
			p.closeField()
			p.state = stateStart
		case tokenizer.TokenLineSeparator:
			p.closeLine()
			p.state = stateStart
			closed = true
		default:
			// A delimiter inside an unquoted field is plain text.
			p.field.WriteString(value)
		}

	case stateQuotedField:
		if kind == tokenizer.TokenDelimiter {
			p.state = stateQuoteSeen
		} else {
			p.field.WriteString(value)
		}

	case stateQuoteSeen:
		switch kind {
		case tokenizer.TokenDelimiter:
			p.field.WriteString(p.cfg.FieldDelimiter)
			p.state = stateQuotedField
		case tokenizer.TokenSeparator:
			p.closeField()
			p.state = stateStart
		case tokenizer.TokenLineSeparator:
			p.closeLine()
			p.state = stateStart
			closed = true
		default:
			p.warn(notEscapedWarning(p.cfg.FieldDelimiter, value, p.lineNumber()))
			p.field.WriteString(p.cfg.FieldDelimiter)
			p.field.WriteString(value)
			p.state = stateQuotedField
		}

	default:
		panic(&InternalError{State: p.state.String()})
	}

	if !closed && p.trackRaw {
		p.lineRaw.WriteString(value)
	}
}

func (p *Parser) closeField() {
	p.line = append(p.line, p.field.String())
	p.field.Reset()
}

// closeLine closes the last field and either records the line or drops it
// according to the skip settings.
func (p *Parser) closeLine() {
	p.closeField()

	if p.skipLine() {
		p.line = p.line[:0]
	} else {
		p.records = append(p.records, p.line)
		p.warnings = append(p.warnings, p.lineWarnings...)
		p.line = nil
	}

	p.lineRaw.Reset()
	p.lineWarnings = p.lineWarnings[:0]
	p.pending = false
}

func (p *Parser) skipLine() bool {
	if p.cfg.SkipLinesWithWarnings && len(p.lineWarnings) > 0 {
		return true
	}
	switch p.cfg.SkipEmptyLinesWhen {
	case SkipReallyEmpty:
		return p.lineRaw.Len() == 0
	case SkipBlank:
		return isBlank(p.lineRaw.String())
	case SkipOnlyBlankFields:
		for _, f := range p.line {
			if !isBlank(f) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (p *Parser) warn(w Warning) {
	p.lineWarnings = append(p.lineWarnings, w)
}

// lineNumber is the 1-based number the current line gets once recorded.
func (p *Parser) lineNumber() int {
	return p.lineBase + len(p.records) + 1
}

// isBlank treats the byte order mark as whitespace, like a JavaScript trim.
func isBlank(s string) bool {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	}) == ""
}
