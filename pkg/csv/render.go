package csv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/shapestone/shape-core/pkg/ast"

	"github.com/shapestone/shape-csvchunk/internal/parser"
)

// Render converts an AST produced by Parse or RecordsToNode to CSV bytes.
//
// A field is quoted when it contains any character of the delimiter, of a
// separator or of a line separator, or a CR or LF. Delimiters inside a
// quoted field are doubled. Every record, the last one included, ends with the
// line separator.
//
// Example:
//
//	node, _, _ := csv.Parse("name,age\nAlice,30\n", csv.DefaultOptions())
//	out, _ := csv.Render(node, csv.DefaultWriterOptions())
//	// out: name,age\nAlice,30\n
func Render(node ast.SchemaNode, opts WriterOptions) ([]byte, error) {
	if node == nil {
		return []byte{}, nil
	}
	records, err := NodeToRecords(node)
	if err != nil {
		return nil, fmt.Errorf("csv: render: %w", err)
	}
	return RenderRecords(records, opts)
}

// RenderRecords renders records with opts.
func RenderRecords(records [][]string, opts WriterOptions) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, opts)
	if err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrNoFieldSeparator is returned when a record with several fields is
// written without a field separator.
var ErrNoFieldSeparator = errors.New("csv: record has several fields but no field separator is configured")

// ErrUnrepresentable is returned when a record cannot be written so that it
// parses back unchanged, e.g. a field ending in a proper prefix of a
// self-overlapping delimiter such as x' under the delimiter ''.
var ErrUnrepresentable = errors.New("csv: record cannot be written to parse back unchanged")

// Writer writes records as delimited text.
type Writer struct {
	w    *bufio.Writer
	opts WriterOptions
	// special lists the runes that force quoting: every rune of the
	// delimiter and of the separators, plus CR and LF.
	special string

	// check re-parses each line when a multi-character value lets tokens
	// span field boundaries. Nil for single-character dialects.
	check   *parser.Parser
	line    strings.Builder
	written bool
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer, opts WriterOptions) (*Writer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	read := parser.Options{
		FieldDelimiter: opts.FieldDelimiter,
		LineSeparators: appendUnique([]string{opts.LineSeparator}, opts.lineSeparators...),
		SmartRegex:     true,
	}
	if opts.FieldSeparator != "" {
		read.FieldSeparators = []string{opts.FieldSeparator}
	}
	read.FieldSeparators = appendUnique(read.FieldSeparators, opts.separators...)

	special := "\r\n" + read.FieldDelimiter
	multi := utf8.RuneCountInString(read.FieldDelimiter) > 1
	for _, v := range slices.Concat(read.FieldSeparators, read.LineSeparators) {
		special += v
		if v != "\r\n" && utf8.RuneCountInString(v) > 1 {
			multi = true
		}
	}

	wr := &Writer{w: bufio.NewWriter(w), opts: opts, special: special}
	if multi {
		p, err := parser.NewParser(read)
		if err != nil {
			return nil, err
		}
		wr.check = p
	}
	return wr, nil
}

// Write writes one record followed by the line separator. Output is
// buffered: call Flush when done.
func (w *Writer) Write(record []string) error {
	if len(record) > 1 && w.opts.FieldSeparator == "" {
		return ErrNoFieldSeparator
	}
	w.line.Reset()
	for i, field := range record {
		if i > 0 {
			w.line.WriteString(w.opts.FieldSeparator)
		}
		w.writeField(field)
	}
	w.line.WriteString(w.opts.LineSeparator)

	if w.check != nil && len(record) > 0 && !w.parsesBack(record) {
		return fmt.Errorf("%w: %q", ErrUnrepresentable, record)
	}
	if _, err := w.w.WriteString(w.line.String()); err != nil {
		return err
	}
	w.written = true
	return nil
}

// parsesBack reports whether the pending line, read after the previous
// line separator, yields exactly record without warnings.
func (w *Writer) parsesBack(record []string) bool {
	text := w.line.String()
	if w.written {
		text = w.opts.LineSeparator + text
	}
	w.check.Reset()
	w.check.ReadChunk(text)

	got := w.check.RecordsRef()
	if w.written {
		if len(got) == 0 || !slices.Equal(got[0], []string{""}) {
			return false
		}
		got = got[1:]
	}
	return !w.check.HasPendingData() && len(w.check.WarningsRef()) == 0 &&
		len(got) == 1 && slices.Equal(got[0], record)
}

// WriteAll writes records and flushes.
func (w *Writer) WriteAll(records [][]string) error {
	for i, record := range records {
		if err := w.Write(record); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return w.Flush()
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) writeField(field string) {
	delim := w.opts.FieldDelimiter
	if !w.opts.QuoteAll && !strings.ContainsAny(field, w.special) {
		w.line.WriteString(field)
		return
	}
	w.line.WriteString(delim)
	w.line.WriteString(strings.ReplaceAll(field, delim, delim+delim))
	w.line.WriteString(delim)
}

func appendUnique(values []string, more ...string) []string {
	for _, v := range more {
		if !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	return values
}
