package csv

import (
	"errors"
	"io"
	"slices"

	"github.com/shapestone/shape-csvchunk/internal/parser"
)

// DefaultChunkSize is the number of bytes a Scanner reads at a time.
const DefaultChunkSize = 4096

// Scanner provides a streaming interface for reading CSV records one at a time.
// It reads the input in fixed-size chunks and never holds more than the
// records of one chunk plus the line being read.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner, err := csv.NewScanner(file, csv.DefaultOptions())
//	if err != nil {
//	    // invalid options
//	}
//	scanner.SetHasHeaders(true)
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    name, _ := record.GetByName("name")
//	    fmt.Println(name)
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	reader      io.Reader
	parser      *parser.Parser
	chunkSize   int
	buf         []byte
	carry       string // read but not yet fed; may hold a split token
	hasHeaders  bool
	reuseRecord bool
	headers     []string
	batch       [][]string
	next        int
	current     []string
	line        int
	warnings    []Warning
	eof         bool
	done        bool
	err         error
	lastRecord  Record // reused when reuseRecord is true
}

// NewScanner creates a Scanner that reads CSV from reader using opts.
// By default, the scanner assumes no headers. Use SetHasHeaders(true) to
// treat the first record as headers.
func NewScanner(reader io.Reader, opts Options) (*Scanner, error) {
	p, err := parser.NewParser(opts)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		reader:    reader,
		parser:    p,
		chunkSize: DefaultChunkSize,
	}, nil
}

// SetHasHeaders sets whether the first record should be treated as headers.
// If true, the first record is used for GetByName() access and is not
// returned by Scan. Returns the Scanner for method chaining.
func (s *Scanner) SetHasHeaders(hasHeaders bool) *Scanner {
	s.hasHeaders = hasHeaders
	return s
}

// SetReuseRecord sets whether Record may return fields sharing storage with
// the parser instead of a private copy. Returns the Scanner for method
// chaining.
func (s *Scanner) SetReuseRecord(reuse bool) *Scanner {
	s.reuseRecord = reuse
	return s
}

// SetChunkSize sets how many bytes are read at a time. Values below 1 select
// DefaultChunkSize. It must be called before the first Scan.
func (s *Scanner) SetChunkSize(n int) *Scanner {
	if n < 1 {
		n = DefaultChunkSize
	}
	s.chunkSize = n
	return s
}

// Config returns the effective parser configuration.
func (s *Scanner) Config() Config {
	return s.parser.Config()
}

// Scan advances the scanner to the next record.
// It returns false when there are no more records or a read error occurs.
// After Scan returns false, the Err method will return any error that occurred.
func (s *Scanner) Scan() bool {
	for {
		if s.next < len(s.batch) {
			rec := s.batch[s.next]
			s.next++
			s.line++
			if s.hasHeaders && s.headers == nil {
				s.headers = rec
				continue
			}
			s.current = rec
			return true
		}
		if s.done || s.err != nil {
			s.current = nil
			return false
		}
		s.fill()
	}
}

// fill feeds the parser with the next chunk and collects what it closed.
func (s *Scanner) fill() {
	if s.eof {
		s.parser.ReadChunk(s.carry)
		s.carry = ""
		s.parser.Flush()
		s.done = true
	} else {
		if s.buf == nil {
			s.buf = make([]byte, s.chunkSize)
		}
		n, err := s.reader.Read(s.buf)
		data := s.carry + string(s.buf[:n])
		switch {
		case err == nil:
			s.feed(data)
		case errors.Is(err, io.EOF):
			s.eof = true
			s.carry = data
		default:
			s.feed(data)
			s.err = err
		}
	}

	records, warnings := s.parser.Drain()
	s.batch, s.next = records, 0
	s.warnings = append(s.warnings, warnings...)
}

func (s *Scanner) feed(data string) {
	cut := s.parser.SafeCut(data)
	s.parser.ReadChunk(data[:cut])
	s.carry = data[cut:]
}

// Record returns the current record.
// This should only be called after Scan() returns true.
//
// When ReuseRecord is enabled, the returned Record may share memory with
// the scanner. Copy the fields if you need to retain them.
func (s *Scanner) Record() Record {
	if s.current == nil {
		return Record{fields: []string{}, headers: s.headers}
	}

	if s.reuseRecord {
		s.lastRecord.fields = s.current
		s.lastRecord.headers = s.headers
		return s.lastRecord
	}

	return Record{
		fields:  slices.Clone(s.current),
		headers: s.headers,
	}
}

// Line returns the 1-based record number of the current record, counting
// the header record.
func (s *Scanner) Line() int {
	return s.line
}

// Err returns the error, if any, that was encountered during scanning.
// It returns nil at EOF.
func (s *Scanner) Err() error {
	return s.err
}

// Headers returns the header record if SetHasHeaders(true) was called.
// This is available after the first call to Scan().
func (s *Scanner) Headers() []string {
	return s.headers
}

// Warnings returns the warnings raised so far, including those of a line
// not yet complete. Line numbers count records from the start of the input.
func (s *Scanner) Warnings() []Warning {
	return append(slices.Clone(s.warnings), s.parser.WarningsRef()...)
}
