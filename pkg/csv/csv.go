// Package csv parses delimited text incrementally.
//
// Input may arrive in chunks of any size, split anywhere except inside a
// configured multi-character token. The field delimiter (quote), the field
// separators and the line separators are all configurable, and each may be
// several characters long. Malformed quoting never stops parsing: it is
// reported as a Warning attached to the line it occurred on.
//
// # Parsing APIs
//
//   - Parse / ParseRecords parse a string held in memory.
//   - ParseReader / ReadAll parse any io.Reader in bounded chunks.
//   - NewScanner yields one record at a time from an io.Reader.
//   - NewParser exposes the chunk-level parser itself.
//   - Unmarshal fills a slice of structs; Marshal encodes one.
//
// # Example usage with Parse
//
//	node, warnings, err := csv.Parse("name,age\nAlice,30\n", csv.DefaultOptions())
//	if err != nil {
//	    // invalid options
//	}
//	// node is an *ast.ArrayDataNode of records
//
// # Example usage with Parser
//
//	p, err := csv.NewParser(csv.DefaultOptions())
//	if err != nil {
//	    // invalid options
//	}
//	p.ReadChunk("a,\"b")
//	p.ReadChunk("\"\"c\",d\ne")
//	p.Flush()
//	records := p.RecordsCopy() // [["a" "b\"c" "d"] ["e"]]
//
// # Thread Safety
//
// A Parser or Scanner must be used by one goroutine at a time. The package
// level functions create their own parser per call and are safe for
// concurrent use.
package csv

import (
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"

	"github.com/shapestone/shape-csvchunk/internal/parser"
	"github.com/shapestone/shape-csvchunk/internal/tokenizer"
)

// Parser is the incremental chunk parser. See NewParser.
type Parser = parser.Parser

// NewParser validates opts and returns an incremental Parser.
func NewParser(opts Options) (*Parser, error) {
	return parser.NewParser(opts)
}

// Parse parses a complete document held in memory and returns it as an AST
// together with the warnings raised while parsing.
//
// The result is an *ast.ArrayDataNode of records, each an *ast.ArrayDataNode
// of *ast.LiteralNode string fields.
func Parse(input string, opts Options) (ast.SchemaNode, []Warning, error) {
	records, warnings, err := ParseRecords(input, opts)
	if err != nil {
		return nil, nil, err
	}
	return RecordsToNode(records), warnings, nil
}

// ParseRecords parses a complete document held in memory.
func ParseRecords(input string, opts Options) ([][]string, []Warning, error) {
	p, err := parser.NewParser(opts)
	if err != nil {
		return nil, nil, err
	}
	p.ReadChunk(input)
	p.Flush()
	return p.RecordsRef(), p.WarningsRef(), nil
}

// ParseReader parses everything r yields and returns it as an AST.
func ParseReader(r io.Reader, opts Options) (ast.SchemaNode, []Warning, error) {
	records, warnings, err := ReadAll(r, opts)
	if err != nil {
		return nil, nil, err
	}
	return RecordsToNode(records), warnings, nil
}

// ReadAll reads r in chunks through a Scanner and returns every record.
func ReadAll(r io.Reader, opts Options) ([][]string, []Warning, error) {
	s, err := NewScanner(r, opts)
	if err != nil {
		return nil, nil, err
	}
	var records [][]string
	for s.Scan() {
		records = append(records, s.Record().Fields())
	}
	if err := s.Err(); err != nil {
		return records, s.Warnings(), err
	}
	return records, s.Warnings(), nil
}

// Validate parses input and returns a *WarningsError if any warning was
// raised, or the configuration error if opts are invalid.
func Validate(input string, opts Options) error {
	_, warnings, err := ParseRecords(input, opts)
	if err != nil {
		return err
	}
	if len(warnings) > 0 {
		return &WarningsError{Warnings: warnings}
	}
	return nil
}

// ValidateReader is Validate for an io.Reader.
func ValidateReader(r io.Reader, opts Options) error {
	_, warnings, err := ReadAll(r, opts)
	if err != nil {
		return err
	}
	if len(warnings) > 0 {
		return &WarningsError{Warnings: warnings}
	}
	return nil
}

// Tokenize splits input the way a parser configured with opts would, and
// returns the tokens. Token kinds are TokenDelimiter, TokenSeparator,
// TokenLineSeparator and TokenOrdinary.
func Tokenize(input string, opts Options) ([]*shapetokenizer.Token, error) {
	cfg, err := parser.NewConfig(opts)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(tokenizer.Set{
		Delimiter:      cfg.FieldDelimiter,
		Separators:     cfg.FieldSeparators,
		LineSeparators: cfg.LineSeparators,
	}, cfg.SmartRegex)
	if err != nil {
		return nil, err
	}
	return tok.Tokens(input), nil
}

// Token kinds reported by Tokenize.
const (
	TokenDelimiter     = tokenizer.TokenDelimiter
	TokenSeparator     = tokenizer.TokenSeparator
	TokenLineSeparator = tokenizer.TokenLineSeparator
	TokenOrdinary      = tokenizer.TokenOrdinary
)

// Format returns the format identifier for this parser.
func Format() string {
	return "CSV"
}
