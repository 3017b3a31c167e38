package csv

import (
	"fmt"
	"slices"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Document is a parsed or hand-built CSV file: optional headers, data
// records, and the warnings raised while parsing it.
// All setter methods return *Document to enable method chaining:
//
//	doc := csv.NewDocument().
//		SetHeaders([]string{"name", "age"}).
//		AddRecord([]string{"Alice", "30"})
type Document struct {
	headers  []string
	records  [][]string
	warnings []Warning
}

// Record is a single row with access by index or by header name.
type Record struct {
	fields  []string
	headers []string
}

// NewDocument creates a new empty Document.
func NewDocument() *Document {
	return &Document{}
}

// ParseDocument parses input into a Document. When hasHeaders is true the
// first record becomes the headers.
func ParseDocument(input string, opts Options, hasHeaders bool) (*Document, error) {
	records, warnings, err := ParseRecords(input, opts)
	if err != nil {
		return nil, err
	}
	return newDocument(records, warnings, hasHeaders), nil
}

func newDocument(records [][]string, warnings []Warning, hasHeaders bool) *Document {
	doc := &Document{records: records, warnings: warnings}
	if hasHeaders && len(records) > 0 {
		doc.headers = records[0]
		doc.records = records[1:]
	}
	return doc
}

// SetHeaders sets the column headers used by Record.GetByName.
func (d *Document) SetHeaders(headers []string) *Document {
	d.headers = headers
	return d
}

// AddRecord appends a data record.
func (d *Document) AddRecord(fields []string) *Document {
	d.records = append(d.records, fields)
	return d
}

// Headers returns the column headers, or nil when none are set.
func (d *Document) Headers() []string {
	return d.headers
}

// Warnings returns the warnings raised while parsing the document.
func (d *Document) Warnings() []Warning {
	return d.warnings
}

// Records returns all data records.
func (d *Document) Records() []Record {
	records := make([]Record, len(d.records))
	for i, fields := range d.records {
		records[i] = Record{fields: fields, headers: d.headers}
	}
	return records
}

// Rows returns the header row, if any, followed by the data records.
func (d *Document) Rows() [][]string {
	if len(d.headers) == 0 {
		return d.records
	}
	return append([][]string{d.headers}, d.records...)
}

// RecordCount returns the number of data records, excluding the header row.
func (d *Document) RecordCount() int {
	return len(d.records)
}

// GetRecord returns the data record at index, or false if out of range.
func (d *Document) GetRecord(index int) (Record, bool) {
	if index < 0 || index >= len(d.records) {
		return Record{}, false
	}
	return Record{fields: d.records[index], headers: d.headers}, true
}

// CSV renders the headers and records with opts.
func (d *Document) CSV(opts WriterOptions) (string, error) {
	out, err := RenderRecords(d.Rows(), opts)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Get returns the field at index, or false if out of range.
func (r Record) Get(index int) (string, bool) {
	if index < 0 || index >= len(r.fields) {
		return "", false
	}
	return r.fields[index], true
}

// GetByName returns the field under the header name, or false if there is
// no such header or the record is too short.
func (r Record) GetByName(name string) (string, bool) {
	i := slices.Index(r.headers, name)
	if i < 0 {
		return "", false
	}
	return r.Get(i)
}

// Fields returns a copy of the field values.
func (r Record) Fields() []string {
	return slices.Clone(r.fields)
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.fields)
}

// ToAST converts the Document, header row included, to an AST.
func (d *Document) ToAST() *ast.ArrayDataNode {
	return RecordsToNode(d.Rows())
}

// FromAST builds a Document from an AST produced by Parse or ToAST. When
// hasHeaders is true the first record becomes the headers.
func FromAST(node ast.SchemaNode, hasHeaders bool) (*Document, error) {
	records, err := NodeToRecords(node)
	if err != nil {
		return nil, fmt.Errorf("csv: from AST: %w", err)
	}
	return newDocument(records, nil, hasHeaders), nil
}
