package csv

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Marshal returns the CSV encoding of v, which must be a slice of structs or
// of pointers to structs. The first record holds the column names.
//
// Columns follow the declaration order of the exported fields. The "csv" tag
// names a column; "-" omits the field:
//
//	type Person struct {
//		Name  string  `csv:"name"`
//		Age   int     `csv:"age"`
//		Email *string `csv:"email"` // nil encodes as an empty field
//		notes string               // unexported, omitted
//	}
//
// Nil elements are skipped. Supported field types are strings, integers,
// floats, bools and pointers to them.
func Marshal(v any, opts WriterOptions) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, errors.New("csv: Marshal(nil)")
	}
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv: Marshal expects a slice, got %s", rv.Type())
	}
	elem := rv.Type().Elem()
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("csv: Marshal expects a slice of structs, got slice of %s", elem)
	}

	columns := structColumns(elem)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, opts)
	if err != nil {
		return nil, err
	}

	record := make([]string, len(columns))
	for i, c := range columns {
		record[i] = c.name
	}
	if err := w.Write(record); err != nil {
		return nil, err
	}

	for i := 0; i < rv.Len(); i++ {
		row := rv.Index(i)
		if row.Kind() == reflect.Pointer {
			if row.IsNil() {
				continue
			}
			row = row.Elem()
		}
		for j, c := range columns {
			s, err := formatValue(row.Field(c.index))
			if err != nil {
				return nil, fmt.Errorf("csv: field %s: %w", c.name, err)
			}
			record[j] = s
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses data with opts and stores the result in the value v
// points to, returning the parser warnings.
//
// A *[][]string receives every record. A pointer to a slice of structs (or of
// struct pointers) takes the first record as column names and fills one
// element per following record. Columns match the "csv" tag or the field
// name, ignoring case; unmatched columns are ignored and unmatched fields
// keep their zero value. Empty fields leave pointer fields nil.
func Unmarshal(data []byte, v any, opts Options) ([]Warning, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, errors.New("csv: Unmarshal expects a non-nil pointer")
	}
	target := rv.Elem()
	if target.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv: Unmarshal expects a pointer to a slice, got %s", rv.Type())
	}

	records, warnings, err := ParseRecords(string(data), opts)
	if err != nil {
		return nil, err
	}

	if target.Type() == reflect.TypeOf([][]string(nil)) {
		target.Set(reflect.ValueOf(records))
		return warnings, nil
	}

	elemType := target.Type().Elem()
	isPtr := elemType.Kind() == reflect.Pointer
	structType := elemType
	if isPtr {
		structType = elemType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("csv: Unmarshal expects a slice of structs, got %s", target.Type())
	}

	out := reflect.MakeSlice(target.Type(), 0, max(len(records)-1, 0))
	if len(records) > 0 {
		byName := make(map[string]column)
		for _, c := range structColumns(structType) {
			byName[strings.ToLower(c.name)] = c
		}
		mapping := make([]*column, len(records[0]))
		for i, h := range records[0] {
			if c, ok := byName[strings.ToLower(strings.TrimSpace(h))]; ok {
				mapping[i] = &c
			}
		}

		for n, record := range records[1:] {
			elem := reflect.New(structType).Elem()
			for i, field := range record {
				if i >= len(mapping) || mapping[i] == nil {
					continue
				}
				if err := setValue(elem.Field(mapping[i].index), field); err != nil {
					return warnings, fmt.Errorf("csv: record %d, column %s: %w", n+2, mapping[i].name, err)
				}
			}
			if isPtr {
				elem = elem.Addr()
			}
			out = reflect.Append(out, elem)
		}
	}
	target.Set(out)
	return warnings, nil
}

// column is an exported struct field mapped to a CSV column.
type column struct {
	name  string
	index int
}

func structColumns(t reflect.Type) []column {
	var columns []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("csv"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		columns = append(columns, column{name: name, index: i})
	}
	return columns
}

func formatValue(v reflect.Value) (string, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	default:
		return "", fmt.Errorf("unsupported type %s", v.Type())
	}
}

func setValue(v reflect.Value, s string) error {
	if v.Kind() == reflect.Pointer {
		if s == "" {
			return nil
		}
		p := reflect.New(v.Type().Elem())
		if err := setValue(p.Elem(), s); err != nil {
			return err
		}
		v.Set(p)
		return nil
	}
	if s == "" && v.Kind() != reflect.String {
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		v.SetBool(b)
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}
