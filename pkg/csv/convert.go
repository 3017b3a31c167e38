package csv

import (
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
)

// RecordsToNode converts records to an AST: an *ast.ArrayDataNode of
// records, each an *ast.ArrayDataNode of *ast.LiteralNode string fields.
func RecordsToNode(records [][]string) *ast.ArrayDataNode {
	pos := ast.ZeroPosition()
	nodes := make([]ast.SchemaNode, len(records))
	for i, record := range records {
		fields := make([]ast.SchemaNode, len(record))
		for j, f := range record {
			fields[j] = ast.NewLiteralNode(f, pos)
		}
		nodes[i] = ast.NewArrayDataNode(fields, pos)
	}
	return ast.NewArrayDataNode(nodes, pos)
}

// NodeToRecords converts an AST shaped like the output of RecordsToNode back
// to records. Non-string literal values are formatted with %v; a nil value
// becomes the empty string.
func NodeToRecords(node ast.SchemaNode) ([][]string, error) {
	file, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return nil, fmt.Errorf("expected *ast.ArrayDataNode, got %T", node)
	}

	records := make([][]string, 0, file.Len())
	for i, elem := range file.Elements() {
		record, ok := elem.(*ast.ArrayDataNode)
		if !ok {
			return nil, fmt.Errorf("record %d: expected *ast.ArrayDataNode, got %T", i, elem)
		}
		fields := make([]string, 0, record.Len())
		for j, fieldNode := range record.Elements() {
			lit, ok := fieldNode.(*ast.LiteralNode)
			if !ok {
				return nil, fmt.Errorf("record %d field %d: expected *ast.LiteralNode, got %T", i, j, fieldNode)
			}
			fields = append(fields, literalString(lit))
		}
		records = append(records, fields)
	}
	return records, nil
}

func literalString(lit *ast.LiteralNode) string {
	switch v := lit.Value().(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
