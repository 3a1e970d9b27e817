//go:build cgo

package finder

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// statementLists are node types whose children form a statement sequence, so
// removing one statement leaves the surrounding code intact.
var statementLists = map[string]bool{
	"program":            true,
	"compound_statement": true,
	"colon_block":        true,
	"case_statement":     true,
	"default_statement":  true,
}

// Find implements Finder.
func (d *DebugCalls) Find(ctx context.Context, src []byte) ([]Instance, error) {
	root, err := NewParser().Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	var instances []Instance
	walk(root, func(node *sitter.Node) bool {
		if node.Type() != "expression_statement" {
			return true
		}
		fn, ok := d.debugCall(node, src)
		if !ok {
			return true
		}

		inst := instanceFor(node, fn)
		if parent := node.Parent(); parent != nil && !statementLists[parent.Type()] {
			inst.Embedded = true
		}
		instances = append(instances, inst)
		// the whole statement is consumed; nothing inside it can be reported
		return false
	})

	return instances, nil
}

// debugCall reports whether stmt is a bare call to a targeted function and
// returns the function name as written.
func (d *DebugCalls) debugCall(stmt *sitter.Node, src []byte) (string, bool) {
	if stmt.NamedChildCount() == 0 {
		return "", false
	}
	call := stmt.NamedChild(0)
	if call == nil || call.Type() != "function_call_expression" {
		return "", false
	}

	fnNode := call.ChildByFieldName("function")
	if fnNode == nil {
		fnNode = call.NamedChild(0)
	}
	if fnNode == nil || (fnNode.Type() != "name" && fnNode.Type() != "qualified_name") {
		return "", false
	}

	name, _, ok := globalName(content(fnNode, src))
	if !ok || !d.functions[strings.ToLower(name)] {
		return "", false
	}
	return name, true
}
