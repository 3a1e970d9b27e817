//go:build cgo

package finder

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return true
}

// Parser wraps a tree-sitter parser configured for PHP. A Parser is not safe
// for concurrent use; finders create one per Find call.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new PHP parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(php.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source and returns the root node. A tree containing syntax
// errors is rejected: rewriting around an error node could land edits in
// the wrong place.
func (p *Parser) Parse(ctx context.Context, source []byte) (*sitter.Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, parseError("tree-sitter could not parse source", err)
	}
	if tree == nil {
		return nil, parseError("tree-sitter returned no tree", nil)
	}

	root := tree.RootNode()
	if root == nil {
		return nil, parseError("tree-sitter returned an empty tree", nil)
	}
	if root.HasError() {
		if errNode := firstError(root); errNode != nil {
			return nil, parseError("syntax error", nil).WithDetails(map[string]int{
				"line":   int(errNode.StartPoint().Row) + 1,
				"column": int(errNode.StartPoint().Column) + 1,
			})
		}
		return nil, parseError("syntax error", nil)
	}
	return root, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

// content returns the source text covered by node.
func content(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// walk visits node and its named descendants in document order. Returning
// false from visit skips the node's children.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), visit)
	}
}

// instanceFor builds an Instance spanning node.
func instanceFor(node *sitter.Node, symbol string) Instance {
	return Instance{
		Start:  int(node.StartByte()),
		End:    int(node.EndByte()) - 1,
		Line:   int(node.StartPoint().Row) + 1,
		Symbol: symbol,
	}
}
