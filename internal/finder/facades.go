//go:build cgo

package finder

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Find implements Finder.
func (f *FacadeAliases) Find(ctx context.Context, src []byte) ([]Instance, error) {
	root, err := NewParser().Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	namespaced := false
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if child := root.NamedChild(i); child != nil && child.Type() == "namespace_definition" {
			namespaced = true
			break
		}
	}

	imported := importedNames(root, src)

	var instances []Instance
	walk(root, func(node *sitter.Node) bool {
		switch node.Type() {
		case "namespace_use_declaration":
			if importsFunctionOrConst(node) {
				return false
			}
			return true
		case "namespace_use_group":
			// names inside a group are relative to the group prefix
			return false
		case "namespace_use_clause":
			if inst, ok := f.aliasAt(firstNameChild(node), src, true); ok {
				instances = append(instances, inst)
			}
			return false
		case "scoped_call_expression", "class_constant_access_expression":
			scope := node.ChildByFieldName("scope")
			if scope == nil {
				scope = node.NamedChild(0)
			}
			if inst, ok := f.aliasAt(scope, src, !namespaced && !shadowed(scope, src, imported)); ok {
				instances = append(instances, inst)
			}
			// arguments may reference further aliases
			return true
		}
		return true
	})

	return instances, nil
}

// aliasAt reports an instance when node names a known alias. A leading
// separator always makes the name global; an unqualified name only counts
// when allowBare is set.
func (f *FacadeAliases) aliasAt(node *sitter.Node, src []byte, allowBare bool) (Instance, bool) {
	if node == nil || (node.Type() != "name" && node.Type() != "qualified_name") {
		return Instance{}, false
	}
	name, prefix, ok := globalName(content(node, src))
	if !ok {
		return Instance{}, false
	}
	if prefix == 0 && !allowBare {
		return Instance{}, false
	}
	if _, known := f.Resolve(name); !known {
		return Instance{}, false
	}

	inst := instanceFor(node, name)
	inst.Start += prefix
	return inst, true
}

func firstNameChild(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && (child.Type() == "name" || child.Type() == "qualified_name") {
			return child
		}
	}
	return nil
}

// importsFunctionOrConst reports whether a use declaration imports functions
// or constants rather than classes.
func importsFunctionOrConst(decl *sitter.Node) bool {
	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		if t := child.Type(); t == "function" || t == "const" {
			return true
		}
	}
	return false
}

// importedNames maps the lower-cased short names bound by the file's class
// imports to whether the import is of the global name itself (`use Event;`).
func importedNames(root *sitter.Node, src []byte) map[string]bool {
	bound := map[string]bool{}
	walk(root, func(node *sitter.Node) bool {
		switch node.Type() {
		case "namespace_use_declaration":
			return !importsFunctionOrConst(node)
		case "namespace_use_clause", "namespace_use_group_clause":
			name := firstNameChild(node)
			if name == nil {
				return false
			}
			imported := strings.TrimPrefix(content(name, src), `\`)
			short := imported[strings.LastIndex(imported, `\`)+1:]
			global := node.Type() == "namespace_use_clause" && !strings.Contains(imported, `\`)
			if alias := aliasName(node, src); alias != "" {
				short = alias
				global = global && strings.EqualFold(alias, imported)
			}
			key := strings.ToLower(short)
			if prev, seen := bound[key]; seen {
				global = global && prev
			}
			bound[key] = global
			return false
		}
		return true
	})
	return bound
}

// shadowed reports whether scope is an unqualified name that a use clause
// binds to some class other than the global one of the same name.
func shadowed(scope *sitter.Node, src []byte, imported map[string]bool) bool {
	if scope == nil || scope.Type() != "name" {
		return false
	}
	global, bound := imported[strings.ToLower(content(scope, src))]
	return bound && !global
}

func aliasName(clause *sitter.Node, src []byte) string {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		if child == nil || child.Type() != "namespace_aliasing_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if n := child.NamedChild(j); n != nil && n.Type() == "name" {
				return content(n, src)
			}
		}
	}
	return ""
}
