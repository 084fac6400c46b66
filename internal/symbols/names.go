// Package symbols classifies identifiers and reads names and inheritance off
// definition nodes.
package symbols

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/parser"
)

// parentNameFields are read off the parent when a definition has no name of
// its own (anonymous functions, Go struct types, typedef'd structs).
var parentNameFields = []string{"name", "key", "left", "pattern", "property", "declarator"}

// DefinitionName returns the symbol a function, class or struct node defines,
// or "" when none can be found.
func DefinitionName(n *tree_sitter.Node, source []byte, p *lang.Profile) string {
	if name := n.ChildByFieldName("name"); name != nil {
		if s := cleanName(parser.NodeText(name, source)); s != "" {
			return s
		}
	}
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		if s := declaratorName(parser.NodeText(decl, source)); s != "" {
			return s
		}
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() || n.FieldNameForChild(uint32(i)) != "" {
			continue
		}
		if p.Is(child.Kind(), lang.Identifier) {
			return cleanName(parser.NodeText(child, source))
		}
	}
	return nameFromParent(n, source)
}

func nameFromParent(n *tree_sitter.Node, source []byte) string {
	parent := n.Parent()
	for parent != nil && (parent.Kind() == "expression_list" || parent.Kind() == "parenthesized_expression") {
		parent = parent.Parent()
	}
	if parent == nil {
		return ""
	}
	for _, field := range parentNameFields {
		f := parent.ChildByFieldName(field)
		if f == nil || f.Id() == n.Id() {
			continue
		}
		text := parser.NodeText(f, source)
		if field == "declarator" {
			text = declaratorName(text)
		}
		if s := cleanName(text); s != "" {
			return s
		}
	}
	return ""
}

// declaratorName cuts a C-family declarator down to its identifier:
// "*make_node(int v)" -> "make_node", "Foo::bar() const" -> "bar".
func declaratorName(text string) string {
	if i := strings.Index(text, "("); i >= 0 {
		text = text[:i]
	}
	text = strings.Trim(strings.TrimSpace(text), "*& \t")
	if i := strings.LastIndex(text, "::"); i >= 0 {
		text = text[i+2:]
	}
	return strings.TrimSpace(text)
}

// cleanName keeps the last segment of a dotted or method-style name
// ("M.util.run" or "M:run" -> "run") and drops surrounding whitespace.
func cleanName(text string) string {
	text = strings.TrimSpace(text)
	if strings.ContainsAny(text, " \t\n(") {
		return ""
	}
	if i := strings.LastIndexAny(text, ".:"); i >= 0 && i < len(text)-1 {
		text = text[i+1:]
	}
	return text
}

// CleanTypeName strips generic arguments, constructor arguments and pointer
// marks from a type reference: "List<String>" -> "List", "Base()" -> "Base".
func CleanTypeName(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "<[("); i > 0 {
		text = text[:i]
	}
	text = strings.TrimLeft(text, "*&")
	return strings.TrimSpace(text)
}

// fieldNameOf returns the grammar field under which child hangs off parent.
func fieldNameOf(parent, child *tree_sitter.Node) string {
	for i := uint(0); i < parent.ChildCount(); i++ {
		c := parent.Child(i)
		if c != nil && c.Id() == child.Id() {
			return parent.FieldNameForChild(uint32(i))
		}
	}
	return ""
}

// firstNamedChild reports whether child is parent's first named child.
func firstNamedChild(parent, child *tree_sitter.Node) bool {
	first := parent.NamedChild(0)
	return first != nil && first.Id() == child.Id()
}
