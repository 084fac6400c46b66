package symbols

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/parser"
)

// Relation is one child-to-parent type relationship. Parent is the symbol as
// written; resolving it to an entity happens when edges are built.
type Relation struct {
	Child  string            `json:"child"`
	Parent string            `json:"parent"`
	Kind   lang.RelationKind `json:"kind"`
	Line   int               `json:"line"`
}

var interfaceName = regexp.MustCompile(`^I[A-Z]`)

// ExtractInheritance returns the parents a class, struct or impl node names.
// Keywords the grammar exposes as identifiers are dropped; duplicates are
// reported once.
func ExtractInheritance(node *tree_sitter.Node, source []byte, language string) []Relation {
	p := lang.ProfileFor(language)
	if p.IsImpl(node.Kind()) {
		return implRelation(node, source)
	}
	child := DefinitionName(node, source, p)
	if child == "" {
		return nil
	}

	c := &collector{p: p, source: source, child: child, line: parser.Line(node), seen: map[string]bool{}}
	switch p.Inherit {
	case lang.InheritEmbedding:
		c.embedded(node)
	default:
		c.clauses(node, 0)
	}
	return c.out
}

type collector struct {
	p      *lang.Profile
	source []byte
	child  string
	line   int
	seen   map[string]bool
	out    []Relation
}

func (c *collector) add(parent string, kind lang.RelationKind) {
	parent = CleanTypeName(parent)
	if parent == "" || parent == c.child || c.p.IsKeyword(parent) || c.seen[parent] {
		return
	}
	if c.p.InterfacePrefix && kind == lang.Extends && interfaceName.MatchString(parent) {
		kind = lang.Implements
	}
	c.seen[parent] = true
	c.out = append(c.out, Relation{Child: c.child, Parent: parent, Kind: kind, Line: c.line})
}

// clauses scans a type definition's header for inheritance clauses and
// base-list fields, looking one wrapper level deep (Kotlin
// delegation_specifiers). The body is never entered.
func (c *collector) clauses(node *tree_sitter.Node, depth int) {
	for _, f := range c.p.InheritanceFields {
		if bases := node.ChildByFieldName(f); bases != nil {
			c.baseList(bases)
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		ch := node.Child(i)
		if ch == nil || !ch.IsNamed() {
			continue
		}
		field := node.FieldNameForChild(uint32(i))
		if field == "body" || c.p.Is(ch.Kind(), lang.Block) || isFieldIn(field, c.p.InheritanceFields) {
			continue
		}
		switch {
		case c.p.Is(ch.Kind(), lang.Inheritance):
			c.clause(ch, c.p.RelationFor(ch.Kind()))
		case depth == 0 && !c.p.Is(ch.Kind(), lang.Identifier) && !strings.HasSuffix(ch.Kind(), "body"):
			c.clauses(ch, depth+1)
		}
	}
}

// baseList reads a Python-style argument list of base classes.
func (c *collector) baseList(n *tree_sitter.Node) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		ch := n.NamedChild(i)
		if ch == nil || ch.Kind() == "keyword_argument" || c.p.Is(ch.Kind(), lang.Comment) {
			continue
		}
		if c.p.Is(ch.Kind(), lang.Identifier) || c.p.IsQualifiedName(ch.Kind()) {
			c.add(parser.NodeText(ch, c.source), lang.Extends)
		}
	}
}

// clause collects the type names inside one clause. A nested clause
// (TypeScript class_heritage > implements_clause) switches the kind.
func (c *collector) clause(n *tree_sitter.Node, kind lang.RelationKind) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		ch := n.NamedChild(i)
		if ch == nil {
			continue
		}
		k := ch.Kind()
		switch {
		case c.p.Is(k, lang.Inheritance):
			c.clause(ch, c.p.RelationFor(k))
		case c.p.IsQualifiedName(k), c.p.Is(k, lang.Identifier):
			c.add(parser.NodeText(ch, c.source), kind)
		case strings.Contains(k, "argument"), c.p.Is(k, lang.Comment):
		default:
			c.clause(ch, kind)
		}
	}
}

// embedded reads Go struct embedding (a field with a type and no name) and
// embedded interfaces.
func (c *collector) embedded(node *tree_sitter.Node) {
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "field_declaration":
			if n.ChildByFieldName("name") == nil {
				if t := n.ChildByFieldName("type"); t != nil {
					c.add(parser.NodeText(t, c.source), lang.Embeds)
				}
			}
			return false
		case "type_elem", "constraint_elem":
			c.add(parser.NodeText(n, c.source), lang.Embeds)
			return false
		case "method_elem", "method_spec", "struct_type", "interface_type":
			return n.Id() == node.Id()
		}
		return true
	})
}

// implRelation handles Rust "impl Trait for Type". Inherent impls carry no
// relationship.
func implRelation(node *tree_sitter.Node, source []byte) []Relation {
	trait := node.ChildByFieldName("trait")
	typ := node.ChildByFieldName("type")
	if trait == nil || typ == nil {
		return nil
	}
	child := CleanTypeName(parser.NodeText(typ, source))
	parent := CleanTypeName(parser.NodeText(trait, source))
	if child == "" || parent == "" {
		return nil
	}
	return []Relation{{Child: child, Parent: parent, Kind: lang.Implements, Line: parser.Line(node)}}
}

func isFieldIn(field string, fields []string) bool {
	if field == "" {
		return false
	}
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
