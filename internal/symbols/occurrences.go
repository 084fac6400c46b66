package symbols

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/model"
	"github.com/DeusData/codeflow/internal/parser"
)

// Occurrences classifies every identifier under root.
func Occurrences(root *tree_sitter.Node, source []byte, language, filename string) []model.IdentifierOccurrence {
	p := lang.ProfileFor(language)
	lines := strings.Split(string(source), "\n")
	var out []model.IdentifierOccurrence
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if occ, ok := Occurrence(n, source, lines, p, filename); ok {
			out = append(out, occ)
			return false
		}
		return true
	})
	return out
}

// Occurrence classifies n when it is an identifier. Identifiers nested in
// another identifier kind (PHP variable_name > name) are reported once, at
// the outer node.
func Occurrence(n *tree_sitter.Node, source []byte, lines []string, p *lang.Profile, filename string) (model.IdentifierOccurrence, bool) {
	if !n.IsNamed() || !p.Is(n.Kind(), lang.Identifier) {
		return model.IdentifierOccurrence{}, false
	}
	if parent := n.Parent(); parent != nil && p.Is(parent.Kind(), lang.Identifier) {
		return model.IdentifierOccurrence{}, false
	}
	text := parser.NodeText(n, source)
	if text == "" || p.IsKeyword(text) {
		return model.IdentifierOccurrence{}, false
	}
	c := classify(n, p)
	line := parser.Line(n)
	var context string
	if line-1 < len(lines) {
		context = strings.TrimSpace(lines[line-1])
	}
	return model.IdentifierOccurrence{
		Symbol:       text,
		Role:         string(c.Role),
		IsDefinition: c.IsDefinition,
		IsWrite:      c.IsWrite,
		Filename:     filename,
		Line:         line,
		StartColumn:  int(n.StartPosition().Column),
		EndColumn:    int(n.EndPosition().Column),
		Context:      context,
	}, true
}
