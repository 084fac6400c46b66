package harvest

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/zeebo/xxh3"

	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/parser"
	"github.com/DeusData/codeflow/internal/symbols"
)

// returnType reads a function's declared return type using the profile's
// rule, falling back to the language's marker for untyped functions.
func returnType(fn *tree_sitter.Node, source []byte, p *lang.Profile) string {
	rule := p.ReturnType
	kind := fn.Kind()

	for _, k := range rule.ConstructorKinds {
		if k == kind {
			if owner := enclosingType(fn, p); owner != nil {
				return symbols.DefinitionName(owner, source, p)
			}
		}
	}

	for _, f := range rule.Fields {
		if t := fn.ChildByFieldName(f); t != nil {
			text := strings.TrimSpace(parser.NodeText(t, source))
			text = strings.TrimPrefix(text, "->")
			text = strings.TrimPrefix(text, ":")
			if text = normalizeSpace(text); text != "" {
				return text
			}
		}
	}

	if len(rule.ScanKinds) > 0 {
		if t := scanType(fn, source, p); t != "" {
			return t
		}
	}

	if marker, ok := rule.FallbackByKind[kind]; ok {
		return marker
	}
	return rule.Fallback
}

// scanType collects type-qualifying children that precede the body. C-family
// rules join them and append one "*" per pointer declarator.
func scanType(fn *tree_sitter.Node, source []byte, p *lang.Profile) string {
	rule := p.ReturnType
	scan := make(map[string]bool, len(rule.ScanKinds))
	for _, k := range rule.ScanKinds {
		scan[k] = true
	}

	var parts []string
	for i := uint(0); i < fn.ChildCount(); i++ {
		c := fn.Child(i)
		if c == nil {
			continue
		}
		if fn.FieldNameForChild(uint32(i)) == "body" || p.Is(c.Kind(), lang.Block) {
			break
		}
		if scan[c.Kind()] {
			parts = append(parts, normalizeSpace(parser.NodeText(c, source)))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if !rule.JoinScanned {
		return parts[len(parts)-1]
	}

	stars := 0
	for d := fn.ChildByFieldName("declarator"); d != nil && isAny(d.Kind(), rule.PointerKinds); d = d.ChildByFieldName("declarator") {
		stars++
	}
	return strings.Join(parts, " ") + strings.Repeat("*", stars)
}

func enclosingType(n *tree_sitter.Node, p *lang.Profile) *tree_sitter.Node {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		switch p.Category(cur.Kind()) {
		case lang.Class, lang.Struct:
			return cur
		}
	}
	return nil
}

// leadingComment returns the contiguous comment block that ends on the line
// just above startLine.
func leadingComment(startLine int, byEnd map[int]*Record) string {
	var block []string
	line := startLine - 1
	for {
		c, ok := byEnd[line]
		if !ok {
			break
		}
		block = append([]string{cleanComment(c.Text)}, block...)
		line = c.StartLine - 1
	}
	return strings.Join(block, "\n")
}

// cleanComment strips comment delimiters and leading decoration from each line.
func cleanComment(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		for _, prefix := range []string{"///", "//!", "//", "--", "#", "*"} {
			if strings.HasPrefix(l, prefix) {
				l = strings.TrimSpace(l[len(prefix):])
				break
			}
		}
		lines[i] = l
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// pythonDocstring extracts a PEP 257 docstring from a function or class body.
func pythonDocstring(node *tree_sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return cleanDocstring(parser.NodeText(str, source))
}

// cleanDocstring removes triple-quote delimiters and dedents continuation lines.
func cleanDocstring(s string) string {
	for _, delim := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, delim) && strings.HasSuffix(s, delim) && len(s) >= 6 {
			s = s[3 : len(s)-3]
			break
		}
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= 1 {
		return strings.TrimSpace(s)
	}
	minIndent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if indent := len(line) - len(trimmed); minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= minIndent {
				lines[i] = lines[i][minIndent:]
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// HashSource returns the xxh3 digest of an entity's text, used to tell
// changed entities apart on refresh.
func HashSource(text string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(text))
}

func isAny(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
