package symbols

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/lang"
)

// Role is the inferred meaning of an identifier occurrence.
type Role string

const (
	RoleFunction  Role = "function"
	RoleClass     Role = "class"
	RoleParameter Role = "parameter"
	RoleVariable  Role = "variable"
	RoleField     Role = "field"
	RoleImport    Role = "import"
)

// Classification is the result of classifying one identifier.
type Classification struct {
	Role         Role `json:"role"`
	IsDefinition bool `json:"is_definition"`
	IsWrite      bool `json:"is_write"`
}

// writeFields name the slots of an assignment or declaration that receive a value.
var writeFields = map[string]bool{
	"left":       true,
	"name":       true,
	"declarator": true,
	"pattern":    true,
}

// Classify infers an identifier's role from its immediate parent. Declarator
// wrappers (C function_declarator, Go expression_list) are looked through.
func Classify(node *tree_sitter.Node, language string) Classification {
	return classify(node, lang.ProfileFor(language))
}

func classify(node *tree_sitter.Node, p *lang.Profile) Classification {
	child := node
	parent := node.Parent()
	for parent != nil && p.IsDeclarator(parent.Kind()) {
		child = parent
		parent = parent.Parent()
	}
	if parent == nil {
		return Classification{Role: RoleVariable}
	}

	switch cat := p.Category(parent.Kind()); cat {
	case lang.Function:
		return Classification{Role: RoleFunction, IsDefinition: isNameSlot(parent, child, p)}
	case lang.Class, lang.Struct:
		return Classification{Role: RoleClass, IsDefinition: true}
	case lang.Parameter, lang.ParameterList:
		return Classification{Role: RoleParameter, IsDefinition: true}
	case lang.Assignment, lang.Declaration:
		left := isLeftSide(parent, child)
		return Classification{Role: RoleVariable, IsDefinition: left && cat == lang.Declaration, IsWrite: left}
	case lang.MemberAccess:
		return Classification{Role: RoleField}
	case lang.Import:
		return Classification{Role: RoleImport}
	case lang.Call:
		return Classification{Role: RoleFunction}
	case lang.Inheritance:
		return Classification{Role: RoleClass}
	}
	return Classification{Role: RoleVariable}
}

// isNameSlot reports whether child names the function rather than a
// parameter, receiver or return type.
func isNameSlot(fn, child *tree_sitter.Node, p *lang.Profile) bool {
	switch fieldNameOf(fn, child) {
	case "name", "declarator":
		return true
	case "":
		if fn.ChildByFieldName("name") != nil || fn.ChildByFieldName("declarator") != nil {
			return false
		}
		for i := uint(0); i < fn.NamedChildCount(); i++ {
			c := fn.NamedChild(i)
			if c != nil && p.Is(c.Kind(), lang.Identifier) {
				return c.Id() == child.Id()
			}
		}
	}
	return false
}

func isLeftSide(parent, child *tree_sitter.Node) bool {
	field := fieldNameOf(parent, child)
	if writeFields[field] {
		return true
	}
	return field == "" && firstNamedChild(parent, child) && parent.ChildByFieldName("left") == nil &&
		parent.ChildByFieldName("name") == nil
}
