package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/parser"
)

func parse(t *testing.T, l lang.Language, src string) *tree_sitter.Tree {
	t.Helper()
	tree, err := parser.Parse(l, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

// findKind returns the first node of kind in pre-order.
func findKind(root *tree_sitter.Node, kind string) *tree_sitter.Node {
	var found *tree_sitter.Node
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == kind {
			found = n
			return false
		}
		return true
	})
	return found
}

// findIdent returns the nth identifier-category node whose text is name.
func findIdent(root *tree_sitter.Node, src string, p *lang.Profile, name string, nth int) *tree_sitter.Node {
	var found *tree_sitter.Node
	seen := 0
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if p.Is(n.Kind(), lang.Identifier) && parser.NodeText(n, []byte(src)) == name {
			if seen == nth {
				found = n
				return false
			}
			seen++
		}
		return true
	})
	return found
}

func parents(rels []Relation) map[string]lang.RelationKind {
	out := map[string]lang.RelationKind{}
	for _, r := range rels {
		out[r.Parent] = r.Kind
	}
	return out
}

func TestExtractInheritance(t *testing.T) {
	tests := []struct {
		name  string
		lang  lang.Language
		src   string
		kind  string
		child string
		want  map[string]lang.RelationKind
	}{
		{
			name:  "python bases skip keyword arguments",
			lang:  lang.Python,
			src:   "class Repo(Base, abc.ABC, metaclass=Meta):\n    pass\n",
			kind:  "class_definition",
			child: "Repo",
			want:  map[string]lang.RelationKind{"Base": lang.Extends, "abc.ABC": lang.Extends},
		},
		{
			name:  "java extends and implements",
			lang:  lang.Java,
			src:   "class A extends B<String> implements I, J {}",
			kind:  "class_declaration",
			child: "A",
			want:  map[string]lang.RelationKind{"B": lang.Extends, "I": lang.Implements, "J": lang.Implements},
		},
		{
			name:  "typescript heritage",
			lang:  lang.TypeScript,
			src:   "class A extends B implements C {}",
			kind:  "class_declaration",
			child: "A",
			want:  map[string]lang.RelationKind{"B": lang.Extends, "C": lang.Implements},
		},
		{
			name:  "csharp interface prefix",
			lang:  lang.CSharp,
			src:   "class Repo : BaseRepo, IDisposable {}",
			kind:  "class_declaration",
			child: "Repo",
			want:  map[string]lang.RelationKind{"BaseRepo": lang.Extends, "IDisposable": lang.Implements},
		},
		{
			name:  "cpp base clause",
			lang:  lang.CPP,
			src:   "class Dog : public Animal, private Named {};",
			kind:  "class_specifier",
			child: "Dog",
			want:  map[string]lang.RelationKind{"Animal": lang.Extends, "Named": lang.Extends},
		},
		{
			name:  "ruby superclass",
			lang:  lang.Ruby,
			src:   "class Dog < Animal\nend\n",
			kind:  "class",
			child: "Dog",
			want:  map[string]lang.RelationKind{"Animal": lang.Extends},
		},
		{
			name:  "php base and interfaces",
			lang:  lang.PHP,
			src:   "<?php\nclass Dog extends Animal implements Pet {}\n",
			kind:  "class_declaration",
			child: "Dog",
			want:  map[string]lang.RelationKind{"Animal": lang.Extends, "Pet": lang.Implements},
		},
		{
			name:  "go embedding",
			lang:  lang.Go,
			src:   "package p\n\ntype S struct {\n\tBase\n\t*Other\n\tname string\n}\n",
			kind:  "struct_type",
			child: "S",
			want:  map[string]lang.RelationKind{"Base": lang.Embeds, "Other": lang.Embeds},
		},
		{
			name:  "rust impl trait for type",
			lang:  lang.Rust,
			src:   "struct Point;\nimpl Display for Point {}\n",
			kind:  "impl_item",
			child: "Point",
			want:  map[string]lang.RelationKind{"Display": lang.Implements},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.lang, tt.src)
			node := findKind(tree.RootNode(), tt.kind)
			require.NotNil(t, node, "no %s node", tt.kind)

			rels := ExtractInheritance(node, []byte(tt.src), string(tt.lang))
			assert.Equal(t, tt.want, parents(rels))
			for _, r := range rels {
				assert.Equal(t, tt.child, r.Child)
			}
		})
	}
}

func TestInherentImplHasNoRelation(t *testing.T) {
	src := "impl Point { fn x(&self) {} }"
	tree := parse(t, lang.Rust, src)
	node := findKind(tree.RootNode(), "impl_item")
	require.NotNil(t, node)
	assert.Empty(t, ExtractInheritance(node, []byte(src), "rust"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		lang  lang.Language
		src   string
		ident string
		nth   int
		want  Classification
	}{
		{"c function name", lang.C, "int add(int a, int b) { return a + b; }", "add", 0,
			Classification{Role: RoleFunction, IsDefinition: true}},
		{"c parameter", lang.C, "int add(int a, int b) { return a + b; }", "a", 0,
			Classification{Role: RoleParameter, IsDefinition: true}},
		{"c parameter read", lang.C, "int add(int a, int b) { return a + b; }", "a", 1,
			Classification{Role: RoleVariable}},
		{"python assignment left", lang.Python, "x = y\n", "x", 0,
			Classification{Role: RoleVariable, IsWrite: true}},
		{"python assignment right", lang.Python, "x = y\n", "y", 0,
			Classification{Role: RoleVariable}},
		{"python def name", lang.Python, "def run(a):\n    pass\n", "run", 0,
			Classification{Role: RoleFunction, IsDefinition: true}},
		{"python parameter", lang.Python, "def run(a):\n    pass\n", "a", 0,
			Classification{Role: RoleParameter, IsDefinition: true}},
		{"python class", lang.Python, "class Repo:\n    pass\n", "Repo", 0,
			Classification{Role: RoleClass, IsDefinition: true}},
		{"js call", lang.JavaScript, "foo(1);", "foo", 0,
			Classification{Role: RoleFunction}},
		{"js declaration", lang.JavaScript, "let total = 0;", "total", 0,
			Classification{Role: RoleVariable, IsDefinition: true, IsWrite: true}},
		{"go short var", lang.Go, "package p\n\nfunc f() {\n\tn := 1\n\t_ = n\n}\n", "n", 0,
			Classification{Role: RoleVariable, IsDefinition: true, IsWrite: true}},
		{"java import", lang.Java, "import java.util.List;", "List", 0,
			Classification{Role: RoleImport}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.lang, tt.src)
			p := lang.ForLanguage(tt.lang)
			node := findIdent(tree.RootNode(), tt.src, p, tt.ident, tt.nth)
			require.NotNil(t, node, "identifier %q #%d not found", tt.ident, tt.nth)
			assert.Equal(t, tt.want, Classify(node, string(tt.lang)))
		})
	}
}

func TestDefinitionName(t *testing.T) {
	tests := []struct {
		name string
		lang lang.Language
		src  string
		kind string
		want string
	}{
		{"c pointer return", lang.C, "char *make_name(int n) { return 0; }", "function_definition", "make_name"},
		{"cpp qualified", lang.CPP, "int Foo::bar() { return 1; }", "function_definition", "bar"},
		{"js arrow from declarator", lang.JavaScript, "const handler = (e) => e;", "arrow_function", "handler"},
		{"js member assignment", lang.JavaScript, "obj.run = function() {};", "function_expression", "run"},
		{"go struct from type spec", lang.Go, "package p\n\ntype Node struct{}\n", "struct_type", "Node"},
		{"c typedef struct", lang.C, "typedef struct { int x; } Point;", "struct_specifier", "Point"},
		{"lua dotted", lang.Lua, "function M.util(x) end", "function_declaration", "util"},
		{"kotlin unfielded", lang.Kotlin, "fun greet(name: String) {}", "function_declaration", "greet"},
		{"anonymous callback", lang.JavaScript, "run(function() {});", "function_expression", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.lang, tt.src)
			node := findKind(tree.RootNode(), tt.kind)
			require.NotNil(t, node, "no %s node", tt.kind)
			assert.Equal(t, tt.want, DefinitionName(node, []byte(tt.src), lang.ForLanguage(tt.lang)))
		})
	}
}

func TestOccurrences(t *testing.T) {
	src := "def area(r):\n    pi = 3.14\n    return pi * r * r\n"
	tree := parse(t, lang.Python, src)
	occ := Occurrences(tree.RootNode(), []byte(src), "python", "geo.py")

	var writes, defs int
	for _, o := range occ {
		assert.Equal(t, "geo.py", o.Filename)
		if o.IsWrite {
			writes++
		}
		if o.IsDefinition {
			defs++
		}
	}
	require.Len(t, occ, 6)
	assert.Equal(t, 1, writes)
	assert.Equal(t, 2, defs)
	assert.Equal(t, "def area(r):", occ[0].Context)
	assert.Equal(t, 4, occ[0].StartColumn)
}

func TestCleanTypeName(t *testing.T) {
	assert.Equal(t, "List", CleanTypeName("List<String>"))
	assert.Equal(t, "Base", CleanTypeName("Base()"))
	assert.Equal(t, "Other", CleanTypeName("*Other"))
	assert.Equal(t, "Foo", CleanTypeName("Foo[Int]"))
}
