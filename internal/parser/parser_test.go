package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/lang"
)

func TestParseGo(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}

func Add(a, b int) int {
	return a + b
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse Go: %v", err)
	}
	defer tree.Close()

	var funcCount int
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			funcCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_declarations, got %d", funcCount)
	}
}

func TestParseC(t *testing.T) {
	source := []byte(`#include <stdio.h>

struct node { int v; struct node *next; };

int add(int a, int b) { return a + b; }
`)
	tree, err := Parse(lang.C, source)
	require.NoError(t, err)
	defer tree.Close()

	kinds := map[string]int{}
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		kinds[n.Kind()]++
		return true
	})
	assert.Equal(t, 1, kinds["function_definition"])
	assert.Equal(t, 2, kinds["struct_specifier"])
	assert.Equal(t, 1, kinds["preproc_include"])
}

func TestAllLanguagesLoad(t *testing.T) {
	for _, l := range lang.AllLanguages() {
		if _, err := GetLanguage(l); err != nil {
			t.Errorf("GetLanguage(%s): %v", l, err)
		}
	}
}

// profileKinds lists every node kind a profile names, keyed by where it
// appears.
func profileKinds(p *lang.Profile) map[string][]string {
	out := map[string][]string{}
	v := reflect.ValueOf(*p)
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if strings.HasSuffix(f.Name, "Kinds") && f.Type.Kind() == reflect.Slice {
			out[f.Name] = v.Field(i).Interface().([]string)
		}
	}
	rt := p.ReturnType
	out["ReturnType.ScanKinds"] = rt.ScanKinds
	out["ReturnType.PointerKinds"] = rt.PointerKinds
	out["ReturnType.ConstructorKinds"] = rt.ConstructorKinds
	for kind := range rt.FallbackByKind {
		out["ReturnType.FallbackByKind"] = append(out["ReturnType.FallbackByKind"], kind)
	}
	for kind := range p.InheritanceClauses {
		out["InheritanceClauses"] = append(out["InheritanceClauses"], kind)
	}
	return out
}

func TestProfileKindsExistInGrammar(t *testing.T) {
	for _, l := range lang.AllLanguages() {
		t.Run(string(l), func(t *testing.T) {
			p := lang.ForLanguage(l)
			require.NotNil(t, p)
			tsLang, err := GetLanguage(l)
			require.NoError(t, err)
			for field, kinds := range profileKinds(p) {
				for _, kind := range kinds {
					assert.NotZero(t, tsLang.IdForNodeKind(kind, true), "%s lists %q, which the grammar never produces", field, kind)
				}
			}
		})
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	_, err := Parse(lang.Language("cobol"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
}

func TestWalkSkipsChildren(t *testing.T) {
	source := []byte(`def outer():
    def inner():
        pass
`)
	tree, err := Parse(lang.Python, source)
	require.NoError(t, err)
	defer tree.Close()

	var seen int
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_definition" {
			seen++
			return false
		}
		return true
	})
	assert.Equal(t, 1, seen, "inner definition must not be visited")
}

func TestWalkPrePostBalanced(t *testing.T) {
	source := []byte(`function f(a) { if (a) { return 1; } return 2; }`)
	tree, err := Parse(lang.JavaScript, source)
	require.NoError(t, err)
	defer tree.Close()

	var depth, maxDepth, enters, leaves int
	WalkPrePost(tree.RootNode(),
		func(n *tree_sitter.Node) bool {
			enters++
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
			return true
		},
		func(n *tree_sitter.Node) {
			leaves++
			depth--
		})
	assert.Equal(t, enters, leaves)
	assert.Equal(t, 0, depth)
	assert.Greater(t, maxDepth, 3)
}

func TestWalkSubtreeStaysInside(t *testing.T) {
	source := []byte("package main\n\nfunc A() { a() }\n\nfunc B() { b() }\n")
	tree, err := Parse(lang.Go, source)
	require.NoError(t, err)
	defer tree.Close()

	first := tree.RootNode().NamedChild(1)
	require.Equal(t, "function_declaration", first.Kind())

	var calls []string
	Walk(first, func(n *tree_sitter.Node) bool {
		if n.Kind() == "call_expression" {
			calls = append(calls, NodeText(n, source))
		}
		return true
	})
	assert.Equal(t, []string{"a()"}, calls)
}

func TestSetParse(t *testing.T) {
	s := NewSet()
	defer s.Close()

	for i := 0; i < 3; i++ {
		tree, err := s.Parse(lang.Rust, []byte("fn main() { println!(\"hi\"); }"))
		require.NoError(t, err)
		assert.Equal(t, "source_file", tree.RootNode().Kind())
		tree.Close()
	}
	_, err := s.Parse(lang.Language("cobol"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestNodeText(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				t.Error("function has no name node")
				return false
			}
			if name := NodeText(nameNode, source); name != "Hello" {
				t.Errorf("expected Hello, got %s", name)
			}
			if Line(n) != 3 || EndLine(n) != 5 {
				t.Errorf("lines = %d-%d, want 3-5", Line(n), EndLine(n))
			}
			return false
		}
		return true
	})
}

func TestTextAt(t *testing.T) {
	src := []byte("line one\nline two\nline three")
	tests := []struct {
		name                   string
		sl, el, sc, ec         int
		want                   string
	}{
		{"single line", 1, 1, 5, 8, "one"},
		{"multi line", 1, 2, 5, 4, "one\nline"},
		{"whole", 1, 3, 0, 10, "line one\nline two\nline three"},
		{"clamped end column", 2, 2, 0, 99, "line two"},
		{"clamped end line", 3, 9, 5, 0, "three"},
		{"inverted", 3, 1, 0, 0, ""},
		{"empty range", 2, 2, 4, 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextAt(src, tt.sl, tt.el, tt.sc, tt.ec))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "if (x) {", FirstLine("\n   if (x) {\n  y();\n}"))
	assert.Equal(t, "", FirstLine("  \n "))
}
