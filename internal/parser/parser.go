package parser

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_c_sharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_scala "github.com/tree-sitter/tree-sitter-scala/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	tree_sitter_kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	tree_sitter_lua "github.com/tree-sitter-grammars/tree-sitter-lua/bindings/go"

	"github.com/DeusData/codeflow/internal/lang"
)

// ErrUnsupportedLanguage is returned when no grammar is linked for a language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

var (
	languagesOnce sync.Once
	languages     map[lang.Language]*tree_sitter.Language
	parserPools   map[lang.Language]*sync.Pool
)

func initLanguages() {
	languagesOnce.Do(func() {
		languages = map[lang.Language]*tree_sitter.Language{
			lang.C:          tree_sitter.NewLanguage(tree_sitter_c.Language()),
			lang.CPP:        tree_sitter.NewLanguage(tree_sitter_cpp.Language()),
			lang.CSharp:     tree_sitter.NewLanguage(tree_sitter_c_sharp.Language()),
			lang.Go:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
			lang.Java:       tree_sitter.NewLanguage(tree_sitter_java.Language()),
			lang.JavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
			lang.TypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			lang.TSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			lang.Python:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			lang.Rust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
			lang.Ruby:       tree_sitter.NewLanguage(tree_sitter_ruby.Language()),
			lang.PHP:        tree_sitter.NewLanguage(tree_sitter_php.LanguagePHPOnly()),
			lang.Kotlin:     tree_sitter.NewLanguage(tree_sitter_kotlin.Language()),
			lang.Lua:        tree_sitter.NewLanguage(tree_sitter_lua.Language()),
			lang.Scala:      tree_sitter.NewLanguage(tree_sitter_scala.Language()),
		}

		parserPools = make(map[lang.Language]*sync.Pool, len(languages))
		for l, tsLang := range languages {
			parserPools[l] = &sync.Pool{
				New: func() any {
					p := tree_sitter.NewParser()
					if err := p.SetLanguage(tsLang); err != nil {
						panic(fmt.Sprintf("set language: %v", err))
					}
					return p
				},
			}
		}
	})
}

// GetLanguage returns the tree-sitter Language for a lang.Language.
func GetLanguage(l lang.Language) (*tree_sitter.Language, error) {
	initLanguages()
	tsLang, ok := languages[l]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, l)
	}
	return tsLang, nil
}

// Parse parses source code into a tree-sitter AST Tree.
// The caller must call tree.Close() when done.
// Parsers are pooled per language via sync.Pool to avoid per-file allocation.
func Parse(l lang.Language, source []byte) (*tree_sitter.Tree, error) {
	initLanguages()

	pool, ok := parserPools[l]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, l)
	}

	p, _ := pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("failed to get parser for language %s", l)
	}
	tree := p.Parse(source, nil)
	pool.Put(p)

	if tree == nil {
		return nil, fmt.Errorf("parse failed for language %s", l)
	}
	return tree, nil
}

// Set holds one parser per language, created lazily. A Set is owned by a
// single goroutine; it is not safe for concurrent use.
type Set struct {
	parsers map[lang.Language]*tree_sitter.Parser
}

// NewSet returns an empty parser set.
func NewSet() *Set {
	return &Set{parsers: make(map[lang.Language]*tree_sitter.Parser)}
}

// Parse parses source with this set's parser for l.
func (s *Set) Parse(l lang.Language, source []byte) (*tree_sitter.Tree, error) {
	p, ok := s.parsers[l]
	if !ok {
		tsLang, err := GetLanguage(l)
		if err != nil {
			return nil, err
		}
		p = tree_sitter.NewParser()
		if err := p.SetLanguage(tsLang); err != nil {
			p.Close()
			return nil, fmt.Errorf("set language %s: %w", l, err)
		}
		s.parsers[l] = p
	}
	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed for language %s", l)
	}
	return tree, nil
}

// Close releases every parser in the set.
func (s *Set) Close() {
	for l, p := range s.parsers {
		p.Close()
		delete(s.parsers, l)
	}
}

// WalkFunc is called for each node during AST traversal.
// Return false to skip children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST in pre-order using a tree cursor, so memory stays
// proportional to tree depth.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	WalkPrePost(node, fn, nil)
}

// WalkPrePost traverses the AST calling enter before a node's children and
// leave after them. leave is also called for nodes whose children were skipped.
func WalkPrePost(node *tree_sitter.Node, enter WalkFunc, leave func(*tree_sitter.Node)) {
	if node == nil {
		return
	}
	cursor := node.Walk()
	defer cursor.Close()

	for {
		n := cursor.Node()
		descend := enter(n)
		if descend && cursor.GotoFirstChild() {
			continue
		}
		if leave != nil {
			leave(n)
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return
			}
			if leave != nil {
				leave(cursor.Node())
			}
			if cursor.Node().Id() == node.Id() {
				return
			}
		}
	}
}

// NodeText returns the text content of a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

// Line returns the 1-based start line of a node.
func Line(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// EndLine returns the 1-based end line of a node.
func EndLine(node *tree_sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// FirstLine returns the first non-empty line of text, trimmed.
func FirstLine(text string) string {
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

// TextAt extracts the source between two positions. Lines are 1-based and
// inclusive; columns are 0-based byte offsets within their line, with the end
// column exclusive. Out-of-range positions are clamped.
func TextAt(source []byte, startLine, endLine, startCol, endCol int) string {
	lines := strings.Split(string(source), "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
		endCol = len(lines[endLine-1])
	}
	if startLine > endLine {
		return ""
	}
	first, last := lines[startLine-1], lines[endLine-1]
	startCol = clamp(startCol, 0, len(first))
	endCol = clamp(endCol, 0, len(last))
	if startLine == endLine {
		if startCol >= endCol {
			return ""
		}
		return first[startCol:endCol]
	}
	var b strings.Builder
	b.WriteString(first[startCol:])
	for _, l := range lines[startLine : endLine-1] {
		b.WriteByte('\n')
		b.WriteString(l)
	}
	b.WriteByte('\n')
	b.WriteString(last[:endCol])
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
