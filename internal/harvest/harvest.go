// Package harvest turns a parsed file into normalized records: functions,
// classes, structs, calls, comments and parameter lists.
package harvest

import (
	"fmt"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/model"
	"github.com/DeusData/codeflow/internal/parser"
	"github.com/DeusData/codeflow/internal/symbols"
)

// Record is one harvested node. Node points into the Result's tree and is
// valid until Result.Close.
type Record struct {
	Category  lang.Category
	Kind      string
	Name      string
	StartLine int
	EndLine   int
	StartByte int
	EndByte   int
	Text      string
	Node      *tree_sitter.Node

	// Set on definitions; Parameters and ReturnType on functions only.
	Parameters string
	ReturnType string
	Comment    string
}

// Contains reports whether other lies within r's byte span.
func (r *Record) Contains(other *Record) bool {
	return other.StartByte >= r.StartByte && other.EndByte <= r.EndByte
}

// Result owns the parsed tree and every record taken from it.
type Result struct {
	Language lang.Language
	Profile  *lang.Profile
	Source   []byte

	Functions      []*Record
	Classes        []*Record
	Structs        []*Record
	Calls          []*Record
	Comments       []*Record
	ParameterLists []*Record
	// Definitions holds functions, classes and structs in source order.
	Definitions []*Record
	ByKind      map[string][]*Record

	Inheritance []symbols.Relation
	Occurrences []model.IdentifierOccurrence

	tree *tree_sitter.Tree
}

// Root returns the tree's root node.
func (r *Result) Root() *tree_sitter.Node {
	return r.tree.RootNode()
}

// Close releases the parse tree. Record nodes are invalid afterwards.
func (r *Result) Close() {
	if r.tree != nil {
		r.tree.Close()
		r.tree = nil
	}
}

// Harvest parses source with a pooled parser and harvests it. Unknown
// language ids are parsed with the C grammar.
func Harvest(source []byte, language string) (*Result, error) {
	return HarvestWith(nil, source, language)
}

// HarvestWith is Harvest using a caller-owned parser set. A nil set uses the
// shared pool.
func HarvestWith(set *parser.Set, source []byte, language string) (*Result, error) {
	p := lang.ProfileFor(language)
	var (
		tree *tree_sitter.Tree
		err  error
	)
	if set != nil {
		tree, err = set.Parse(p.Language, source)
	} else {
		tree, err = parser.Parse(p.Language, source)
	}
	if err != nil {
		return nil, fmt.Errorf("harvest %s: %w", p.Language, err)
	}
	r := &Result{
		Language: p.Language,
		Profile:  p,
		Source:   source,
		ByKind:   make(map[string][]*Record),
		tree:     tree,
	}
	r.collect()
	r.enrich()
	return r, nil
}

// collect makes the single traversal that fills every bucket.
func (r *Result) collect() {
	p := r.Profile
	lines := strings.Split(string(r.Source), "\n")
	parser.Walk(r.tree.RootNode(), func(n *tree_sitter.Node) bool {
		// Keyword tokens share kind names with definitions ("function",
		// "class"); only named nodes are constructs.
		if !n.IsNamed() {
			return true
		}
		kind := n.Kind()
		if p.IsImpl(kind) {
			r.Inheritance = append(r.Inheritance, symbols.ExtractInheritance(n, r.Source, string(p.Language))...)
		}
		switch cat := p.Category(kind); cat {
		case lang.Function:
			rec := r.record(n, cat)
			rec.Name = symbols.DefinitionName(n, r.Source, p)
			if rec.Name == "" {
				rec.Name = fmt.Sprintf("anonymous_%d", rec.StartLine)
			}
			r.Functions = append(r.Functions, rec)
			r.Definitions = append(r.Definitions, rec)
		case lang.Class, lang.Struct:
			if p.DefinitionNeedsBody && n.ChildByFieldName("body") == nil {
				return true
			}
			rec := r.record(n, cat)
			rec.Name = symbols.DefinitionName(n, r.Source, p)
			if rec.Name == "" {
				rec.Name = fmt.Sprintf("unknown_%d", rec.StartLine)
			}
			if cat == lang.Class {
				r.Classes = append(r.Classes, rec)
			} else {
				r.Structs = append(r.Structs, rec)
			}
			r.Definitions = append(r.Definitions, rec)
			r.Inheritance = append(r.Inheritance, symbols.ExtractInheritance(n, r.Source, string(p.Language))...)
		case lang.Call:
			rec := r.record(n, cat)
			rec.Name = calleeName(n, r.Source)
			r.Calls = append(r.Calls, rec)
		case lang.Comment:
			r.Comments = append(r.Comments, r.record(n, cat))
		case lang.ParameterList:
			r.ParameterLists = append(r.ParameterLists, r.record(n, cat))
		case lang.Identifier:
			if occ, ok := symbols.Occurrence(n, r.Source, lines, p, ""); ok {
				r.Occurrences = append(r.Occurrences, occ)
				return false
			}
		}
		return true
	})
}

func (r *Result) record(n *tree_sitter.Node, cat lang.Category) *Record {
	rec := &Record{
		Category:  cat,
		Kind:      n.Kind(),
		StartLine: parser.Line(n),
		EndLine:   parser.EndLine(n),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		Text:      parser.NodeText(n, r.Source),
		Node:      n,
	}
	r.ByKind[rec.Kind] = append(r.ByKind[rec.Kind], rec)
	return rec
}

// enrich attaches leading comments to every definition and the signature
// parts to functions.
func (r *Result) enrich() {
	commentsByEnd := make(map[int]*Record, len(r.Comments))
	for _, c := range r.Comments {
		commentsByEnd[c.EndLine] = c
	}
	for _, d := range r.Definitions {
		d.Comment = leadingComment(d.StartLine, commentsByEnd)
		if d.Comment == "" && r.Language == lang.Python {
			d.Comment = pythonDocstring(d.Node, r.Source)
		}
		if d.Category == lang.Function {
			d.Parameters = r.parametersOf(d)
			d.ReturnType = returnType(d.Node, r.Source, r.Profile)
		}
	}
}

// parametersOf prefers the function's own parameters field (a Go method's
// receiver list comes first) and otherwise takes the earliest parameter list
// inside the function's span.
func (r *Result) parametersOf(fn *Record) string {
	if params := fn.Node.ChildByFieldName("parameters"); params != nil && r.Profile.Is(params.Kind(), lang.ParameterList) {
		return normalizeSpace(parser.NodeText(params, r.Source))
	}
	i := sort.Search(len(r.ParameterLists), func(i int) bool {
		return r.ParameterLists[i].StartByte >= fn.StartByte
	})
	if i < len(r.ParameterLists) && fn.Contains(r.ParameterLists[i]) {
		return normalizeSpace(r.ParameterLists[i].Text)
	}
	return ""
}

// Entities converts the definitions into persisted entities. Symbols that
// collide on (symbol, start_line) get a numeric suffix.
func (r *Result) Entities(project, filename string) []model.Entity {
	out := make([]model.Entity, 0, len(r.Definitions))
	seen := make(map[model.Key]int, len(r.Definitions))
	for _, d := range r.Definitions {
		start, end := d.Node.StartPosition(), d.Node.EndPosition()
		text := parser.TextAt(r.Source, d.StartLine, d.EndLine, int(start.Column), int(end.Column))
		e := model.Entity{
			Project:    project,
			Symbol:     d.Name,
			Kind:       entityKind(d.Category),
			Language:   string(r.Language),
			Filename:   filename,
			StartLine:  d.StartLine,
			EndLine:    d.EndLine,
			StartByte:  d.StartByte,
			EndByte:    d.EndByte,
			Source:     text,
			Comment:    d.Comment,
			Parameters: d.Parameters,
			ReturnType: d.ReturnType,
			SourceHash: HashSource(text),
		}
		key := e.Key()
		if n := seen[key]; n > 0 {
			e.Symbol = fmt.Sprintf("%s_%d", d.Name, n+1)
		}
		seen[key]++
		out = append(out, e)
	}
	return out
}

// CallSites returns the calls with the comment on the line above or on the
// same line, if any.
func (r *Result) CallSites(filename string) []model.CallSite {
	byLine := make(map[int]*Record, len(r.Comments))
	for _, c := range r.Comments {
		byLine[c.EndLine] = c
	}
	out := make([]model.CallSite, 0, len(r.Calls))
	for _, c := range r.Calls {
		if c.Name == "" {
			continue
		}
		site := model.CallSite{
			Filename:  filename,
			Callee:    c.Name,
			Line:      c.StartLine,
			StartByte: c.StartByte,
			EndByte:   c.EndByte,
		}
		if cm, ok := byLine[c.StartLine-1]; ok {
			site.Comment = cleanComment(cm.Text)
		} else if cm, ok := byLine[c.StartLine]; ok && cm.StartByte > c.StartByte {
			site.Comment = cleanComment(cm.Text)
		}
		out = append(out, site)
	}
	return out
}

// InheritanceEdges returns the relations as unresolved edges.
func (r *Result) InheritanceEdges(project, filename string) []model.InheritanceEdge {
	out := make([]model.InheritanceEdge, 0, len(r.Inheritance))
	for _, rel := range r.Inheritance {
		out = append(out, model.InheritanceEdge{
			Project:      project,
			Filename:     filename,
			ChildSymbol:  rel.Child,
			ParentSymbol: rel.Parent,
			Kind:         string(rel.Kind),
			Line:         rel.Line,
		})
	}
	return out
}

// OccurrencesIn returns the identifier occurrences stamped with filename.
func (r *Result) OccurrencesIn(filename string) []model.IdentifierOccurrence {
	out := make([]model.IdentifierOccurrence, len(r.Occurrences))
	for i, o := range r.Occurrences {
		o.Filename = filename
		out[i] = o
	}
	return out
}

// EnclosingFunction returns the smallest function record covering
// [startLine, endLine], or nil.
func (r *Result) EnclosingFunction(startLine, endLine int) *Record {
	var best *Record
	for _, fn := range r.Functions {
		if fn.StartLine > startLine || fn.EndLine < endLine {
			continue
		}
		if best == nil || fn.EndByte-fn.StartByte < best.EndByte-best.StartByte {
			best = fn
		}
	}
	return best
}

// FunctionAt returns the first function starting exactly on line, or nil.
func (r *Result) FunctionAt(line int) *Record {
	for _, fn := range r.Functions {
		if fn.StartLine == line {
			return fn
		}
	}
	return nil
}

func entityKind(c lang.Category) string {
	switch c {
	case lang.Class:
		return model.KindClass
	case lang.Struct:
		return model.KindStruct
	}
	return model.KindFunction
}

// calleeFields are tried in order to find what a call invokes.
var calleeFields = []string{"function", "method", "name", "macro", "constructor", "type"}

func calleeName(n *tree_sitter.Node, source []byte) string {
	for _, f := range calleeFields {
		if c := n.ChildByFieldName(f); c != nil {
			return lastSegment(parser.NodeText(c, source))
		}
	}
	if c := n.NamedChild(0); c != nil {
		return lastSegment(parser.NodeText(c, source))
	}
	return ""
}

// lastSegment reduces a callee expression to its final name:
// "fmt.Println" -> "Println", "a->b" -> "b", "Foo::new" -> "new".
func lastSegment(text string) string {
	if i := strings.IndexAny(text, "(<"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if i := strings.LastIndexAny(text, ".:>"); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "new "))
	if strings.ContainsAny(text, " \t\n") {
		return ""
	}
	return text
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
