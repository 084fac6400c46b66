package cfg

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/harvest"
	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/parser"
	"github.com/DeusData/codeflow/internal/symbols"
)

const (
	defaultLabelWidth = 40
	minLabelWidth     = 30
	maxLabelWidth     = 50
)

type options struct {
	labelWidth int
}

// Option configures synthesis.
type Option func(*options)

// WithLabelWidth sets the display label width, clamped to [30, 50].
func WithLabelWidth(n int) Option {
	return func(o *options) {
		o.labelWidth = min(max(n, minLabelWidth), maxLabelWidth)
	}
}

type flow int

const (
	flowNormal flow = iota
	flowBreak
	flowContinue
)

// exit is a dangling edge waiting for its successor.
type exit struct {
	from  int
	label string
	flow  flow
}

func from(id int, label string) []exit {
	return []exit{{from: id, label: label}}
}

// builder holds the state of one synthesis call.
type builder struct {
	p       *lang.Profile
	source  []byte
	width   int
	g       *Graph
	nextID  int
	returns []int
}

// Synthesize builds the CFG of one function node. The node must come from a
// tree parsed with language's grammar.
func Synthesize(fn *tree_sitter.Node, source []byte, language string, opts ...Option) *Graph {
	o := options{labelWidth: defaultLabelWidth}
	for _, opt := range opts {
		opt(&o)
	}
	p := lang.ProfileFor(language)
	b := &builder{
		p:      p,
		source: source,
		width:  o.labelWidth,
		g: &Graph{
			Language:  string(p.Language),
			StartLine: parser.Line(fn),
			EndLine:   parser.EndLine(fn),
			Nodes:     []Node{},
			Edges:     []Edge{},
		},
	}

	name := symbols.DefinitionName(fn, source, p)
	if name == "" {
		name = fmt.Sprintf("anonymous_%d", parser.Line(fn))
	}
	b.g.Function = name

	start := b.node(KindStart, fn, name)
	out := b.functionBody(fn, from(start, ""))

	end := b.node(KindEnd, nil, "end")
	for _, e := range out {
		b.edge(e.from, end, e.label)
	}
	for _, r := range b.returns {
		b.edge(r, end, "")
	}
	b.elide()
	return b.g
}

// SynthesizeFromSource parses source and builds the CFG of the function that
// starts on startLine, or else the smallest function covering the range.
func SynthesizeFromSource(source []byte, language string, startLine, endLine int, opts ...Option) *Graph {
	r, err := harvest.Harvest(source, language)
	if err != nil {
		return failed(err)
	}
	defer r.Close()

	fn := r.FunctionAt(startLine)
	if fn == nil {
		fn = r.EnclosingFunction(startLine, endLine)
	}
	if fn == nil {
		return failed(fmt.Errorf("%w at lines %d-%d", ErrFunctionNotFound, startLine, endLine))
	}
	return Synthesize(fn.Node, source, language, opts...)
}

func (b *builder) functionBody(fn *tree_sitter.Node, in []exit) []exit {
	body := childByField(fn, b.p.Fields.Body)
	if body == nil {
		for _, c := range b.children(fn) {
			if b.p.Is(c.Kind(), lang.Block) {
				body = c
			}
		}
	}
	if body != nil {
		if expr := assignedExpression(body); expr != nil {
			body = expr
		} else if b.p.Is(body.Kind(), lang.Block) {
			return b.stmt(body, in)
		}
	}
	if body == nil {
		return b.block(b.bareStatements(fn), in)
	}
	// Expression body: the value is the return.
	r := b.node(KindReturn, body, b.firstLine(body))
	b.link(in, r)
	b.returns = append(b.returns, r)
	return nil
}

// assignedExpression returns the expression of a body written "= expr"
// (Kotlin function_body), or nil.
func assignedExpression(body *tree_sitter.Node) *tree_sitter.Node {
	first := body.Child(0)
	if first == nil || first.IsNamed() || first.Kind() != "=" {
		return nil
	}
	return body.NamedChild(0)
}

// bareStatements returns a function's statements when the grammar puts them
// directly under the definition.
func (b *builder) bareStatements(fn *tree_sitter.Node) []*tree_sitter.Node {
	skip := map[string]bool{"name": true, "parameters": true, "return_type": true, "type": true, "receiver": true}
	var out []*tree_sitter.Node
	for i := uint(0); i < fn.NamedChildCount(); i++ {
		c := fn.NamedChild(i)
		if c == nil || skip[fieldOf(fn, c)] {
			continue
		}
		switch b.p.Category(c.Kind()) {
		case lang.Comment, lang.Identifier, lang.ParameterList:
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *builder) stmt(n *tree_sitter.Node, in []exit) []exit {
	switch b.p.Category(n.Kind()) {
	case lang.Block, lang.ElseClause:
		return b.block(b.children(n), in)
	case lang.Conditional:
		cond, cons, alts := b.parts(n)
		return b.branch(n, cond, cons, alts, in)
	case lang.Loop:
		return b.loop(n, in)
	case lang.Switch:
		return b.switchStmt(n, in)
	case lang.Return, lang.Throw:
		return b.jump(n, in)
	case lang.Break:
		return b.escape(n, in, flowBreak)
	case lang.Continue:
		return b.escape(n, in, flowContinue)
	case lang.Try:
		return b.try(n, in)
	case lang.Comment:
		return in
	case lang.Statement:
		if inner := b.unwrap(n); inner != nil {
			return b.stmt(inner, in)
		}
	}
	if f, ok := bareJump(b.firstLine(n)); ok {
		return b.escape(n, in, f)
	}
	return b.process(n, in)
}

// block threads live exits through stmts and carries break and continue
// exits out. It stops once nothing can reach the next statement.
func (b *builder) block(stmts []*tree_sitter.Node, in []exit) []exit {
	live := in
	var pending []exit
	for _, s := range stmts {
		if len(live) == 0 {
			break
		}
		out := b.stmt(s, live)
		live = nil
		for _, e := range out {
			if e.flow == flowNormal {
				live = append(live, e)
			} else {
				pending = append(pending, e)
			}
		}
	}
	return append(live, pending...)
}

func (b *builder) process(n *tree_sitter.Node, in []exit) []exit {
	id := b.node(KindProcess, n, b.firstLine(n))
	b.link(in, id)
	return from(id, "")
}

// parts reads a conditional's condition, consequence and alternatives, by
// field when the grammar has them and by position otherwise.
func (b *builder) parts(n *tree_sitter.Node) (cond, cons *tree_sitter.Node, alts []*tree_sitter.Node) {
	f := b.p.Fields
	cond = childByField(n, f.Condition)
	cons = childByField(n, f.Consequence)
	alts = childrenByField(n, f.Alternative)
	if cond != nil && f.Consequence == "" {
		// Only the condition is named (Kotlin): the branches follow it.
		var rest []*tree_sitter.Node
		for _, c := range b.children(n) {
			if c.Id() != cond.Id() {
				rest = append(rest, c)
			}
		}
		if len(rest) > 0 {
			cons = rest[0]
			if len(alts) == 0 {
				alts = rest[1:]
			}
		}
		return cond, cons, alts
	}
	if cond != nil || cons != nil {
		if len(alts) == 0 {
			for _, c := range b.children(n) {
				if b.p.Is(c.Kind(), lang.ElseClause) || (b.p.Is(c.Kind(), lang.Conditional) && fieldOf(n, c) == "") {
					alts = append(alts, c)
				}
			}
		}
		return cond, cons, alts
	}
	named := b.children(n)
	if len(named) > 0 {
		cond = named[0]
	}
	if len(named) > 1 {
		cons = named[1]
	}
	if len(named) > 2 {
		alts = named[2:]
	}
	return cond, cons, alts
}

func (b *builder) branch(n, cond, cons *tree_sitter.Node, alts []*tree_sitter.Node, in []exit) []exit {
	label := b.firstLine(n)
	if cond != nil {
		label = conditionText(parser.NodeText(cond, b.source))
	}
	d := b.node(KindDecision, n, label)
	b.link(in, d)

	var out []exit
	if cons != nil {
		out = append(out, b.stmt(cons, from(d, "Yes"))...)
	} else {
		out = append(out, from(d, "Yes")...)
	}
	return append(out, b.alternative(d, alts)...)
}

// alternative follows the "No" edge of decision d: an else-if chain, an else
// body, or a connector when there is no else.
func (b *builder) alternative(d int, alts []*tree_sitter.Node) []exit {
	no := from(d, "No")
	if len(alts) == 0 {
		c := b.node(KindConnector, nil, "")
		b.link(no, c)
		return from(c, "")
	}
	alt := alts[0]
	switch b.p.Category(alt.Kind()) {
	case lang.Conditional:
		cond, cons, nested := b.parts(alt)
		return b.branch(alt, cond, cons, append(nested, alts[1:]...), no)
	case lang.ElseClause:
		inner := b.children(alt)
		if len(inner) == 1 && b.p.Is(inner[0].Kind(), lang.Conditional) {
			return b.stmt(inner[0], no)
		}
		return b.block(inner, no)
	}
	return b.stmt(alt, no)
}

func (b *builder) loop(n *tree_sitter.Node, in []exit) []exit {
	label := b.firstLine(n)
	if cond := childByField(n, b.p.Fields.Condition); cond != nil {
		label = conditionText(parser.NodeText(cond, b.source))
	}
	l := b.node(KindLoop, n, label)
	b.link(in, l)

	var breaks []exit
	if body := b.loopBody(n); body != nil {
		for _, e := range b.stmt(body, from(l, "")) {
			if e.flow == flowBreak {
				breaks = append(breaks, exit{from: e.from, label: e.label})
				continue
			}
			b.edge(e.from, l, e.label)
		}
	}
	// The else clause runs when the loop finishes without break.
	done := from(l, "Done")
	var escaped []exit
	if els := b.loopElse(n); els != nil {
		out := b.block(b.children(els), done)
		done = nil
		for _, e := range out {
			if e.flow == flowNormal {
				done = append(done, e)
			} else {
				escaped = append(escaped, e)
			}
		}
	}
	x := b.node(KindConnector, nil, "")
	b.link(done, x)
	b.link(breaks, x)
	return append(from(x, ""), escaped...)
}

func (b *builder) loopElse(n *tree_sitter.Node) *tree_sitter.Node {
	if els := childByField(n, b.p.Fields.Alternative); els != nil {
		return els
	}
	for _, c := range b.children(n) {
		if b.p.Is(c.Kind(), lang.ElseClause) {
			return c
		}
	}
	return nil
}

func (b *builder) loopBody(n *tree_sitter.Node) *tree_sitter.Node {
	if body := childByField(n, b.p.Fields.Body); body != nil {
		return body
	}
	var named []*tree_sitter.Node
	for _, c := range b.children(n) {
		if !b.p.Is(c.Kind(), lang.ElseClause) {
			named = append(named, c)
		}
	}
	for i := len(named) - 1; i >= 0; i-- {
		if b.p.Is(named[i].Kind(), lang.Block) {
			return named[i]
		}
	}
	if len(named) > 0 {
		return named[len(named)-1]
	}
	return nil
}

func (b *builder) switchStmt(n *tree_sitter.Node, in []exit) []exit {
	label := b.firstLine(n)
	if v := childByField(n, b.p.Fields.Condition); v != nil {
		label = conditionText(parser.NodeText(v, b.source))
	} else if v := childByField(n, "value"); v != nil {
		label = conditionText(parser.NodeText(v, b.source))
	} else if v := b.subject(n); v != nil {
		label = conditionText(parser.NodeText(v, b.source))
	}
	s := b.node(KindDecision, n, label)
	b.g.Nodes[len(b.g.Nodes)-1].Shape = "switch"
	b.link(in, s)

	candidates := b.children(n)
	if body := childByField(n, b.p.Fields.Body); body != nil {
		candidates = append(candidates, b.children(body)...)
	}

	var out []exit
	hasDefault := false
	for _, c := range candidates {
		var (
			label string
			stmts []*tree_sitter.Node
		)
		switch b.p.Category(c.Kind()) {
		case lang.Case:
			label = b.caseLabel(c)
			stmts = b.caseBody(c)
		case lang.ElseClause:
			label = "default"
			stmts = b.children(c)
		default:
			continue
		}
		if label == "default" {
			hasDefault = true
		}
		for _, e := range b.block(stmts, from(s, label)) {
			if e.flow == flowBreak {
				e.flow = flowNormal
			}
			out = append(out, e)
		}
	}
	if !hasDefault {
		out = append(out, from(s, "")...)
	}
	return out
}

// subject returns the leading unfielded child of a switch that is not a case,
// e.g. Kotlin's when_subject.
func (b *builder) subject(n *tree_sitter.Node) *tree_sitter.Node {
	named := b.children(n)
	if len(named) == 0 || fieldOf(n, named[0]) != "" {
		return nil
	}
	switch b.p.Category(named[0].Kind()) {
	case lang.Case, lang.ElseClause, lang.Block:
		return nil
	}
	return named[0]
}

func (b *builder) caseLabel(c *tree_sitter.Node) string {
	if v := childByField(c, b.p.Fields.CaseValue); v != nil {
		return caseText(parser.NodeText(v, b.source))
	}
	for _, l := range b.children(c) {
		if b.p.Is(l.Kind(), lang.CaseLabel) {
			return caseText(parser.NodeText(l, b.source))
		}
	}
	return caseText(b.firstLine(c))
}

// caseBodySkip lists case fields that hold the match, not the body.
var caseBodySkip = map[string]bool{"value": true, "pattern": true, "guard": true, "type": true, "label": true}

func (b *builder) caseBody(c *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for _, s := range childrenByField(c, b.p.Fields.CaseBody) {
		if s.IsNamed() && !separator(parser.NodeText(s, b.source)) {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	// Children before the header's last ":", "->" or "=>" are match values.
	header := uint(0)
	for i := uint(0); i < c.ChildCount(); i++ {
		if ch := c.Child(i); ch != nil && !ch.IsNamed() {
			switch ch.Kind() {
			case ":", "->", "=>":
				header = i + 1
			}
		}
	}
	for i := header; i < c.ChildCount(); i++ {
		s := c.Child(i)
		if s == nil || !s.IsNamed() || separator(parser.NodeText(s, b.source)) || caseBodySkip[fieldOf(c, s)] || fieldOf(c, s) == b.p.Fields.CaseValue {
			continue
		}
		switch b.p.Category(s.Kind()) {
		case lang.CaseLabel, lang.Comment:
			continue
		}
		out = append(out, s)
	}
	return out
}

// jump ends a path at a return or throw.
func (b *builder) jump(n *tree_sitter.Node, in []exit) []exit {
	r := b.node(KindReturn, n, b.firstLine(n))
	b.link(in, r)
	b.returns = append(b.returns, r)
	return nil
}

func (b *builder) escape(n *tree_sitter.Node, in []exit, f flow) []exit {
	id := b.node(KindProcess, n, b.firstLine(n))
	b.link(in, id)
	return []exit{{from: id, flow: f}}
}

func (b *builder) try(n *tree_sitter.Node, in []exit) []exit {
	t := b.node(KindProcess, n, "try")
	b.g.Nodes[len(b.g.Nodes)-1].Shape = "try"
	b.link(in, t)

	var body, catches []*tree_sitter.Node
	var fin, els *tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || fieldOf(n, c) == "resources" {
			continue
		}
		switch b.p.Category(c.Kind()) {
		case lang.Catch:
			catches = append(catches, c)
		case lang.Finally:
			fin = c
		case lang.ElseClause:
			els = c
		case lang.Comment:
		default:
			body = append(body, c)
		}
	}

	out := b.block(body, from(t, ""))
	if els != nil {
		out = b.block(b.children(els), out)
	}
	for _, c := range catches {
		id := b.node(KindProcess, c, b.firstLine(c))
		b.edge(t, id, "exception")
		out = append(out, b.block(b.bodyOf(c), from(id, ""))...)
	}
	if fin != nil {
		f := b.node(KindProcess, fin, "finally")
		b.link(out, f)
		out = b.block(b.bodyOf(fin), from(f, ""))
	}
	return out
}

// bodyOf returns the statements of a catch or finally clause.
func (b *builder) bodyOf(n *tree_sitter.Node) []*tree_sitter.Node {
	if bodies := childrenByField(n, b.p.Fields.Body); len(bodies) > 0 {
		return bodies
	}
	var out []*tree_sitter.Node
	for _, c := range b.children(n) {
		if b.p.Is(c.Kind(), lang.Block) {
			out = append(out, c)
		}
	}
	return out
}

// unwrap returns the control structure an expression statement wraps, if
// that is all it holds.
func (b *builder) unwrap(n *tree_sitter.Node) *tree_sitter.Node {
	named := b.children(n)
	if len(named) == 1 && b.p.Category(named[0].Kind()).IsControl() {
		return named[0]
	}
	return nil
}

// children returns the named, non-comment children of n.
func (b *builder) children(n *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || b.p.Is(c.Kind(), lang.Comment) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *builder) node(kind Kind, n *tree_sitter.Node, label string) int {
	id := b.nextID
	b.nextID++
	node := Node{
		ID:        id,
		Kind:      kind,
		Label:     truncate(label, b.width),
		FullLabel: label,
	}
	if n != nil {
		node.StartLine = parser.Line(n)
		node.EndLine = parser.EndLine(n)
	}
	b.g.Nodes = append(b.g.Nodes, node)
	return id
}

func (b *builder) edge(from, to int, label string) {
	for _, e := range b.g.Edges {
		if e.From == from && e.To == to && e.Label == label {
			return
		}
	}
	b.g.Edges = append(b.g.Edges, Edge{From: from, To: to, Label: label})
}

func (b *builder) link(in []exit, to int) {
	for _, e := range in {
		b.edge(e.from, to, e.label)
	}
}

// elide splices every connector out of the graph, wiring its predecessors to
// its successors. The incoming label wins over the outgoing one.
func (b *builder) elide() {
	g := b.g
	for _, n := range g.Nodes {
		if n.Kind != KindConnector {
			continue
		}
		var ins, outs, rest []Edge
		for _, e := range g.Edges {
			switch {
			case e.From == n.ID && e.To == n.ID:
			case e.To == n.ID:
				ins = append(ins, e)
			case e.From == n.ID:
				outs = append(outs, e)
			default:
				rest = append(rest, e)
			}
		}
		g.Edges = rest
		for _, in := range ins {
			for _, out := range outs {
				label := in.Label
				if label == "" {
					label = out.Label
				}
				b.edge(in.From, out.To, label)
			}
		}
	}
	kept := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.Kind != KindConnector {
			kept = append(kept, n)
		}
	}
	g.Nodes = kept
}

func (b *builder) firstLine(n *tree_sitter.Node) string {
	text := parser.NodeText(n, b.source)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "{")
	return strings.TrimSpace(text)
}

// conditionText collapses whitespace and drops one pair of outer parens.
func conditionText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// caseText reduces a case header to its match expression, or "default".
func caseText(s string) string {
	s = strings.TrimSpace(strings.Join(strings.Fields(s), " "))
	for _, kw := range []string{"case", "when"} {
		if keywordPrefix(s, kw) {
			s = strings.TrimSpace(s[len(kw):])
		}
	}
	if i := strings.Index(s, "=>"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "->"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ":"))
	if s == "_" || s == "" || keywordPrefix(s, "default") || keywordPrefix(s, "else") {
		return "default"
	}
	return s
}

// bareJump recognizes break and continue that a grammar leaves as plain
// expressions (Kotlin), with an optional @label.
func bareJump(text string) (flow, bool) {
	word, _, _ := strings.Cut(text, "@")
	switch strings.TrimSpace(word) {
	case "break":
		return flowBreak, true
	case "continue":
		return flowContinue, true
	}
	return flowNormal, false
}

// separator reports whether text is only statement punctuation.
func separator(text string) bool {
	return strings.Trim(text, "; \t\r\n") == ""
}

// keywordPrefix reports whether s starts with the word kw.
func keywordPrefix(s, kw string) bool {
	if !strings.HasPrefix(s, kw) {
		return false
	}
	if len(s) == len(kw) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[len(kw):])
	return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

func childByField(n *tree_sitter.Node, field string) *tree_sitter.Node {
	if field == "" {
		return nil
	}
	return n.ChildByFieldName(field)
}

// childrenByField returns every child under field; Python and PHP repeat
// "alternative".
func childrenByField(n *tree_sitter.Node, field string) []*tree_sitter.Node {
	if field == "" {
		return nil
	}
	var out []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.FieldNameForChild(uint32(i)) == field {
			if c := n.Child(i); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

func fieldOf(parent, child *tree_sitter.Node) string {
	for i := uint(0); i < parent.ChildCount(); i++ {
		if c := parent.Child(i); c != nil && c.Id() == child.Id() {
			return parent.FieldNameForChild(uint32(i))
		}
	}
	return ""
}
