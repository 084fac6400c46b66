// Package cfg synthesizes per-function control-flow graphs from the CST.
package cfg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFunctionNotFound is reported when no function covers the requested lines.
var ErrFunctionNotFound = errors.New("function not found")

// Kind is a CFG node kind.
type Kind string

const (
	KindStart     Kind = "start"
	KindProcess   Kind = "process"
	KindDecision  Kind = "decision"
	KindLoop      Kind = "loop"
	KindReturn    Kind = "return"
	KindConnector Kind = "connector"
	KindEnd       Kind = "end"
)

// Node is one flowchart step.
type Node struct {
	ID        int    `json:"id" yaml:"id"`
	Kind      Kind   `json:"kind" yaml:"kind"`
	Label     string `json:"label" yaml:"label"`
	FullLabel string `json:"full_label" yaml:"full_label"`
	Shape     string `json:"shape,omitempty" yaml:"shape,omitempty"`
	StartLine int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
}

// Edge is a labeled transition.
type Edge struct {
	From  int    `json:"from" yaml:"from"`
	To    int    `json:"to" yaml:"to"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Graph is a function's control-flow graph. When synthesis fails, Error is
// set and Nodes and Edges are empty.
type Graph struct {
	Function  string `json:"function,omitempty" yaml:"function,omitempty"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	StartLine int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Nodes     []Node `json:"nodes" yaml:"nodes"`
	Edges     []Edge `json:"edges" yaml:"edges"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

// Err returns the synthesis error, if any. Not-found results wrap
// ErrFunctionNotFound.
func (g *Graph) Err() error {
	return g.err
}

func failed(err error) *Graph {
	return &Graph{Nodes: []Node{}, Edges: []Edge{}, Error: err.Error(), err: err}
}

// Node returns the node with id, or nil.
func (g *Graph) Node(id int) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// NodesOf returns the nodes of one kind in id order.
func (g *Graph) NodesOf(kind Kind) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Complexity is the cyclomatic complexity E - N + 2.
func (g *Graph) Complexity() int {
	if len(g.Nodes) == 0 {
		return 0
	}
	return len(g.Edges) - len(g.Nodes) + 2
}

// Mermaid renders the graph as a Mermaid flowchart.
func (g *Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, n := range g.Nodes {
		open, closing := shapeDelims(n)
		fmt.Fprintf(&b, "    n%d%s\"%s\"%s\n", n.ID, open, escapeMermaid(n.Label), closing)
	}
	for _, e := range g.Edges {
		if e.Label != "" {
			fmt.Fprintf(&b, "    n%d -->|%s| n%d\n", e.From, escapeMermaid(e.Label), e.To)
		} else {
			fmt.Fprintf(&b, "    n%d --> n%d\n", e.From, e.To)
		}
	}
	return b.String()
}

func shapeDelims(n Node) (string, string) {
	switch n.Kind {
	case KindStart, KindEnd:
		return "([", "])"
	case KindDecision:
		return "{", "}"
	case KindLoop:
		return "{{", "}}"
	case KindReturn:
		return "[/", "/]"
	}
	return "[", "]"
}

func escapeMermaid(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "|", "#124;", "\n", " ")
	return r.Replace(s)
}
