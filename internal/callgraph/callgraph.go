// Package callgraph materializes the neighborhood of a symbol in the
// persisted call relation.
package callgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/DeusData/codeflow/internal/model"
)

// ErrSymbolNotFound is returned when the root symbol has no entity.
var ErrSymbolNotFound = errors.New("symbol not found")

// EdgeSource is the persisted call relation. Callees and Callers return only
// resolved neighbors; dangling edges are never traversed.
type EdgeSource interface {
	FindEntities(ctx context.Context, project, symbol string) ([]model.Entity, error)
	Callees(ctx context.Context, id int64) ([]model.Entity, error)
	Callers(ctx context.Context, id int64) ([]model.Entity, error)
}

// Node is an entity in the call graph.
type Node struct {
	ID        int64  `json:"id" yaml:"id"`
	Symbol    string `json:"symbol" yaml:"symbol"`
	Kind      string `json:"kind" yaml:"kind"`
	Filename  string `json:"filename" yaml:"filename"`
	StartLine int    `json:"start_line" yaml:"start_line"`
}

// Edge is a caller -> callee link. CalleeDepth is set when the edge was found
// walking callees from the root, CallerDepth when walking callers.
type Edge struct {
	From        int64 `json:"from" yaml:"from"`
	To          int64 `json:"to" yaml:"to"`
	CalleeDepth *int  `json:"callee_depth" yaml:"callee_depth"`
	CallerDepth *int  `json:"caller_depth" yaml:"caller_depth"`
}

// Graph is the depth-bounded neighborhood of Root.
type Graph struct {
	Root  Node   `json:"root" yaml:"root"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

type direction int

const (
	calleeDir direction = iota
	callerDir
)

type builder struct {
	src     EdgeSource
	g       *Graph
	nodes   map[int64]bool
	edges   map[[2]int64]int
	visited [2]map[int64]bool
}

// Build walks callees and callers of rootSymbol level by level up to
// maxDepth. An edge keeps the lowest depth at which each direction reached
// it. maxDepth 0 returns the root alone.
func Build(ctx context.Context, src EdgeSource, rootSymbol, project string, maxDepth int) (*Graph, error) {
	candidates, err := src.FindEntities(ctx, project, rootSymbol)
	if err != nil {
		return nil, fmt.Errorf("find root %q: %w", rootSymbol, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q in project %q", ErrSymbolNotFound, rootSymbol, project)
	}
	root := pickRoot(candidates)

	b := &builder{
		src:     src,
		g:       &Graph{Root: nodeOf(root), Nodes: []Node{}, Edges: []Edge{}},
		nodes:   map[int64]bool{},
		edges:   map[[2]int64]int{},
		visited: [2]map[int64]bool{{root.ID: true}, {root.ID: true}},
	}
	b.addNode(root)

	frontiers := [2][]int64{{root.ID}, {root.ID}}
	for depth := 1; depth <= maxDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, dir := range []direction{calleeDir, callerDir} {
			next, err := b.expand(ctx, dir, frontiers[dir], depth)
			if err != nil {
				return nil, err
			}
			frontiers[dir] = next
		}
		if len(frontiers[calleeDir]) == 0 && len(frontiers[callerDir]) == 0 {
			break
		}
	}
	return b.g, nil
}

// pickRoot prefers a function over a type sharing the name.
func pickRoot(candidates []model.Entity) model.Entity {
	for _, e := range candidates {
		if e.Kind == model.KindFunction {
			return e
		}
	}
	return candidates[0]
}

func (b *builder) expand(ctx context.Context, dir direction, frontier []int64, depth int) ([]int64, error) {
	var next []int64
	for _, id := range frontier {
		var (
			neighbors []model.Entity
			err       error
		)
		if dir == calleeDir {
			neighbors, err = b.src.Callees(ctx, id)
		} else {
			neighbors, err = b.src.Callers(ctx, id)
		}
		if err != nil {
			return nil, fmt.Errorf("expand %d: %w", id, err)
		}
		for _, n := range neighbors {
			b.addNode(n)
			if dir == calleeDir {
				b.addEdge(id, n.ID, dir, depth)
			} else {
				b.addEdge(n.ID, id, dir, depth)
			}
			if !b.visited[dir][n.ID] {
				b.visited[dir][n.ID] = true
				next = append(next, n.ID)
			}
		}
	}
	return next, nil
}

func (b *builder) addNode(e model.Entity) {
	if b.nodes[e.ID] {
		return
	}
	b.nodes[e.ID] = true
	b.g.Nodes = append(b.g.Nodes, nodeOf(e))
}

func (b *builder) addEdge(from, to int64, dir direction, depth int) {
	key := [2]int64{from, to}
	i, ok := b.edges[key]
	if !ok {
		i = len(b.g.Edges)
		b.edges[key] = i
		b.g.Edges = append(b.g.Edges, Edge{From: from, To: to})
	}
	e := &b.g.Edges[i]
	d := depth
	switch {
	case dir == calleeDir && e.CalleeDepth == nil:
		e.CalleeDepth = &d
	case dir == callerDir && e.CallerDepth == nil:
		e.CallerDepth = &d
	}
}

func nodeOf(e model.Entity) Node {
	return Node{
		ID:        e.ID,
		Symbol:    e.Symbol,
		Kind:      e.Kind,
		Filename:  e.Filename,
		StartLine: e.StartLine,
	}
}
