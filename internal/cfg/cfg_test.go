package cfg

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synth(t *testing.T, src, language string, line int) *Graph {
	t.Helper()
	g := SynthesizeFromSource([]byte(src), language, line, line)
	require.NoError(t, g.Err())
	require.Empty(t, g.Error)
	return g
}

func edgeLabels(g *Graph, from int) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == from {
			out = append(out, e.Label)
		}
	}
	return out
}

func hasEdge(g *Graph, from, to int) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

func only(t *testing.T, g *Graph, kind Kind) Node {
	t.Helper()
	nodes := g.NodesOf(kind)
	require.Len(t, nodes, 1, "want one %s node", kind)
	return nodes[0]
}

func TestStraightReturn(t *testing.T) {
	g := synth(t, "int add(int a,int b){return a+b;}\n", "c", 1)

	assert.Equal(t, "add", g.Function)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, KindStart, g.Nodes[0].Kind)
	assert.Equal(t, KindReturn, g.Nodes[1].Kind)
	assert.Equal(t, KindEnd, g.Nodes[2].Kind)
	assert.Len(t, g.Edges, 2)
	assert.Equal(t, 1, g.Complexity())
}

func TestIfWithTwoReturns(t *testing.T) {
	src := `int f(int x) {
    if (x > 0) return 1;
    return 0;
}
`
	g := synth(t, src, "c", 1)

	d := only(t, g, KindDecision)
	assert.Equal(t, "x > 0", d.Label)
	assert.ElementsMatch(t, []string{"Yes", "No"}, edgeLabels(g, d.ID))

	returns := g.NodesOf(KindReturn)
	require.Len(t, returns, 2)
	end := only(t, g, KindEnd)
	for _, r := range returns {
		assert.True(t, hasEdge(g, r.ID, end.ID), "return %q reaches end", r.Label)
	}
	assert.Empty(t, g.NodesOf(KindConnector), "connectors are elided")
	assert.Equal(t, 2, g.Complexity())
}

func TestEmptyFunction(t *testing.T) {
	g := synth(t, "func f() {}\n", "go", 1)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{From: g.Nodes[0].ID, To: g.Nodes[1].ID}, g.Edges[0])
}

func TestLoopWithBreak(t *testing.T) {
	src := `func f(xs []int) int {
	for _, x := range xs {
		if x < 0 {
			break
		}
		use(x)
	}
	return 0
}
`
	g := synth(t, src, "go", 1)

	l := only(t, g, KindLoop)
	assert.Contains(t, edgeLabels(g, l.ID), "Done")

	var use Node
	for _, n := range g.NodesOf(KindProcess) {
		if n.Label == "use(x)" {
			use = n
		}
	}
	require.Equal(t, "use(x)", use.Label)
	assert.True(t, hasEdge(g, use.ID, l.ID), "body falls back to the loop header")

	ret := only(t, g, KindReturn)
	assert.True(t, hasEdge(g, l.ID, ret.ID), "loop exit reaches the return")
	for _, n := range g.NodesOf(KindProcess) {
		if n.Label == "break" {
			assert.True(t, hasEdge(g, n.ID, ret.ID), "break leaves the loop")
		}
	}
}

func TestElseIfChain(t *testing.T) {
	src := `def grade(n):
    if n > 90:
        return "a"
    elif n > 80:
        return "b"
    else:
        return "c"
`
	g := synth(t, src, "python", 1)

	decisions := g.NodesOf(KindDecision)
	require.Len(t, decisions, 2)
	assert.True(t, hasEdge(g, decisions[0].ID, decisions[1].ID), "No edge continues the chain")
	assert.Len(t, g.NodesOf(KindReturn), 3)
	assert.Equal(t, 3, g.Complexity())
}

func TestSwitchCases(t *testing.T) {
	src := `function kind(x) {
  switch (x) {
    case 1:
      return "one";
    case 2:
      log(x);
      break;
    default:
      return "many";
  }
  return "two";
}
`
	g := synth(t, src, "javascript", 1)

	var sw Node
	for _, n := range g.NodesOf(KindDecision) {
		if n.Shape == "switch" {
			sw = n
		}
	}
	require.Equal(t, "switch", sw.Shape)
	assert.ElementsMatch(t, []string{"1", "2", "default"}, edgeLabels(g, sw.ID))
	assert.Len(t, g.NodesOf(KindReturn), 3)
}

func TestTryCatchFinally(t *testing.T) {
	src := `class A {
    void run() {
        try {
            work();
        } catch (Exception e) {
            recover();
        } finally {
            close();
        }
    }
}
`
	g := synth(t, src, "java", 2)

	var try, fin Node
	for _, n := range g.NodesOf(KindProcess) {
		switch n.Label {
		case "try":
			try = n
		case "finally":
			fin = n
		}
	}
	require.Equal(t, "try", try.Label)
	require.Equal(t, "finally", fin.Label)
	assert.Contains(t, edgeLabels(g, try.ID), "exception")

	into := 0
	for _, e := range g.Edges {
		if e.To == fin.ID {
			into++
		}
	}
	assert.Equal(t, 2, into, "both the body and the handler reach finally")
}

func TestArrowExpressionBody(t *testing.T) {
	g := synth(t, "const double = (x) => x * 2;\n", "javascript", 1)
	ret := only(t, g, KindReturn)
	assert.Equal(t, "x * 2", ret.Label)
	assert.Len(t, g.Edges, 2)
}

func TestRustMatch(t *testing.T) {
	src := `fn sign(x: i32) -> i32 {
    match x {
        0 => 0,
        _ => 1,
    }
}
`
	g := synth(t, src, "rust", 1)
	var sw Node
	for _, n := range g.NodesOf(KindDecision) {
		if n.Shape == "switch" {
			sw = n
		}
	}
	assert.ElementsMatch(t, []string{"0", "default"}, edgeLabels(g, sw.ID))
}

func TestKotlinWhen(t *testing.T) {
	sources := map[string]string{
		"multiline": `fun f(x: Int): Int {
    when (x) {
        1 -> return 1
        else -> println(x)
    }
    return 0
}
`,
		"one line": "fun f(x:Int):Int{ when(x){ 1 -> return 1; else -> println(x) }; return 0 }\n",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			g := synth(t, src, "kotlin", 1)

			sw := only(t, g, KindDecision)
			assert.Equal(t, "switch", sw.Shape)
			assert.Equal(t, "x", sw.Label)
			assert.ElementsMatch(t, []string{"1", "default"}, edgeLabels(g, sw.ID))

			returns := g.NodesOf(KindReturn)
			require.Len(t, returns, 2)
			end := only(t, g, KindEnd)
			for _, r := range returns {
				assert.True(t, hasEdge(g, r.ID, end.ID), "return %q reaches end", r.Label)
			}
			for _, n := range g.NodesOf(KindProcess) {
				assert.NotEqual(t, "1", n.Label, "case values are not statements")
			}
		})
	}
}

func TestKotlinIfElse(t *testing.T) {
	src := `fun g(x: Int): Int {
    if (x > 0) {
        return 1
    } else {
        println(x)
    }
    return 0
}
`
	g := synth(t, src, "kotlin", 1)

	d := only(t, g, KindDecision)
	assert.Equal(t, "x > 0", d.Label)
	assert.ElementsMatch(t, []string{"Yes", "No"}, edgeLabels(g, d.ID))
	assert.Len(t, g.NodesOf(KindReturn), 2)
}

func TestKotlinExpressionBody(t *testing.T) {
	g := synth(t, "fun twice(x: Int) = x * 2\n", "kotlin", 1)
	ret := only(t, g, KindReturn)
	assert.Equal(t, "x * 2", ret.Label)
}

func TestPythonLoopElse(t *testing.T) {
	src := `def f(x):
    while x:
        x -= 1
    else:
        y()
`
	g := synth(t, src, "python", 1)

	l := only(t, g, KindLoop)
	var els Node
	for _, n := range g.NodesOf(KindProcess) {
		if n.Label == "y()" {
			els = n
		}
	}
	require.Equal(t, "y()", els.Label, "the else body is drawn")
	found := false
	for _, e := range g.Edges {
		if e.From == l.ID && e.To == els.ID {
			found = true
			assert.Equal(t, "Done", e.Label)
		}
	}
	assert.True(t, found, "a finished loop runs the else body")
	end := only(t, g, KindEnd)
	assert.True(t, hasEdge(g, els.ID, end.ID))
}

func TestScalaMatchSeparators(t *testing.T) {
	src := `object A {
  def f(x: Int): Int = {
    x match { case 1 => 2; case _ => 3 }
  }
}
`
	g := synth(t, src, "scala", 2)

	for _, n := range g.Nodes {
		assert.NotEqual(t, ";", strings.TrimSpace(n.Label))
	}
	var sw Node
	for _, n := range g.NodesOf(KindDecision) {
		if n.Shape == "switch" {
			sw = n
		}
	}
	require.Equal(t, "switch", sw.Shape)
	assert.ElementsMatch(t, []string{"1", "default"}, edgeLabels(g, sw.ID))
}

func TestConcurrentSynthesisIDs(t *testing.T) {
	sources := []struct{ src, language string }{
		{"int add(int a,int b){return a+b;}\n", "c"},
		{"def f(x):\n    if x:\n        return 1\n    return 2\n", "python"},
		{"func f(xs []int) {\n\tfor _, x := range xs {\n\t\tuse(x)\n\t}\n}\n", "go"},
		{"function k(x) { switch (x) { case 1: return 1; default: return 2; } }\n", "javascript"},
	}
	want := make([]*Graph, len(sources))
	for i, s := range sources {
		want[i] = synth(t, s.src, s.language, 1)
	}

	const rounds = 8
	got := make([]*Graph, rounds*len(sources))
	var wg sync.WaitGroup
	for r := 0; r < rounds; r++ {
		for i, s := range sources {
			wg.Add(1)
			go func(slot int, src, language string) {
				defer wg.Done()
				got[slot] = SynthesizeFromSource([]byte(src), language, 1, 1)
			}(r*len(sources)+i, s.src, s.language)
		}
	}
	wg.Wait()

	for slot, g := range got {
		require.NoError(t, g.Err())
		require.NotEmpty(t, g.Nodes)
		assert.Equal(t, 0, g.Nodes[0].ID, "ids restart for every graph")
		assert.Equal(t, KindStart, g.Nodes[0].Kind)
		ids := map[int]bool{}
		for i, n := range g.Nodes {
			if i > 0 {
				assert.Greater(t, n.ID, g.Nodes[i-1].ID)
			}
			ids[n.ID] = true
		}
		for _, e := range g.Edges {
			assert.True(t, ids[e.From] && ids[e.To], "edge %d->%d names known nodes", e.From, e.To)
		}
		assert.Equal(t, want[slot%len(sources)], g)
	}
}

func TestEnclosingFunctionFallback(t *testing.T) {
	src := `def outer():
    x = 1
    return x
`
	g := SynthesizeFromSource([]byte(src), "python", 2, 3)
	require.NoError(t, g.Err())
	assert.Equal(t, "outer", g.Function)
}

func TestFunctionNotFound(t *testing.T) {
	g := SynthesizeFromSource([]byte("x = 1\n"), "python", 1, 1)
	assert.ErrorIs(t, g.Err(), ErrFunctionNotFound)
	assert.NotEmpty(t, g.Error)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestLabelWidth(t *testing.T) {
	src := "function f() { doSomethingWithAVeryLongName(argumentNumberOne, argumentNumberTwo); }\n"
	g := SynthesizeFromSource([]byte(src), "javascript", 1, 1, WithLabelWidth(10))
	require.NoError(t, g.Err())

	var p Node
	for _, n := range g.NodesOf(KindProcess) {
		p = n
	}
	assert.Len(t, []rune(p.Label), 30, "width is clamped to the minimum")
	assert.True(t, strings.HasSuffix(p.Label, "..."))
	assert.True(t, strings.HasPrefix(p.FullLabel, "doSomethingWithAVeryLongName("))
}

func TestMermaid(t *testing.T) {
	g := synth(t, "int f(int x) { if (x) return 1; return 0; }\n", "c", 1)
	out := g.Mermaid()
	assert.True(t, strings.HasPrefix(out, "flowchart TD\n"))
	assert.Contains(t, out, `-->|Yes|`)
	assert.Contains(t, out, `{"x"}`)
}

func TestCaseText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"case 1:", "1"},
		{"default:", "default"},
		{"_", "default"},
		{"when :a", ":a"},
		{"Some(x) => x", "Some(x)"},
		{"else ->", "default"},
		{"defaults", "defaults"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, caseText(tt.in), tt.in)
	}
}

func TestConditionText(t *testing.T) {
	assert.Equal(t, "x > 0", conditionText("(x > 0)"))
	assert.Equal(t, "(a) && (b)", conditionText("(a) && (b)"))
	assert.Equal(t, "a b", conditionText("a\n   b"))
}
