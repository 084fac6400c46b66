package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codeflow/internal/indexer"
	"github.com/DeusData/codeflow/internal/store"
	"github.com/DeusData/codeflow/internal/workerpool"
)

const aPy = `class Base:
    pass

class Child(Base):
    def run(self):
        return helper(1)

def helper(x):
    if x > 0:
        return print(x)
    return 0
`

const bPy = `from a import helper

def main():
    helper(2)
`

type handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte(aPy), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte(bPy), 0o600))

	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	pool := workerpool.New(2, nil)
	t.Cleanup(pool.Terminate)

	return NewServer(s, indexer.New(s, pool, indexer.Options{}), Options{}), dir
}

func call(t *testing.T, h handler, args string) (string, bool) {
	t.Helper()
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(args)}}
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text, res.IsError
}

func indexed(t *testing.T) *Server {
	t.Helper()
	srv, dir := newTestServer(t)
	args, err := json.Marshal(map[string]string{"repo_path": dir, "project": "demo"})
	require.NoError(t, err)
	text, isErr := call(t, srv.handleIndexRepository, string(args))
	require.False(t, isErr, text)
	return srv
}

func TestIndexRepository(t *testing.T) {
	srv, dir := newTestServer(t)

	text, isErr := call(t, srv.handleIndexRepository, `{}`)
	assert.True(t, isErr)
	assert.Contains(t, text, "repo_path is required")

	args, _ := json.Marshal(map[string]string{"repo_path": dir})
	text, isErr = call(t, srv.handleIndexRepository, string(args))
	require.False(t, isErr, text)

	var sum indexer.Summary
	require.NoError(t, json.Unmarshal([]byte(text), &sum))
	assert.Equal(t, indexer.ProjectNameFromPath(dir), sum.Project)
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 5, sum.Entities)
	assert.Equal(t, 1, sum.Inheritance)
}

func TestListAndDeleteProjects(t *testing.T) {
	srv := indexed(t)

	text, isErr := call(t, srv.handleListProjects, `{}`)
	require.False(t, isErr, text)
	var projects []struct {
		Name  string       `json:"name"`
		Stats *store.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "demo", projects[0].Name)
	require.NotNil(t, projects[0].Stats)
	assert.Equal(t, 2, projects[0].Stats.Files)

	_, isErr = call(t, srv.handleDeleteProject, `{"project":"nope"}`)
	assert.True(t, isErr)

	text, isErr = call(t, srv.handleDeleteProject, `{"project":"demo"}`)
	require.False(t, isErr, text)

	text, isErr = call(t, srv.handleSearchEntities, `{}`)
	assert.True(t, isErr)
	assert.Contains(t, text, "no indexed projects")
}

func TestSearchEntities(t *testing.T) {
	srv := indexed(t)

	text, isErr := call(t, srv.handleSearchEntities, `{"kind":"function","limit":1}`)
	require.False(t, isErr, text)
	var out struct {
		Total   int  `json:"total"`
		HasMore bool `json:"has_more"`
		Results []struct {
			Symbol        string `json:"symbol"`
			QualifiedName string `json:"qualified_name"`
			Source        string `json:"source"`
			InDegree      int    `json:"in_degree"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, 3, out.Total)
	assert.True(t, out.HasMore)
	require.Len(t, out.Results, 1)
	assert.Empty(t, out.Results[0].Source)

	text, isErr = call(t, srv.handleSearchEntities, `{"name_pattern":"^help","include_source":true}`)
	require.False(t, isErr, text)
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "helper", out.Results[0].Symbol)
	assert.Equal(t, "demo.a.helper", out.Results[0].QualifiedName)
	assert.Equal(t, 2, out.Results[0].InDegree)
	assert.Contains(t, out.Results[0].Source, "def helper")

	text, isErr = call(t, srv.handleSearchEntities, `{"name_pattern":"("}`)
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid name pattern")
}

func TestGetCallGraph(t *testing.T) {
	srv := indexed(t)

	text, isErr := call(t, srv.handleGetCallGraph, `{"symbol":"helper","depth":1}`)
	require.False(t, isErr, text)
	var out struct {
		Depth int `json:"depth"`
		Graph struct {
			Root struct {
				Symbol string `json:"symbol"`
			} `json:"root"`
			Edges []struct {
				CallerDepth *int `json:"caller_depth"`
				CalleeDepth *int `json:"callee_depth"`
			} `json:"edges"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, 1, out.Depth)
	assert.Equal(t, "helper", out.Graph.Root.Symbol)
	require.Len(t, out.Graph.Edges, 2)
	for _, e := range out.Graph.Edges {
		require.NotNil(t, e.CallerDepth)
		assert.Equal(t, 1, *e.CallerDepth)
		assert.Nil(t, e.CalleeDepth)
	}

	text, isErr = call(t, srv.handleGetCallGraph, `{"symbol":"nothing"}`)
	assert.True(t, isErr)
	assert.Contains(t, text, "function not found")

	_, isErr = call(t, srv.handleGetCallGraph, `{}`)
	assert.True(t, isErr)
}

func TestGetControlFlow(t *testing.T) {
	srv := indexed(t)

	text, isErr := call(t, srv.handleGetControlFlow, `{"symbol":"helper"}`)
	require.False(t, isErr, text)
	var out struct {
		File       string `json:"file"`
		Complexity int    `json:"complexity"`
		Graph      struct {
			Nodes []json.RawMessage `json:"nodes"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "a.py", out.File)
	assert.GreaterOrEqual(t, out.Complexity, 2)
	assert.NotEmpty(t, out.Graph.Nodes)

	text, isErr = call(t, srv.handleGetControlFlow, `{"file":"b.py","line":4,"format":"mermaid"}`)
	require.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "flowchart TD\n"))

	_, isErr = call(t, srv.handleGetControlFlow, `{"file":"b.py"}`)
	assert.True(t, isErr)
	_, isErr = call(t, srv.handleGetControlFlow, `{}`)
	assert.True(t, isErr)
}

func TestFindReferences(t *testing.T) {
	srv := indexed(t)

	text, isErr := call(t, srv.handleFindReferences, `{"symbol":"helper","project":"demo"}`)
	require.False(t, isErr, text)
	var out struct {
		Total       int `json:"total"`
		Definitions int `json:"definitions"`
		References  []struct {
			IsDefinition bool `json:"is_definition"`
		} `json:"references"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.GreaterOrEqual(t, out.Total, 3)
	assert.GreaterOrEqual(t, out.Definitions, 1)
	require.NotEmpty(t, out.References)
	assert.True(t, out.References[0].IsDefinition)

	text, isErr = call(t, srv.handleFindReferences, `{"symbol":"helper","limit":1}`)
	require.False(t, isErr, text)
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Len(t, out.References, 1)
}

func TestResolveProject(t *testing.T) {
	srv := indexed(t)
	ctx := context.Background()

	p, err := srv.resolveProject(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)

	_, err = srv.resolveProject(ctx, "other")
	assert.ErrorContains(t, err, "project not found")

	require.NoError(t, srv.store.UpsertProject(ctx, "second", "/tmp/second"))
	_, err = srv.resolveProject(ctx, "")
	assert.ErrorContains(t, err, "project is required")
}
