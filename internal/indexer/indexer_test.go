package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codeflow/internal/model"
	"github.com/DeusData/codeflow/internal/store"
	"github.com/DeusData/codeflow/internal/workerpool"
)

const aPy = `class Base:
    pass

class Child(Base):
    def run(self):
        return helper(1)

def helper(x):
    return print(x)
`

const bPy = `from a import helper

def main():
    helper(2)
    missing()
`

func setup(t *testing.T, files map[string]string) (string, *store.Store, *workerpool.Pool) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	pool := workerpool.New(2, nil)
	t.Cleanup(pool.Terminate)
	return dir, s, pool
}

func TestIndexResolvesRelationships(t *testing.T) {
	dir, s, pool := setup(t, map[string]string{"a.py": aPy, "b.py": bPy})
	ctx := context.Background()

	ix := New(s, pool, Options{BatchSize: 1})
	sum, err := ix.Index(ctx, "demo", dir)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 2, sum.FilesChanged)
	assert.Empty(t, sum.Failures)
	assert.Equal(t, 5, sum.Entities)
	assert.Equal(t, 5, sum.Added)
	assert.Equal(t, 4, sum.CallEdges)
	assert.Equal(t, 2, sum.Dangling)
	assert.Equal(t, 1, sum.Inheritance)
	assert.Positive(t, sum.Occurrences)

	helper, err := s.FindEntity(ctx, "demo", "helper", model.KindFunction)
	require.NoError(t, err)
	require.Len(t, helper, 1)

	callers, err := s.Callers(ctx, helper[0].ID)
	require.NoError(t, err)
	var names []string
	for _, c := range callers {
		names = append(names, c.Symbol)
	}
	assert.Equal(t, []string{"run", "main"}, names)

	inh, err := s.LoadInheritance(ctx, "demo")
	require.NoError(t, err)
	require.Len(t, inh, 1)
	assert.Equal(t, "Child", inh[0].ChildSymbol)
	assert.Equal(t, "Base", inh[0].ParentSymbol)
	assert.NotNil(t, inh[0].ParentID)

	hashes, err := s.GetFileHashes(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, hashes, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(ix.runs.WithLabelValues("ok")))
}

func TestIndexRefreshDiff(t *testing.T) {
	dir, s, pool := setup(t, map[string]string{"a.py": aPy, "b.py": bPy})
	ctx := context.Background()
	ix := New(s, pool, Options{})

	_, err := ix.Index(ctx, "demo", dir)
	require.NoError(t, err)
	before, err := s.FindEntity(ctx, "demo", "main", model.KindFunction)
	require.NoError(t, err)
	require.Len(t, before, 1)

	sum, err := ix.Index(ctx, "demo", dir)
	require.NoError(t, err)
	assert.Zero(t, sum.FilesChanged)
	assert.Zero(t, sum.Added+sum.Removed+sum.Changed, "unchanged tree is a no-op diff")

	edited := "from a import helper\n\ndef main():\n    helper(3)\n\ndef extra():\n    pass\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte(edited), 0o600))
	sum, err = ix.Index(ctx, "demo", dir)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FilesChanged)
	assert.Equal(t, 1, sum.Added)
	assert.Equal(t, 1, sum.Changed)
	assert.Zero(t, sum.Removed)

	after, err := s.FindEntity(ctx, "demo", "main", model.KindFunction)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID, "entity ids survive a refresh")

	require.NoError(t, os.Remove(filepath.Join(dir, "a.py")))
	sum, err = ix.Index(ctx, "demo", dir)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Removed)
	assert.Equal(t, 2, sum.Entities)
	assert.Equal(t, 1, sum.CallEdges)
	assert.Equal(t, 1, sum.Dangling, "callee defined in the removed file is now external")

	n, err := s.CountEntities(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type failingParser struct {
	FileParser
	bad string
	err error
}

func (f failingParser) ParseFile(ctx context.Context, abs, rel, project string) (*model.FileResult, error) {
	if rel == f.bad {
		if f.err != nil {
			return nil, f.err
		}
		return &model.FileResult{Project: project, Filename: rel, Path: abs, Error: "boom"}, nil
	}
	return f.FileParser.ParseFile(ctx, abs, rel, project)
}

func TestIndexPerFileFailure(t *testing.T) {
	dir, s, pool := setup(t, map[string]string{"a.py": aPy, "b.py": bPy})
	ctx := context.Background()

	ix := New(s, failingParser{FileParser: pool, bad: "a.py"}, Options{})
	sum, err := ix.Index(ctx, "demo", dir)
	require.NoError(t, err)
	require.Len(t, sum.Failures, 1)
	assert.Equal(t, Failure{File: "a.py", Error: "boom"}, sum.Failures[0])
	assert.Equal(t, 1, sum.Entities)
	assert.Equal(t, 2, sum.Dangling)
}

func TestIndexAbortLeavesSnapshot(t *testing.T) {
	dir, s, pool := setup(t, map[string]string{"a.py": aPy, "b.py": bPy})
	ctx := context.Background()

	_, err := New(s, pool, Options{}).Index(ctx, "demo", dir)
	require.NoError(t, err)

	ix := New(s, failingParser{FileParser: pool, bad: "b.py", err: workerpool.ErrTerminated}, Options{})
	_, err = ix.Index(ctx, "demo", dir)
	require.ErrorIs(t, err, workerpool.ErrTerminated)
	assert.Equal(t, 1.0, testutil.ToFloat64(ix.runs.WithLabelValues("error")))

	n, err := s.CountEntities(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestIndexDefaultProjectName(t *testing.T) {
	dir, s, pool := setup(t, map[string]string{"b.py": bPy})

	sum, err := New(s, pool, Options{}).Index(context.Background(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, ProjectNameFromPath(dir), sum.Project)

	projects, err := s.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, dir, projects[0].RootPath)
}

func TestProjectNameFromPath(t *testing.T) {
	assert.Equal(t, "home-me-src-app", ProjectNameFromPath("/home/me/src/app"))
	assert.Equal(t, "root", ProjectNameFromPath("/"))
}
