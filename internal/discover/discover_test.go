package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codeflow/internal/lang"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func relPaths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestDiscoverBasic(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.go":           "package main\n",
		"app.py":            "def main(): pass\n",
		"README.md":         "# readme\n",
		"node_modules/x.js": "function x() {}\n",
		"pkg/lib.rs":        "fn f() {}\n",
		"pkg/cache.pyc":     "",
		"web/bundle.min.js": "",
	})

	files, err := Discover(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "main.go", "pkg/lib.rs"}, relPaths(files))

	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path))
		assert.NotEmpty(t, f.Language)
	}
	assert.Equal(t, lang.Python, files[0].Language)
}

func TestDiscoverCancellation(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.go": "package main\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, dir, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverGitignore(t *testing.T) {
	dir := writeTree(t, map[string]string{
		".gitignore":  "gen/\n*_pb.go\n",
		"gen/out.go":  "package gen\n",
		"api_pb.go":   "package api\n",
		"api.go":      "package api\n",
		"sub/keep.py": "x = 1\n",
	})

	files, err := Discover(context.Background(), dir, &Options{RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"api.go", "sub/keep.py"}, relPaths(files))

	files, err = Discover(context.Background(), dir, &Options{})
	require.NoError(t, err)
	assert.Len(t, files, 4, ".gitignore is only read on request")
}

func TestDiscoverIgnoreFile(t *testing.T) {
	dir := writeTree(t, map[string]string{
		IgnoreFileName:  "fixtures\n*.test.js\n",
		"fixtures/a.py": "",
		"src/a.js":      "",
		"src/a.test.js": "",
	})

	files, err := Discover(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js"}, relPaths(files))
}

func TestDiscoverGlobs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a/x.go":      "",
		"src/b/y.go":      "",
		"src/b/y_test.go": "",
		"tools/z.go":      "",
	})

	files, err := Discover(context.Background(), dir, &Options{
		Include: []string{"src/**"},
		Exclude: []string{"**/*_test.go"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a/x.go", "src/b/y.go"}, relPaths(files))

	_, err = Discover(context.Background(), dir, &Options{Include: []string{"src/[a"}})
	assert.ErrorContains(t, err, "invalid glob")
}

func TestListFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.py":        "",
		"b/c.py":      "",
		"b/d.go":      "",
		"vendor/e.py": "",
	})

	for _, ext := range []string{".py", "py"} {
		paths, err := ListFiles(dir, ext)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.py"), filepath.Join(dir, "b", "c.py")}, paths, ext)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.c")
	require.NoError(t, os.WriteFile(path, []byte("int x; /* \xff */"), 0o600))

	data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "int x; /* \uFFFD */", string(data))

	_, err = ReadFile(filepath.Join(dir, "missing.c"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDirs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a/x.go":        "",
		"node_modules/m.js": "",
		".git/HEAD":         "",
	})

	dirs, err := Dirs(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{dir, filepath.Join(dir, "src"), filepath.Join(dir, "src", "a")}, dirs)
}
