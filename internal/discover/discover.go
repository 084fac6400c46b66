// Package discover finds parseable source files in a repository.
package discover

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/DeusData/codeflow/internal/lang"
)

// IgnoreDirs are directory names skipped during discovery.
var IgnoreDirs = map[string]bool{
	".cache": true, ".claude": true, ".eclipse": true, ".eggs": true,
	".env": true, ".git": true, ".gradle": true, ".hg": true,
	".idea": true, ".maven": true, ".mypy_cache": true, ".nox": true,
	".npm": true, ".nyc_output": true, ".pnpm-store": true,
	".pytest_cache": true, ".ruff_cache": true, ".svn": true,
	".tmp": true, ".tox": true, ".venv": true, ".vs": true,
	".vscode": true, ".yarn": true, "__pycache__": true, "bin": true,
	"bower_components": true, "build": true, "coverage": true, "dist": true,
	"env": true, "htmlcov": true, "node_modules": true, "obj": true,
	"out": true, "Pods": true, "site-packages": true, "target": true,
	"temp": true, "tmp": true, "vendor": true, "venv": true,
}

// IgnoreSuffixes are file suffixes skipped during discovery.
var IgnoreSuffixes = []string{".tmp", "~", ".pyc", ".pyo", ".o", ".a", ".so", ".dll", ".class", ".min.js"}

// IgnoreFileName is the per-repository ignore file read when Options.IgnoreFile is empty.
const IgnoreFileName = ".codeflowignore"

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // slash-separated, relative to repo root
	Language lang.Language // detected language
}

// Options configures file discovery.
type Options struct {
	IgnoreFile       string   // extra ignore file; defaults to <root>/.codeflowignore
	Include          []string // doublestar globs over RelPath; empty keeps everything
	Exclude          []string // doublestar globs over RelPath
	RespectGitignore bool
}

type filter struct {
	extra     []string
	gitignore *ignore.GitIgnore
	include   []string
	exclude   []string
}

func newFilter(root string, opts *Options) (*filter, error) {
	f := &filter{}
	ignPath := filepath.Join(root, IgnoreFileName)
	if opts != nil && opts.IgnoreFile != "" {
		ignPath = opts.IgnoreFile
	}
	f.extra, _ = loadIgnoreFile(ignPath)

	if opts == nil {
		return f, nil
	}
	for _, p := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob %q", p)
		}
	}
	f.include, f.exclude = opts.Include, opts.Exclude
	if opts.RespectGitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			f.gitignore = gi
		}
	}
	return f, nil
}

// skipDir reports whether a directory is pruned from the walk.
func (f *filter) skipDir(name, rel string) bool {
	if IgnoreDirs[name] {
		return true
	}
	if f.gitignore != nil && f.gitignore.MatchesPath(rel+"/") {
		return true
	}
	if matchAny(f.exclude, rel) {
		return true
	}
	return matchExtra(f.extra, name, rel)
}

// keepFile reports whether a file passes every ignore rule and glob filter.
func (f *filter) keepFile(name, rel string) bool {
	for _, suffix := range IgnoreSuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	if f.gitignore != nil && f.gitignore.MatchesPath(rel) {
		return false
	}
	if matchExtra(f.extra, name, rel) || matchAny(f.exclude, rel) {
		return false
	}
	return len(f.include) == 0 || matchAny(f.include, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func matchExtra(patterns []string, name, rel string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks a repository and returns all source files in path order.
func Discover(ctx context.Context, repoPath string, opts *Options) ([]FileInfo, error) {
	repoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := newFilter(repoPath, opts)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	err = filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == repoPath {
			return nil
		}

		rel, _ := filepath.Rel(repoPath, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if f.skipDir(d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !f.keepFile(d.Name(), rel) {
			return nil
		}

		l, ok := lang.LanguageForExtension(filepath.Ext(path))
		if !ok {
			return nil
		}
		files = append(files, FileInfo{Path: path, RelPath: rel, Language: l})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Dirs returns root and every directory under it that discovery descends
// into, as absolute paths.
func Dirs(ctx context.Context, root string, opts *Options) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	f, err := newFilter(root, opts)
	if err != nil {
		return nil, err
	}
	dirs := []string{root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root || !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if f.skipDir(d.Name(), filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// ListFiles returns the absolute paths of files under root with the given
// extension (".py" or "py"). Ignored directories are skipped.
func ListFiles(root, ext string) ([]string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	files, err := Discover(context.Background(), root, nil)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range files {
		if ext == "" || strings.EqualFold(filepath.Ext(f.Path), ext) {
			out = append(out, f.Path)
		}
	}
	return out, nil
}

// ReadFile reads a source file. Invalid UTF-8 sequences are replaced so
// extracted text stays printable.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), "\uFFFD"))
	}
	return data, nil
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
