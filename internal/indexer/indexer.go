// Package indexer imports a repository into the store: discover files, parse
// them on the worker pool, then persist entities and their relationships in
// one transaction.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/codeflow/internal/discover"
	"github.com/DeusData/codeflow/internal/model"
	"github.com/DeusData/codeflow/internal/store"
)

// DefaultBatchSize is the number of files in flight per dispatch round.
const DefaultBatchSize = 64

// FileParser parses one file. *workerpool.Pool implements it.
type FileParser interface {
	ParseFile(ctx context.Context, absPath, relPath, project string) (*model.FileResult, error)
}

// Options configures an Indexer.
type Options struct {
	BatchSize int
	Discover  discover.Options
}

// Failure is a file that could not be parsed.
type Failure struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// Summary reports what an Index run found and changed.
type Summary struct {
	Project      string        `json:"project" yaml:"project"`
	Root         string        `json:"root" yaml:"root"`
	Files        int           `json:"files" yaml:"files"`
	FilesChanged int           `json:"files_changed" yaml:"files_changed"`
	Failures     []Failure     `json:"failures,omitempty" yaml:"failures,omitempty"`
	Entities     int           `json:"entities" yaml:"entities"`
	CallEdges    int           `json:"call_edges" yaml:"call_edges"`
	Dangling     int           `json:"dangling_calls" yaml:"dangling_calls"`
	Inheritance  int           `json:"inheritance" yaml:"inheritance"`
	Occurrences  int           `json:"occurrences" yaml:"occurrences"`
	Added        int           `json:"added" yaml:"added"`
	Removed      int           `json:"removed" yaml:"removed"`
	Changed      int           `json:"changed" yaml:"changed"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Indexer orchestrates project imports.
type Indexer struct {
	store  *store.Store
	parser FileParser
	opts   Options

	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates an Indexer writing to s and parsing through p.
func New(s *store.Store, p FileParser, opts Options) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Indexer{
		store:  s,
		parser: p,
		opts:   opts,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codeflow",
			Subsystem: "index",
			Name:      "runs_total",
			Help:      "Index runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codeflow",
			Subsystem: "index",
			Name:      "duration_seconds",
			Help:      "Wall time of successful index runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

// Collectors returns the indexer's metrics for registration.
func (ix *Indexer) Collectors() []prometheus.Collector {
	return []prometheus.Collector{ix.runs, ix.duration}
}

// ProjectNameFromPath derives a project name from an absolute path by
// replacing path separators with dashes.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.TrimLeft(strings.ReplaceAll(cleaned, "/", "-"), "-")
	if name == "" {
		return "root"
	}
	return name
}

// Index imports or refreshes project from root. The previous snapshot is
// replaced atomically; a failed run leaves it untouched.
func (ix *Indexer) Index(ctx context.Context, project, root string) (*Summary, error) {
	sum, err := ix.index(ctx, project, root)
	if err != nil {
		ix.runs.WithLabelValues("error").Inc()
		return nil, err
	}
	ix.runs.WithLabelValues("ok").Inc()
	ix.duration.Observe(sum.Elapsed.Seconds())
	return sum, nil
}

func (ix *Indexer) index(ctx context.Context, project, root string) (*Summary, error) {
	start := time.Now()
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if project == "" {
		project = ProjectNameFromPath(root)
	}
	slog.Info("index.start", "project", project, "path", root)

	files, err := discover.Discover(ctx, root, &ix.opts.Discover)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	slog.Info("index.discovered", "files", len(files))

	results, err := ix.parseAll(ctx, project, files)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Project: project, Root: root, Files: len(files)}
	var ok []*model.FileResult
	for _, r := range results {
		if !r.Success {
			slog.Warn("index.file.err", "path", r.Filename, "err", r.Error)
			sum.Failures = append(sum.Failures, Failure{File: r.Filename, Error: r.Error})
			continue
		}
		ok = append(ok, r)
	}

	if err := ix.store.WithTransaction(ctx, func(tx *store.Store) error {
		return persist(ctx, tx, project, root, ok, sum)
	}); err != nil {
		return nil, err
	}

	sum.Elapsed = time.Since(start)
	slog.Info("index.done", "project", project, "files", sum.Files, "failed", len(sum.Failures),
		"entities", sum.Entities, "calls", sum.CallEdges, "dangling", sum.Dangling,
		"added", sum.Added, "removed", sum.Removed, "changed", sum.Changed, "elapsed", sum.Elapsed)
	return sum, nil
}

// parseAll dispatches files to the parser in batches and returns the results
// in file order.
func (ix *Indexer) parseAll(ctx context.Context, project string, files []discover.FileInfo) ([]*model.FileResult, error) {
	results := make([]*model.FileResult, len(files))
	for lo := 0; lo < len(files); lo += ix.opts.BatchSize {
		hi := min(lo+ix.opts.BatchSize, len(files))
		g, gctx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			f := files[i]
			g.Go(func() error {
				r, err := ix.parser.ParseFile(gctx, f.Path, f.RelPath, project)
				if err != nil {
					return fmt.Errorf("parse %s: %w", f.RelPath, err)
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		slog.Debug("index.batch", "done", hi, "total", len(files))
	}
	return results, nil
}

// persist replaces the project's snapshot with results.
func persist(ctx context.Context, tx *store.Store, project, root string, results []*model.FileResult, sum *Summary) error {
	if err := tx.UpsertProject(ctx, project, root); err != nil {
		return err
	}

	oldHashes, err := tx.GetFileHashes(ctx, project)
	if err != nil {
		return err
	}
	prev, err := tx.LoadEntities(ctx, project)
	if err != nil {
		return err
	}

	var ents []model.Entity
	for _, r := range results {
		ents = append(ents, r.Entities...)
		if oldHashes[r.Filename] != r.Hash {
			sum.FilesChanged++
		}
	}

	removed := diffEntities(prev, ents, sum)
	if err := tx.DeleteEntitiesByID(ctx, removed); err != nil {
		return err
	}
	if err := tx.SaveEntities(ctx, ents); err != nil {
		return err
	}
	sum.Entities = len(ents)

	if err := tx.ClearEdges(ctx, project); err != nil {
		return err
	}
	reg := NewRegistry(ents)

	calls := resolveCalls(project, results, reg)
	if err := tx.SaveCallEdges(ctx, calls); err != nil {
		return err
	}
	sum.CallEdges = len(calls)
	for _, c := range calls {
		if c.CalleeID == nil {
			sum.Dangling++
		}
	}

	inh := resolveInheritance(results, reg)
	if err := tx.SaveInheritance(ctx, inh); err != nil {
		return err
	}
	sum.Inheritance = len(inh)

	if err := tx.DeleteOccurrences(ctx, project); err != nil {
		return err
	}
	for _, r := range results {
		if err := tx.SaveOccurrences(ctx, project, r.Occurrences); err != nil {
			return err
		}
		sum.Occurrences += len(r.Occurrences)
	}

	if err := tx.DeleteFileHashes(ctx, project); err != nil {
		return err
	}
	for _, r := range results {
		if err := tx.UpsertFileHash(ctx, project, r.Filename, r.Hash); err != nil {
			return err
		}
	}
	return nil
}

// diffEntities counts added, changed and removed entities between two
// snapshots and returns the ids of the removed ones. Entities are matched by
// key; a differing source hash marks a change.
func diffEntities(prev, next []model.Entity, sum *Summary) []int64 {
	old := make(map[model.Key]model.Entity, len(prev))
	for _, e := range prev {
		old[e.Key()] = e
	}
	for _, e := range next {
		k := e.Key()
		p, ok := old[k]
		switch {
		case !ok:
			sum.Added++
		case p.SourceHash != e.SourceHash:
			sum.Changed++
		}
		delete(old, k)
	}
	removed := make([]int64, 0, len(old))
	for _, e := range old {
		removed = append(removed, e.ID)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	sum.Removed = len(removed)
	return removed
}

// resolveCalls attributes every call site to its enclosing function and
// resolves the callee by name. Calls outside any function have no caller and
// are dropped.
func resolveCalls(project string, results []*model.FileResult, reg *Registry) []model.CallEdge {
	type edgeKey struct {
		caller int64
		callee string
		line   int
	}
	seen := make(map[edgeKey]bool)
	var edges []model.CallEdge
	for _, r := range results {
		for _, c := range r.Calls {
			caller := reg.Enclosing(r.Filename, c.StartByte)
			if caller == nil {
				continue
			}
			k := edgeKey{caller.ID, c.Callee, c.Line}
			if seen[k] {
				continue
			}
			seen[k] = true
			edge := model.CallEdge{
				Project:      project,
				CallerID:     caller.ID,
				CalleeSymbol: c.Callee,
				Line:         c.Line,
				Comment:      c.Comment,
			}
			if callee := reg.Resolve(c.Callee, r.Filename); callee != nil {
				id := callee.ID
				edge.CalleeID = &id
			}
			edges = append(edges, edge)
		}
	}
	return edges
}

// resolveInheritance binds each relation's child to the type defined in the
// same file and its parent to a project type when one matches.
func resolveInheritance(results []*model.FileResult, reg *Registry) []model.InheritanceEdge {
	type relKey struct {
		child  int64
		parent string
	}
	seen := make(map[relKey]bool)
	var out []model.InheritanceEdge
	for _, r := range results {
		for _, e := range r.Inheritance {
			child := reg.Child(e.ChildSymbol, r.Filename)
			if child == nil {
				continue
			}
			k := relKey{child.ID, e.ParentSymbol}
			if seen[k] {
				continue
			}
			seen[k] = true
			e.ChildID = child.ID
			if parent := reg.ResolveType(e.ParentSymbol, r.Filename); parent != nil && parent.ID != child.ID {
				id := parent.ID
				e.ParentID = &id
			}
			out = append(out, e)
		}
	}
	return out
}
