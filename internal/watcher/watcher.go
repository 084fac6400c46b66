// Package watcher re-indexes a project when its source files change.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/DeusData/codeflow/internal/discover"
	"github.com/DeusData/codeflow/internal/lang"
)

// DefaultDebounce is the quiet period after the last event before a change
// is acted on.
const DefaultDebounce = 500 * time.Millisecond

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// IndexFunc is the callback signature for triggering a re-index.
type IndexFunc func(ctx context.Context, project, root string) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Discover discover.Options
}

// Watcher turns file system events under one project root into debounced
// re-index calls. Events only arm the timer; a re-index runs when the set of
// discovered files or their mtime/size actually differs from the last
// indexed snapshot.
type Watcher struct {
	project string
	root    string
	indexFn IndexFunc
	opts    Options

	fsw      *fsnotify.Watcher
	watched  map[string]bool
	snapshot map[string]fileSnapshot
	rescan   chan struct{}
}

// New watches every non-ignored directory under root and records the
// current file tree as the baseline.
func New(project, root string, indexFn IndexFunc, opts Options) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		project: project,
		root:    root,
		indexFn: indexFn,
		opts:    opts,
		fsw:     fsw,
		watched: make(map[string]bool),
		rescan:  make(chan struct{}, 1),
	}
	ctx := context.Background()
	if err := w.addDirs(ctx); err != nil {
		fsw.Close()
		return nil, err
	}
	if w.snapshot, err = captureSnapshot(ctx, root, &opts.Discover); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	slog.Info("watch.start", "project", w.project, "path", w.root, "dirs", len(w.watched), "files", len(w.snapshot))

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ctx, ev) {
				timer.Reset(w.opts.Debounce)
				fire = timer.C
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch.err", "project", w.project, "err", err)
		case <-fire:
			fire = nil
			w.flush(ctx)
		case <-w.rescan:
			if err := w.addDirs(ctx); err != nil {
				slog.Warn("watch.add_dir", "path", w.root, "err", err)
			}
			w.flush(ctx)
		}
	}
}

// Rescan asks Run to compare the tree against the last snapshot now,
// for changes the event stream missed. It never blocks; requests made while
// one is pending are merged.
func (w *Watcher) Rescan() {
	select {
	case w.rescan <- struct{}{}:
	default:
	}
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// relevant reports whether ev can change the indexed file set. New
// directories are watched as they appear.
func (w *Watcher) relevant(ctx context.Context, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addDirs(ctx); err != nil {
				slog.Warn("watch.add_dir", "path", ev.Name, "err", err)
			}
			return true
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return true
	}
	_, ok := lang.LanguageForExtension(filepath.Ext(ev.Name))
	return ok
}

// flush re-indexes when the file tree differs from the last snapshot. On
// failure the old snapshot is kept so the next change retries.
func (w *Watcher) flush(ctx context.Context) {
	snap, err := captureSnapshot(ctx, w.root, &w.opts.Discover)
	if err != nil {
		slog.Warn("watch.snapshot", "project", w.project, "err", err)
		return
	}
	if snapshotsEqual(w.snapshot, snap) {
		slog.Debug("watch.noop", "project", w.project)
		return
	}

	slog.Info("watch.change", "project", w.project, "files", len(snap))
	if err := w.indexFn(ctx, w.project, w.root); err != nil {
		slog.Warn("watch.index", "project", w.project, "err", err)
		return
	}
	w.snapshot = snap
}

// addDirs adds a watch for every discovered directory not yet watched.
func (w *Watcher) addDirs(ctx context.Context) error {
	dirs, err := discover.Dirs(ctx, w.root, &w.opts.Discover)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if w.watched[d] {
			continue
		}
		if err := w.fsw.Add(d); err != nil {
			slog.Warn("watch.add", "path", d, "err", err)
			continue
		}
		w.watched[d] = true
	}
	return nil
}

// captureSnapshot walks the file tree using discover.Discover and captures
// mtime+size for each file.
func captureSnapshot(ctx context.Context, root string, opts *discover.Options) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap, nil
}

// snapshotsEqual returns true if two snapshots have identical files with same mtime+size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}
