package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/codeflow/internal/indexer"
	"github.com/DeusData/codeflow/internal/tools"
	"github.com/DeusData/codeflow/internal/watcher"
)

func newWatchCmd(c *cli) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Index a repository and re-index it as files change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runUntilSignal(cmd.Context(), func(ctx context.Context) error {
				serveMetrics(ctx, c.cfg.Metrics.Addr, a.collectors()...)
				w, err := c.startWatch(ctx, project, args[0], a.indexer.Index)
				if err != nil {
					return err
				}
				return w.Run(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name (default: derived from the path)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func newMCPCmd(c *cli) *cobra.Command {
	var watchPath string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analysis tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			tools.Version = version
			srv := tools.NewServer(a.store, a.indexer, tools.Options{
				MaxDepth:   c.cfg.CallGraph.MaxDepth,
				LabelWidth: c.cfg.CFG.LabelWidth,
			})

			return runUntilSignal(cmd.Context(), func(ctx context.Context) error {
				serveMetrics(ctx, c.cfg.Metrics.Addr, a.collectors()...)
				if watchPath == "" {
					return srv.Run(ctx)
				}

				w, err := c.startWatch(ctx, "", watchPath, srv.Index)
				if err != nil {
					return err
				}
				// The session ending also stops the watcher.
				ctx, cancel := context.WithCancel(ctx)
				defer cancel()
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error { return w.Run(ctx) })
				g.Go(func() error {
					defer cancel()
					return srv.Run(ctx)
				})
				return g.Wait()
			})
		},
	}
	cmd.Flags().StringVar(&watchPath, "watch", "", "index this repository and keep it fresh while serving")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

type indexFn func(ctx context.Context, project, root string) (*indexer.Summary, error)

// startWatch indexes root once and returns a watcher that re-indexes it on
// change. The project name is fixed up front so the watcher and later tool
// calls agree on it. A configured rescan schedule runs until ctx ends.
func (c *cli) startWatch(ctx context.Context, project, root string, index indexFn) (*watcher.Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	if project == "" {
		project = indexer.ProjectNameFromPath(abs)
	}
	if _, err := index(ctx, project, abs); err != nil {
		return nil, err
	}
	w, err := watcher.New(project, abs, func(ctx context.Context, project, root string) error {
		sum, err := index(ctx, project, root)
		if err != nil {
			return err
		}
		slog.Info("watch.reindexed", "project", project, "added", sum.Added,
			"changed", sum.Changed, "removed", sum.Removed, "elapsed", sum.Elapsed)
		return nil
	}, watcher.Options{
		Debounce: c.cfg.Watch.Debounce,
		Discover: c.cfg.DiscoverOptions(),
	})
	if err != nil {
		return nil, err
	}
	if spec := c.cfg.Watch.Rescan; spec != "" {
		sched := cron.New()
		if _, err := sched.AddFunc(spec, w.Rescan); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch.rescan: %w", err)
		}
		sched.Start()
		go func() {
			<-ctx.Done()
			sched.Stop()
		}()
		slog.Info("watch.rescan", "project", project, "schedule", spec)
	}
	return w, nil
}
