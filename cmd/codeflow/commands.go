package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeusData/codeflow/internal/callgraph"
	"github.com/DeusData/codeflow/internal/cfg"
	"github.com/DeusData/codeflow/internal/discover"
	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/store"
)

func newIndexCmd(c *cli) *cobra.Command {
	var project, format string
	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index or refresh a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			serveMetrics(ctx, c.cfg.Metrics.Addr, a.collectors()...)

			sum, err := a.indexer.Index(ctx, project, args[0])
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), format, sum)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name (default: derived from the path)")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func newEntitiesCmd(c *cli) *cobra.Command {
	var (
		params store.SearchParams
		format string
	)
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Search indexed functions, classes and structs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			proj, err := s.ResolveProject(ctx, params.Project)
			if err != nil {
				return err
			}
			params.Project = proj.Name
			out, err := s.Search(ctx, params)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), format, out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&params.Project, "project", "", "project name (optional when only one is indexed)")
	f.StringVar(&params.Kind, "kind", "", "entity kind (function, class, struct)")
	f.StringVar(&params.NamePattern, "name", "", "regex over the symbol")
	f.StringVar(&params.FilePattern, "file", "", "glob over the file path")
	f.IntVar(&params.Limit, "limit", 100, "maximum results")
	f.IntVar(&params.Offset, "offset", 0, "results to skip")
	f.StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

func newCFGCmd(c *cli) *cobra.Command {
	var (
		line, endLine int
		format        string
	)
	cmd := &cobra.Command{
		Use:   "cfg <file>",
		Short: "Build the control-flow graph of the function at a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			l, ok := lang.LanguageForExtension(filepath.Ext(path))
			if !ok {
				return fmt.Errorf("unsupported file type: %s", path)
			}
			src, err := discover.ReadFile(path)
			if err != nil {
				return err
			}
			if endLine < line {
				endLine = line
			}
			g := cfg.SynthesizeFromSource(src, string(l), line, endLine, cfg.WithLabelWidth(c.cfg.CFG.LabelWidth))
			if err := g.Err(); err != nil {
				return err
			}
			if format == "mermaid" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), g.Mermaid())
				return err
			}
			return write(cmd.OutOrStdout(), format, g)
		},
	}
	cmd.Flags().IntVar(&line, "line", 0, "a line inside the function (1-based)")
	cmd.Flags().IntVar(&endLine, "end-line", 0, "last line of the range (default: --line)")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml, mermaid)")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func newCallGraphCmd(c *cli) *cobra.Command {
	var (
		project, format string
		depth           int
	)
	cmd := &cobra.Command{
		Use:   "callgraph <symbol>",
		Short: "Show callers and callees of a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			proj, err := s.ResolveProject(ctx, project)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("depth") {
				depth = c.cfg.CallGraph.MaxDepth
			}
			g, err := callgraph.Build(ctx, s, args[0], proj.Name, max(depth, 0))
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), format, g)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name (optional when only one is indexed)")
	cmd.Flags().IntVar(&depth, "depth", 3, "maximum traversal depth")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

func newRefsCmd(c *cli) *cobra.Command {
	var project, format string
	cmd := &cobra.Command{
		Use:   "refs <symbol>",
		Short: "List every occurrence of an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			proj, err := s.ResolveProject(ctx, project)
			if err != nil {
				return err
			}
			refs, err := s.FindReferences(ctx, proj.Name, args[0])
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), format, refs)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name (optional when only one is indexed)")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

func newProjectsCmd(c *cli) *cobra.Command {
	var del, format string
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List indexed projects, or delete one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if del != "" {
				p, err := s.GetProject(ctx, del)
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("project not found: %s", del)
				}
				return s.DeleteProject(ctx, del)
			}

			type projectInfo struct {
				store.Project `yaml:",inline"`
				Stats         *store.Stats `json:"stats" yaml:"stats"`
			}
			projects, err := s.ListProjects(ctx)
			if err != nil {
				return err
			}
			out := make([]projectInfo, 0, len(projects))
			for _, p := range projects {
				st, err := s.GetStats(ctx, p.Name)
				if err != nil {
					return err
				}
				out = append(out, projectInfo{Project: *p, Stats: st})
			}
			return write(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().StringVar(&del, "delete", "", "delete the named project")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

// runUntilSignal runs fn with a context cancelled by SIGINT or SIGTERM and
// treats that cancellation as a clean exit.
func runUntilSignal(parent context.Context, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
