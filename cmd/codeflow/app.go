package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/DeusData/codeflow/internal/indexer"
	"github.com/DeusData/codeflow/internal/store"
	"github.com/DeusData/codeflow/internal/workerpool"
)

// app is the opened engine: store, parser pool and indexer.
type app struct {
	store   *store.Store
	pool    *workerpool.Pool
	indexer *indexer.Indexer
}

func (c *cli) openStore() (*store.Store, error) {
	path := c.cfg.Store.Path
	if path == "" {
		p, err := store.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return store.OpenPath(path)
}

func (c *cli) openApp() (*app, error) {
	s, err := c.openStore()
	if err != nil {
		return nil, err
	}
	pool := workerpool.New(c.cfg.Pool.Workers, nil)
	ix := indexer.New(s, pool, indexer.Options{
		BatchSize: c.cfg.Index.BatchSize,
		Discover:  c.cfg.DiscoverOptions(),
	})
	return &app{store: s, pool: pool, indexer: ix}, nil
}

func (a *app) Close() {
	a.pool.Terminate()
	if err := a.store.Close(); err != nil {
		slog.Warn("store.close.err", "err", err)
	}
}

func (a *app) collectors() []prometheus.Collector {
	return append(a.pool.Collectors(), a.indexer.Collectors()...)
}

// serveMetrics exposes cs on addr until ctx ends. An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, cs ...prometheus.Collector) {
	if addr == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: metricsRouter(cs...), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("metrics.listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics.err", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// metricsRouter serves /metrics for cs plus the Go runtime, and /healthz.
func metricsRouter(cs ...prometheus.Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(cs...)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	return r
}

// write renders v as indented JSON or YAML.
func write(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}
