// Package workerpool runs file parses on a fixed set of workers, each owning
// its own parser state.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/DeusData/codeflow/internal/model"
	"github.com/DeusData/codeflow/internal/parser"
)

// ErrTerminated is returned for tasks submitted to, or still queued in, a
// terminated pool.
var ErrTerminated = errors.New("worker pool terminated")

// Task is one file to parse.
type Task struct {
	ID      string
	AbsPath string
	RelPath string
	Project string
}

// ParseFunc parses one file with the calling worker's parser set. A returned
// error becomes a failed FileResult; it never stops the worker.
type ParseFunc func(set *parser.Set, t Task) (*model.FileResult, error)

type outcome struct {
	res *model.FileResult
	err error
}

type job struct {
	task Task
	done chan outcome
}

// Pool is a fixed-size FIFO worker pool.
type Pool struct {
	size  int
	parse ParseFunc

	mu         sync.Mutex
	cond       *sync.Cond
	queue      []*job
	started    bool
	terminated bool
	active     int
	busy       int
	wg         sync.WaitGroup

	results *prometheus.CounterVec
	gauges  []prometheus.Collector
}

// New returns a pool of size workers. size < 1 means one worker; a nil parse
// uses HarvestFile.
func New(size int, parse ParseFunc) *Pool {
	if size < 1 {
		size = 1
	}
	if parse == nil {
		parse = HarvestFile
	}
	p := &Pool{
		size:  size,
		parse: parse,
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codeflow",
			Subsystem: "pool",
			Name:      "results_total",
			Help:      "Parse tasks completed, by outcome.",
		}, []string{"outcome"}),
	}
	p.cond = sync.NewCond(&p.mu)
	p.gauges = []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codeflow",
			Subsystem: "pool",
			Name:      "active_workers",
			Help:      "Workers alive in the pool.",
		}, func() float64 { return float64(p.ActiveWorkerCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codeflow",
			Subsystem: "pool",
			Name:      "pending_tasks",
			Help:      "Tasks waiting for a free worker.",
		}, func() float64 { return float64(p.PendingTaskCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codeflow",
			Subsystem: "pool",
			Name:      "busy_workers",
			Help:      "Workers currently parsing.",
		}, func() float64 { return float64(p.BusyWorkerCount()) }),
	}
	return p
}

// Init spawns the workers. Repeated calls are no-ops, as are calls after
// Terminate.
func (p *Pool) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.terminated {
		return
	}
	p.started = true
	p.active = p.size
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	slog.Debug("pool.init", "workers", p.size)
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	set := parser.NewSet()
	defer set.Close()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.terminated {
			p.cond.Wait()
		}
		if p.terminated {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue = p.queue[1:]
		p.busy++
		p.mu.Unlock()

		j.done <- p.run(set, j.task, n)

		p.mu.Lock()
		p.busy--
		p.mu.Unlock()
	}
}

// run executes one task. Failures, including panics in the parse function,
// come back as unsuccessful results.
func (p *Pool) run(set *parser.Set, t Task, worker int) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pool.task.panic", "worker", worker, "file", t.RelPath, "panic", r)
			out = outcome{res: failure(t, fmt.Errorf("panic: %v", r))}
			p.results.WithLabelValues("failure").Inc()
		}
	}()

	res, err := p.parse(set, t)
	if err != nil {
		slog.Warn("pool.task.err", "worker", worker, "file", t.RelPath, "err", err)
		res = failure(t, err)
	}
	res.CorrelationID = t.ID
	if res.Success {
		p.results.WithLabelValues("success").Inc()
	} else {
		p.results.WithLabelValues("failure").Inc()
	}
	return outcome{res: res}
}

func failure(t Task, err error) *model.FileResult {
	return &model.FileResult{
		CorrelationID: t.ID,
		Project:       t.Project,
		Filename:      t.RelPath,
		Path:          t.AbsPath,
		Success:       false,
		Error:         err.Error(),
	}
}

// ParseFile queues a file and waits for its result. It starts the pool if
// Init was not called. If ctx ends first, a still-queued task is withdrawn;
// a running one is abandoned.
func (p *Pool) ParseFile(ctx context.Context, absPath, relPath, project string) (*model.FileResult, error) {
	p.Init()

	j := &job{
		task: Task{ID: uuid.NewString(), AbsPath: absPath, RelPath: relPath, Project: project},
		done: make(chan outcome, 1),
	}

	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		p.results.WithLabelValues("terminated").Inc()
		return nil, ErrTerminated
	}
	p.queue = append(p.queue, j)
	p.cond.Signal()
	p.mu.Unlock()

	select {
	case o := <-j.done:
		return o.res, o.err
	case <-ctx.Done():
		p.withdraw(j)
		return nil, ctx.Err()
	}
}

func (p *Pool) withdraw(j *job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, q := range p.queue {
		if q == j {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return
		}
	}
}

// Terminate stops the workers, rejects every queued task with ErrTerminated
// and waits for in-flight parses to finish. Later ParseFile calls fail
// immediately.
func (p *Pool) Terminate() {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return
	}
	p.terminated = true
	rejected := p.queue
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, j := range rejected {
		p.results.WithLabelValues("terminated").Inc()
		j.done <- outcome{err: ErrTerminated}
	}
	p.wg.Wait()

	p.mu.Lock()
	p.active = 0
	p.mu.Unlock()
	slog.Debug("pool.terminate", "rejected", len(rejected))
}

// ActiveWorkerCount returns the number of live workers.
func (p *Pool) ActiveWorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// PendingTaskCount returns the number of queued tasks.
func (p *Pool) PendingTaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// BusyWorkerCount returns the number of workers parsing right now.
func (p *Pool) BusyWorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.size
}

// Collectors returns the pool's metrics for registration.
func (p *Pool) Collectors() []prometheus.Collector {
	return append([]prometheus.Collector{p.results}, p.gauges...)
}
