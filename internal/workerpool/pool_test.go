package workerpool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codeflow/internal/model"
	"github.com/DeusData/codeflow/internal/parser"
)

func okParse(_ *parser.Set, t Task) (*model.FileResult, error) {
	return &model.FileResult{Filename: t.RelPath, Project: t.Project, Success: true}, nil
}

// gatedParse blocks every task until release is closed.
func gatedParse(started chan<- string, release <-chan struct{}) ParseFunc {
	return func(_ *parser.Set, t Task) (*model.FileResult, error) {
		started <- t.RelPath
		<-release
		return &model.FileResult{Filename: t.RelPath, Success: true}, nil
	}
}

func TestInitIsIdempotent(t *testing.T) {
	p := New(3, okParse)
	defer p.Terminate()

	p.Init()
	p.Init()
	assert.Equal(t, 3, p.ActiveWorkerCount())
}

func TestParseFileEchoesCorrelationID(t *testing.T) {
	p := New(1, okParse)
	defer p.Terminate()

	res, err := p.ParseFile(context.Background(), "/r/a.go", "a.go", "proj")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "a.go", res.Filename)
	assert.Len(t, res.CorrelationID, 36)
}

func TestTwoWorkersRunConcurrently(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	p := New(2, gatedParse(started, release))
	p.Init()
	defer p.Terminate()

	var wg sync.WaitGroup
	results := make([]*model.FileResult, 2)
	for i, name := range []string{"a.c", "b.c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.ParseFile(context.Background(), "/r/"+name, name, "p")
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	// Both tasks reach a worker before either finishes.
	got := []string{<-started, <-started}
	assert.ElementsMatch(t, []string{"a.c", "b.c"}, got)
	assert.Equal(t, 2, p.BusyWorkerCount())

	close(release)
	wg.Wait()
	for _, r := range results {
		require.NotNil(t, r)
		assert.True(t, r.Success)
	}
}

func TestQueueIsFIFO(t *testing.T) {
	started := make(chan string, 3)
	release := make(chan struct{})
	p := New(1, gatedParse(started, release))
	p.Init()
	defer p.Terminate()

	go p.ParseFile(context.Background(), "/r/first", "first", "p")
	require.Equal(t, "first", <-started)

	go p.ParseFile(context.Background(), "/r/second", "second", "p")
	require.Eventually(t, func() bool { return p.PendingTaskCount() == 1 }, time.Second, time.Millisecond)
	go p.ParseFile(context.Background(), "/r/third", "third", "p")
	require.Eventually(t, func() bool { return p.PendingTaskCount() == 2 }, time.Second, time.Millisecond)

	close(release)
	assert.Equal(t, "second", <-started)
	assert.Equal(t, "third", <-started)
}

func TestTerminateRejectsQueuedAndLaterTasks(t *testing.T) {
	started := make(chan string, 1)
	release := make(chan struct{})
	p := New(1, gatedParse(started, release))
	p.Init()

	inflight := make(chan *model.FileResult, 1)
	go func() {
		res, _ := p.ParseFile(context.Background(), "/r/busy", "busy", "p")
		inflight <- res
	}()
	<-started

	queued := make(chan error, 1)
	go func() {
		_, err := p.ParseFile(context.Background(), "/r/queued", "queued", "p")
		queued <- err
	}()
	require.Eventually(t, func() bool { return p.PendingTaskCount() == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Terminate()
		close(done)
	}()
	assert.ErrorIs(t, <-queued, ErrTerminated)

	close(release)
	<-done
	assert.True(t, (<-inflight).Success, "in-flight work completes")
	assert.Equal(t, 0, p.ActiveWorkerCount())
	assert.Equal(t, 0, p.PendingTaskCount())

	_, err := p.ParseFile(context.Background(), "/r/late", "late", "p")
	assert.ErrorIs(t, err, ErrTerminated)

	p.Init()
	assert.Equal(t, 0, p.ActiveWorkerCount(), "a terminated pool stays down")
}

func TestWorkerFailureIsPerFile(t *testing.T) {
	p := New(1, func(_ *parser.Set, t Task) (*model.FileResult, error) {
		if strings.HasPrefix(t.RelPath, "bad") {
			return nil, errors.New("malformed")
		}
		if t.RelPath == "panic.c" {
			panic("boom")
		}
		return &model.FileResult{Filename: t.RelPath, Success: true}, nil
	})
	defer p.Terminate()

	bad, err := p.ParseFile(context.Background(), "/r/bad.c", "bad.c", "p")
	require.NoError(t, err)
	assert.False(t, bad.Success)
	assert.Equal(t, "malformed", bad.Error)
	assert.Equal(t, "bad.c", bad.Filename)

	crashed, err := p.ParseFile(context.Background(), "/r/panic.c", "panic.c", "p")
	require.NoError(t, err)
	assert.False(t, crashed.Success)
	assert.Contains(t, crashed.Error, "boom")

	good, err := p.ParseFile(context.Background(), "/r/good.c", "good.c", "p")
	require.NoError(t, err)
	assert.True(t, good.Success, "the pool survives failures")

	assert.Equal(t, float64(2), testutil.ToFloat64(p.results.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.results.WithLabelValues("success")))
}

func TestParseFileContextWithdrawsQueuedTask(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	p := New(1, gatedParse(started, release))
	p.Init()
	defer p.Terminate()
	defer close(release)

	go p.ParseFile(context.Background(), "/r/busy", "busy", "p")
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.ParseFile(ctx, "/r/late", "late", "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, p.PendingTaskCount())
}

func TestCollectorsRegister(t *testing.T) {
	p := New(2, okParse)
	p.Init()
	defer p.Terminate()

	reg := prometheus.NewRegistry()
	for _, c := range p.Collectors() {
		require.NoError(t, reg.Register(c))
	}
	n, err := testutil.GatherAndCount(reg, "codeflow_pool_active_workers")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, float64(2), testutil.ToFloat64(p.gauges[0]))
}

func TestHarvestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.py")
	require.NoError(t, os.WriteFile(path, []byte("def run():\n    helper()\n"), 0o644))

	p := New(1, nil)
	defer p.Terminate()

	res, err := p.ParseFile(context.Background(), path, "m.py", "proj")
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "python", res.Language)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "run", res.Entities[0].Symbol)
	require.Len(t, res.Calls, 1)
	assert.Equal(t, "helper", res.Calls[0].Callee)
	assert.NotEmpty(t, res.Hash)

	missing, err := p.ParseFile(context.Background(), filepath.Join(dir, "gone.py"), "gone.py", "proj")
	require.NoError(t, err)
	assert.False(t, missing.Success)
}
