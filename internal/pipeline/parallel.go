package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

// Task is one independent unit of work for the parallel runner: a whole
// document. Windows inside each document stay strictly sequential; the
// parallelism is across documents only.
type Task struct {
	ID       string
	Document *document.Document
}

// TaskResult pairs a task with its pipeline result.
type TaskResult struct {
	ID     string
	Result *Result
}

// Runner processes independent documents concurrently under a counting
// permit sized from provider configuration. A shared inter-dispatch delay
// keeps the aggregate request rate within provider limits.
type Runner struct {
	build   func() (*Orchestrator, error)
	workers int64
	delay   time.Duration

	mu           sync.Mutex
	lastDispatch time.Time
	completed    atomic.Int64
}

// NewRunner creates a runner. build is invoked once per task so each
// worker gets its own orchestrator (and recovery state).
func NewRunner(build func() (*Orchestrator, error), workers int, delay time.Duration) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		build:   build,
		workers: int64(workers),
		delay:   delay,
	}
}

// Completed returns how many tasks have finished, for UI feedback.
func (r *Runner) Completed() int {
	return int(r.completed.Load())
}

// Run processes all tasks and returns results in task order. Each worker
// writes only to its own result slot; no cross-worker coordination beyond
// the permit, the dispatch gate and the progress counter is needed.
func (r *Runner) Run(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))
	sem := semaphore.NewWeighted(r.workers)
	var wg sync.WaitGroup

	for i, task := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = TaskResult{ID: task.ID, Result: &Result{Err: err}}
			continue
		}

		wg.Add(1)
		go func(slot int, task Task) {
			defer wg.Done()
			defer sem.Release(1)

			r.gateDispatch()

			orch, err := r.build()
			if err != nil {
				results[slot] = TaskResult{ID: task.ID, Result: &Result{Err: err}}
				r.completed.Add(1)
				return
			}

			log.Info("Translating document %s (%d entries)", task.ID, task.Document.Len())
			results[slot] = TaskResult{ID: task.ID, Result: orch.Run(ctx, task.Document)}
			r.completed.Add(1)
		}(i, task)
	}

	wg.Wait()
	return results
}

// gateDispatch enforces the shared minimum spacing between dispatches.
func (r *Runner) gateDispatch() {
	if r.delay <= 0 {
		return
	}
	r.mu.Lock()
	now := time.Now()
	wait := r.delay - now.Sub(r.lastDispatch)
	if wait < 0 {
		wait = 0
	}
	r.lastDispatch = now.Add(wait)
	r.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}
