package podcast

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// WorkFunc performs one task and reports its outcome. It must not panic for expected failures.
type WorkFunc func(ctx context.Context, task *DownloadTask) *DownloadOutcome

// Dispatcher runs download tasks on a fixed number of workers.
type Dispatcher struct {
	// threads is the number of workers.
	threads int
}

var (
	// ErrWorkerPanic indicates that a task panicked and was reported as failed.
	ErrWorkerPanic = errors.New("worker panic")
	// ErrNoOutcome indicates that a task returned no outcome.
	ErrNoOutcome = errors.New("task returned no outcome")
)

// NewDispatcher creates a dispatcher with the given number of workers.
// Values below one are treated as one.
func NewDispatcher(threads int) *Dispatcher {
	return &Dispatcher{threads: max(threads, 1)}
}

// Run attempts every task once and returns the outcomes ordered by task index.
// With one worker, tasks run in order on the calling goroutine. Otherwise
// min(threads, len(tasks)) workers pull from a shared queue.
// Cancelling ctx stops handing out new tasks; tasks already started finish.
func (d *Dispatcher) Run(ctx context.Context, tasks []*DownloadTask, work WorkFunc) []*DownloadOutcome {
	if len(tasks) == 0 {
		return nil
	}

	if d.threads == 1 {
		return d.runSequential(ctx, tasks, work)
	}

	return d.runConcurrent(ctx, tasks, work)
}

func (d *Dispatcher) runSequential(ctx context.Context, tasks []*DownloadTask, work WorkFunc) []*DownloadOutcome {
	outcomes := make([]*DownloadOutcome, 0, len(tasks))

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			return outcomes
		default:
		}

		outcomes = append(outcomes, safeWork(ctx, task, work))
	}

	return outcomes
}

func (d *Dispatcher) runConcurrent(ctx context.Context, tasks []*DownloadTask, work WorkFunc) []*DownloadOutcome {
	var (
		queue    = make(chan *DownloadTask)
		outcomes = make([]*DownloadOutcome, 0, len(tasks))
		mu       sync.Mutex
		wg       sync.WaitGroup
	)

	workers := min(d.threads, len(tasks))
	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for task := range queue {
				outcome := safeWork(ctx, task, work)

				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			break feed
		case queue <- task:
		}
	}

	close(queue)
	wg.Wait()

	slices.SortFunc(outcomes, func(a, b *DownloadOutcome) int {
		return a.Task.Index - b.Task.Index
	})

	return outcomes
}

// safeWork runs work and turns a panic into a failed outcome, and a nil result into a failed one.
func safeWork(ctx context.Context, task *DownloadTask, work WorkFunc) (outcome *DownloadOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = &DownloadOutcome{
				Task: task,
				Err:  fmt.Errorf("%w: %v", ErrWorkerPanic, r),
			}
		}
	}()

	outcome = work(ctx, task)
	if outcome == nil {
		outcome = &DownloadOutcome{Task: task, Err: ErrNoOutcome}
	}

	return outcome
}
