// Package stage runs batches of operations with bounded parallelism and
// aggregates their outcomes under a quota.
package stage

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is the executor's view of a work item.
type Task interface {
	Start(ctx context.Context)
	Cancel()
}

// CompletionFunc is notified once per task after the task is terminal.
// Calls are serialized. stop is idempotent and halts the whole batch.
type CompletionFunc func(index int, stop func())

// Executor runs tasks with at most a fixed number active at once.
type Executor struct {
	concurrency int
}

// NewExecutor builds an executor; concurrency below 1 is raised to 1.
func NewExecutor(concurrency int) *Executor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Executor{concurrency: concurrency}
}

// Concurrency returns the maximum number of simultaneously running tasks.
func (e *Executor) Concurrency() int {
	return e.concurrency
}

// Run admits tasks in order and blocks until every goroutine it started has
// returned and every completion has been delivered. Cancelling ctx, or calling
// stop from onComplete, stops admission and cancels all tasks.
// Tasks get a context detached from ctx's cancellation and are aborted only
// through Cancel, which marks them before aborting.
func (e *Executor) Run(ctx context.Context, tasks []Task, onComplete CompletionFunc) {
	if len(tasks) == 0 {
		return
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			for _, task := range tasks {
				task.Cancel()
			}
			cancelRun()
		})
	}
	unwatch := context.AfterFunc(ctx, stop)
	defer unwatch()

	completions := make(chan int, len(tasks))
	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		for index := range completions {
			if onComplete != nil {
				onComplete(index, stop)
			}
		}
	}()

	taskCtx := context.WithoutCancel(runCtx)

	var group errgroup.Group
	group.SetLimit(e.concurrency)

	admitted := 0
	for index, task := range tasks {
		if runCtx.Err() != nil {
			stop()
			break
		}
		group.Go(func() error {
			task.Start(taskCtx)
			completions <- index
			return nil
		})
		admitted++
	}
	_ = group.Wait()

	// Never-admitted tasks were cancelled by stop; report them too.
	for index := admitted; index < len(tasks); index++ {
		completions <- index
	}
	close(completions)
	<-delivered
}
