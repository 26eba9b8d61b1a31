package stage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"SalesScanner/internal/operation"
)

// Collect runs ops on exec and aggregates their outcomes under quota.
// It returns after every operation is terminal.
func Collect[In, Out any](
	ctx context.Context,
	exec *Executor,
	name string,
	ops []*operation.Operation[In, Out],
	quota Quota,
	logger *zap.Logger,
) Result[Out] {
	agg := NewAggregator[Out](name, quota, logger)

	tasks := make([]Task, len(ops))
	for i, op := range ops {
		tasks[i] = op
	}

	started := time.Now()
	exec.Run(ctx, tasks, func(index int, stop func()) {
		op := ops[index]
		outcome, ok := op.Outcome()
		agg.Observe(outcome, ok, stop, zap.Any("input", op.Input()))
	})

	result := agg.Result()
	result.Duration = time.Since(started)
	return result
}
