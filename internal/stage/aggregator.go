package stage

import (
	"time"

	"go.uber.org/zap"

	"SalesScanner/internal/domain"
	"SalesScanner/internal/operation"
)

// Result is the aggregated output of one stage.
type Result[Out any] struct {
	Stage     string
	Values    []Out
	Failures  int
	Dropped   int
	Discarded int
	Duration  time.Duration
}

// Succeeded returns the number of kept successes.
func (r Result[Out]) Succeeded() int {
	return len(r.Values)
}

// Summary is the value-free view of a Result.
type Summary struct {
	Stage     string
	Succeeded int
	Failed    int
	Dropped   int
	Discarded int
	Duration  time.Duration
}

// Summary drops the values and keeps the counters.
func (r Result[Out]) Summary() Summary {
	return Summary{
		Stage:     r.Stage,
		Succeeded: len(r.Values),
		Failed:    r.Failures,
		Dropped:   r.Dropped,
		Discarded: r.Discarded,
		Duration:  r.Duration,
	}
}

// Aggregator splits outcomes into kept successes and failures and requests a
// stop once the quota is met. It is not safe for concurrent use; the executor
// delivers completions serially.
type Aggregator[Out any] struct {
	stage  string
	quota  Quota
	logger *zap.Logger

	values        []Out
	failures      int
	dropped       int
	discarded     int
	stopRequested bool
}

// NewAggregator builds an aggregator for the named stage.
func NewAggregator[Out any](stage string, quota Quota, logger *zap.Logger) *Aggregator[Out] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator[Out]{stage: stage, quota: quota, logger: logger}
}

// Observe records one terminal outcome. ok is false for operations that were
// cancelled before recording anything.
func (a *Aggregator[Out]) Observe(outcome operation.Outcome[Out], ok bool, stop func(), fields ...zap.Field) {
	switch {
	case !ok:
		a.dropped++
		a.logger.Debug("operation dropped", append(fields, zap.String("stage", a.stage))...)
	case outcome.Err != nil:
		a.failures++
		a.logger.Warn("operation failed", append(fields,
			zap.String("stage", a.stage),
			zap.Stringer("kind", domain.KindOf(outcome.Err)),
			zap.Error(outcome.Err),
		)...)
	case a.quota.Reached(len(a.values)):
		a.discarded++
	default:
		a.values = append(a.values, outcome.Value)
		if a.quota.Reached(len(a.values)) && !a.stopRequested {
			a.stopRequested = true
			a.logger.Debug("quota reached", zap.String("stage", a.stage), zap.Stringer("quota", a.quota))
			if stop != nil {
				stop()
			}
		}
	}
}

// Result returns a snapshot of the aggregated outcomes.
func (a *Aggregator[Out]) Result() Result[Out] {
	values := make([]Out, len(a.values))
	copy(values, a.values)
	return Result[Out]{
		Stage:     a.stage,
		Values:    values,
		Failures:  a.failures,
		Dropped:   a.dropped,
		Discarded: a.discarded,
	}
}
