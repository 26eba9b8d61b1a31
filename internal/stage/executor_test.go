package stage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesScanner/internal/operation"
)

// gauge tracks how many tasks run at once and the highest value seen.
type gauge struct {
	active atomic.Int32
	peak   atomic.Int32
}

func (g *gauge) enter() {
	n := g.active.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (g *gauge) leave() { g.active.Add(-1) }

func sleepOp(g *gauge, d time.Duration) *operation.Operation[int, int] {
	return operation.New(0, func(ctx context.Context, in int) (int, error) {
		g.enter()
		defer g.leave()
		select {
		case <-time.After(d):
			return in, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
}

func asTasks[In, Out any](ops []*operation.Operation[In, Out]) []Task {
	tasks := make([]Task, len(ops))
	for i, op := range ops {
		tasks[i] = op
	}
	return tasks
}

func TestExecutorBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var g gauge
	ops := make([]*operation.Operation[int, int], 20)
	for i := range ops {
		ops[i] = sleepOp(&g, 10*time.Millisecond)
	}

	seen := make(map[int]int)
	NewExecutor(3).Run(context.Background(), asTasks(ops), func(index int, _ func()) {
		seen[index]++
	})

	assert.LessOrEqual(t, g.peak.Load(), int32(3))
	assert.Len(t, seen, len(ops))
	for index, count := range seen {
		assert.Equal(t, 1, count, "index %d notified %d times", index, count)
	}
	for _, op := range ops {
		assert.Equal(t, operation.StateCompleted, op.State())
	}
}

func TestExecutorStopCancelsOutstanding(t *testing.T) {
	t.Parallel()

	var g gauge
	ops := make([]*operation.Operation[int, int], 10)
	ops[0] = sleepOp(&g, time.Millisecond)
	for i := 1; i < len(ops); i++ {
		ops[i] = sleepOp(&g, time.Minute)
	}

	var notified int
	NewExecutor(2).Run(context.Background(), asTasks(ops), func(index int, stop func()) {
		notified++
		if index == 0 {
			stop()
			stop()
		}
	})

	assert.Equal(t, len(ops), notified)
	assert.Equal(t, operation.StateCompleted, ops[0].State())
	for _, op := range ops[1:] {
		assert.Equal(t, operation.StateCancelled, op.State())
		_, ok := op.Outcome()
		assert.False(t, ok)
	}
	assert.Zero(t, g.active.Load())
}

func TestExecutorParentCancellation(t *testing.T) {
	t.Parallel()

	var g gauge
	ops := make([]*operation.Operation[int, int], 6)
	for i := range ops {
		ops[i] = sleepOp(&g, time.Minute)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewExecutor(2).Run(ctx, asTasks(ops), nil)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not return after parent cancellation")
	}
	for _, op := range ops {
		assert.True(t, op.State().Terminal())
	}
	assert.Zero(t, g.active.Load())
}

func TestExecutorEmptyBatch(t *testing.T) {
	t.Parallel()

	called := false
	NewExecutor(4).Run(context.Background(), nil, func(int, func()) { called = true })
	assert.False(t, called)
}

func TestNewExecutorClampsConcurrency(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NewExecutor(0).Concurrency())
	assert.Equal(t, 1, NewExecutor(-3).Concurrency())
	assert.Equal(t, 5, NewExecutor(5).Concurrency())
}

func TestExecutorCompletionsAreSerialized(t *testing.T) {
	t.Parallel()

	var g gauge
	ops := make([]*operation.Operation[int, int], 50)
	for i := range ops {
		ops[i] = sleepOp(&g, time.Millisecond)
	}

	var inside atomic.Int32
	var overlap atomic.Bool
	var mu sync.Mutex
	order := make([]int, 0, len(ops))
	NewExecutor(8).Run(context.Background(), asTasks(ops), func(index int, _ func()) {
		if inside.Add(1) > 1 {
			overlap.Store(true)
		}
		mu.Lock()
		order = append(order, index)
		mu.Unlock()
		inside.Add(-1)
	})

	require.False(t, overlap.Load())
	assert.Len(t, order, len(ops))
}

// markingTask blocks until cancelled and records whether its context had
// already ended when Cancel marked it.
type markingTask struct {
	started chan struct{}
	wait    []*markingTask
	block   bool

	mu            sync.Mutex
	ctx           context.Context
	cancelled     bool
	ctxEndedFirst bool
	abort         chan struct{}
	abortOnce     sync.Once
}

func newMarkingTask(block bool, wait ...*markingTask) *markingTask {
	return &markingTask{
		started: make(chan struct{}),
		wait:    wait,
		block:   block,
		abort:   make(chan struct{}),
	}
}

func (m *markingTask) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
	close(m.started)

	for _, other := range m.wait {
		<-other.started
	}
	if m.block {
		select {
		case <-m.abort:
		case <-ctx.Done():
		}
	}
}

func (m *markingTask) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelled {
		return
	}
	m.cancelled = true
	m.ctxEndedFirst = m.ctx != nil && m.ctx.Err() != nil
	m.abortOnce.Do(func() { close(m.abort) })
}

func (m *markingTask) markedBeforeAbort() (cancelled, ctxEndedFirst bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled, m.ctxEndedFirst
}

func TestExecutorStopMarksTasksBeforeAborting(t *testing.T) {
	t.Parallel()

	first := newMarkingTask(true)
	second := newMarkingTask(true)
	trigger := newMarkingTask(false, first, second)

	NewExecutor(3).Run(context.Background(), []Task{first, second, trigger}, func(index int, stop func()) {
		if index == 2 {
			stop()
		}
	})

	for i, task := range []*markingTask{first, second} {
		cancelled, ctxEndedFirst := task.markedBeforeAbort()
		assert.True(t, cancelled, "task %d", i)
		assert.False(t, ctxEndedFirst, "task %d context ended before Cancel", i)
	}
}

func TestExecutorParentCancellationMarksTasksFirst(t *testing.T) {
	t.Parallel()

	first := newMarkingTask(true)
	second := newMarkingTask(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewExecutor(2).Run(ctx, []Task{first, second}, nil)
	}()

	<-first.started
	<-second.started
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not return after parent cancellation")
	}
	for i, task := range []*markingTask{first, second} {
		cancelled, ctxEndedFirst := task.markedBeforeAbort()
		assert.True(t, cancelled, "task %d", i)
		assert.False(t, ctxEndedFirst, "task %d context ended before Cancel", i)
	}
}

func TestExecutorStoppedOperationsAreDroppedNotFailed(t *testing.T) {
	t.Parallel()

	const items = 50
	ops := make([]*operation.Operation[int, int], items)
	ops[0] = operation.New(0, func(context.Context, int) (int, error) { return 0, nil })
	for i := 1; i < items; i++ {
		ops[i] = operation.New(i, func(ctx context.Context, in int) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
	}

	result := Collect(context.Background(), NewExecutor(items), "test", ops, Limited(1), nil)
	assert.Len(t, result.Values, 1)
	assert.Zero(t, result.Failures)
	assert.Equal(t, items-1, result.Dropped+result.Discarded)
}
