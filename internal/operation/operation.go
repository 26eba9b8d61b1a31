// Package operation models a single unit of fetch-and-extract work with a
// single-shot outcome and cooperative cancellation.
package operation

import (
	"context"
	"sync"
	"time"
)

// State is the lifecycle position of an Operation.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// ExecuteFunc performs the blocking step. It must honour ctx cancellation.
type ExecuteFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Outcome is the result recorded by a completed Operation.
type Outcome[Out any] struct {
	Value Out
	Err   error
}

// OK reports whether the outcome is a success.
func (o Outcome[Out]) OK() bool {
	return o.Err == nil
}

// Option customises an Operation.
type Option func(*settings)

type settings struct {
	timeout time.Duration
}

// WithTimeout bounds the execute step. Zero or negative disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// Operation runs an ExecuteFunc once over an immutable input.
type Operation[In, Out any] struct {
	input   In
	execute ExecuteFunc[In, Out]
	timeout time.Duration

	mu         sync.Mutex
	state      State
	outcome    Outcome[Out]
	hasOutcome bool
	abort      context.CancelFunc
}

// New builds a pending Operation.
func New[In, Out any](input In, execute ExecuteFunc[In, Out], opts ...Option) *Operation[In, Out] {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Operation[In, Out]{
		input:   input,
		execute: execute,
		timeout: s.timeout,
	}
}

// Input returns the operation's input value.
func (o *Operation[In, Out]) Input() In {
	return o.input
}

// State returns the current lifecycle state.
func (o *Operation[In, Out]) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Outcome returns the recorded outcome. ok is false while the operation has not
// completed, and stays false forever if it was cancelled.
func (o *Operation[In, Out]) Outcome() (Outcome[Out], bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.hasOutcome {
		return Outcome[Out]{}, false
	}
	return o.outcome, true
}

// Start runs the execute step in the calling goroutine and returns once the
// operation is terminal. Calling Start on a non-pending operation is a no-op.
func (o *Operation[In, Out]) Start(ctx context.Context) {
	o.mu.Lock()
	if o.state != StatePending {
		o.mu.Unlock()
		return
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	o.state = StateRunning
	o.abort = cancel
	o.mu.Unlock()
	defer cancel()

	if !o.runnable() {
		return
	}

	value, err := o.execute(runCtx, o.input)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRunning {
		return
	}
	o.outcome = Outcome[Out]{Value: value, Err: err}
	o.hasOutcome = true
	o.state = StateCompleted
}

// Cancel marks the operation cancelled and asks any in-flight call to abort.
// Once Cancel returns no outcome will be recorded. Repeated calls are no-ops.
func (o *Operation[In, Out]) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StatePending:
		o.state = StateCancelled
	case StateRunning:
		o.state = StateCancelled
		if o.abort != nil {
			o.abort()
		}
	}
}

func (o *Operation[In, Out]) runnable() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == StateRunning
}
