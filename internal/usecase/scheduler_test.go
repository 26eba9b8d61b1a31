package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerKeepsGoingAfterFailedRun(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	driver := &manualDriver{}
	var runs atomic.Int32

	s := NewScheduler(driver, func(context.Context, time.Time) error {
		if runs.Add(1) == 1 {
			return ErrNoListingIDs
		}
		return nil
	}, zap.New(core))

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(time.Now())
	driver.job(time.Now())
	assert.Equal(t, int32(2), runs.Load())

	entries := logs.FilterMessage("scheduled run failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["exit_code"])

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerSkipsAfterCancel(t *testing.T) {
	t.Parallel()

	driver := &manualDriver{}
	ctx, cancel := context.WithCancel(context.Background())
	called := false

	s := NewScheduler(driver, func(context.Context, time.Time) error {
		called = true
		return errors.New("unexpected")
	}, nil)
	require.NoError(t, s.Start(ctx))

	cancel()
	driver.job(time.Now())
	assert.False(t, called)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
