package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesScanner/internal/stage"
)

func TestObserveStage(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveStage(stage.Summary{Stage: "resolve", Succeeded: 4, Failed: 1, Dropped: 2, Duration: time.Second})
	r.ObserveStage(stage.Summary{Stage: "resolve", Succeeded: 1, Discarded: 3, Duration: time.Second})

	assert.InDelta(t, 5, testutil.ToFloat64(r.stageOutcomes.WithLabelValues("resolve", "succeeded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.stageOutcomes.WithLabelValues("resolve", "failed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.stageOutcomes.WithLabelValues("resolve", "dropped")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.stageOutcomes.WithLabelValues("resolve", "discarded")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.stageDuration))
}

func TestObserveSinkAppend(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveSinkAppend("csv", nil)
	r.ObserveSinkAppend("csv", nil)
	r.ObserveSinkAppend("postgres", errors.New("down"))

	assert.InDelta(t, 2, testutil.ToFloat64(r.sinkRows.WithLabelValues("csv")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.sinkFailures.WithLabelValues("postgres")), 0)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveSinkAppend("csv", nil)
	r.MarkRunFinished()

	path := filepath.Join(t.TempDir(), "salesscanner.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `salesscanner_sink_rows_total{sink="csv"} 1`)
	assert.Contains(t, string(data), "salesscanner_last_run_timestamp_seconds")

	assert.NoError(t, r.WriteTextfile(""))
}
