// Package metrics exposes per-run pipeline counters for the node-exporter
// textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SalesScanner/internal/stage"
)

const namespace = "salesscanner"

// Recorder owns a private registry so repeated runs and tests never collide on
// the global one.
type Recorder struct {
	registry *prometheus.Registry

	stageOutcomes *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	sinkRows      *prometheus.CounterVec
	sinkFailures  *prometheus.CounterVec
	lastRun       prometheus.Gauge
}

// NewRecorder registers every collector on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stageOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_operations_total",
			Help:      "Operations observed per stage, by outcome (succeeded, failed, dropped, discarded)",
		}, []string{"stage", "outcome"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		sinkRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_rows_total",
			Help:      "Sale rows appended per sink",
		}, []string{"sink"}),
		sinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Sale rows a sink failed to append",
		}, []string{"sink"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records the counters of a finished stage.
func (r *Recorder) ObserveStage(s stage.Summary) {
	r.stageOutcomes.WithLabelValues(s.Stage, "succeeded").Add(float64(s.Succeeded))
	r.stageOutcomes.WithLabelValues(s.Stage, "failed").Add(float64(s.Failed))
	r.stageOutcomes.WithLabelValues(s.Stage, "dropped").Add(float64(s.Dropped))
	r.stageOutcomes.WithLabelValues(s.Stage, "discarded").Add(float64(s.Discarded))
	r.stageDuration.WithLabelValues(s.Stage).Observe(s.Duration.Seconds())
}

// ObserveSinkAppend counts one append attempt.
func (r *Recorder) ObserveSinkAppend(sink string, err error) {
	if err != nil {
		r.sinkFailures.WithLabelValues(sink).Inc()
		return
	}
	r.sinkRows.WithLabelValues(sink).Inc()
}

// MarkRunFinished stamps the last-run gauge with the current time.
func (r *Recorder) MarkRunFinished() {
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile atomically writes the registry in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
