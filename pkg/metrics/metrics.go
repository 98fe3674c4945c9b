// Package metrics counts the work of a run and writes it out in the
// Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smmpbsa"

// Variant outcomes.
const (
	Completed = "completed"
	Aborted   = "aborted"
	Skipped   = "skipped"
)

var solverBuckets = []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600}

// Metrics holds the collectors of one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Frames        *prometheus.CounterVec
	SolverSeconds prometheus.Histogram
	KernelSeconds prometheus.Histogram
	Variants      *prometheus.CounterVec
}

// New registers the run collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames processed, by variant.",
		}, []string{"variant"}),
		SolverSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solver_duration_seconds",
			Help:      "Wall time of one PB/SA solver invocation.",
			Buckets:   solverBuckets,
		}),
		KernelSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kernel_duration_seconds",
			Help:      "Wall time of one frame of the nonbonded kernel.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Variants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_total",
			Help:      "System variants by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.Frames, m.SolverSeconds, m.KernelSeconds, m.Variants)
	return m
}

// Frame counts one finished frame of variant.
func (m *Metrics) Frame(variant string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(variant).Inc()
}

// Solver records the duration of one solver call.
func (m *Metrics) Solver(d time.Duration) {
	if m == nil {
		return
	}
	m.SolverSeconds.Observe(d.Seconds())
}

// Kernel records the duration of one kernel evaluation.
func (m *Metrics) Kernel(d time.Duration) {
	if m == nil {
		return
	}
	m.KernelSeconds.Observe(d.Seconds())
}

// Variant counts one variant outcome.
func (m *Metrics) Variant(outcome string) {
	if m == nil {
		return
	}
	m.Variants.WithLabelValues(outcome).Inc()
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
