package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.Frame("WT")
	m.Frame("WT")
	m.Frame("L2A")
	m.Solver(1500 * time.Millisecond)
	m.Kernel(2 * time.Millisecond)
	m.Variant(Completed)
	m.Variant(Aborted)
	m.Variant(Aborted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Frames.WithLabelValues("WT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues("L2A")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Variants.WithLabelValues(Aborted)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SolverSeconds))

	path := filepath.Join(t.TempDir(), "smmpbsa.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `smmpbsa_frames_total{variant="WT"} 2`)
	assert.Contains(t, string(data), `smmpbsa_variants_total{outcome="aborted"} 2`)
	assert.Contains(t, string(data), "smmpbsa_solver_duration_seconds_count 1")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Frame("WT")
		m.Solver(time.Second)
		m.Kernel(time.Second)
		m.Variant(Skipped)
	})
}
