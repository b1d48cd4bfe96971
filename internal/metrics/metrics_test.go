package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTask(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordTask("city", "kv", 600, "")
	m.RecordTask("country", "kv", 12, "SOURCE_READ_ERROR")

	assert.Equal(t, 600.0, testutil.ToFloat64(m.RecordsMigrated.WithLabelValues("city", "kv")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.RecordsMigrated.WithLabelValues("country", "kv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskFailures.WithLabelValues("country", "SOURCE_READ_ERROR")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TaskFailures), "successful tasks add no failure series")
}

func TestRecordRunAndPhase(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordPhaseFailure("kv")
	m.RecordRun("partial", 1500*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseFailures.WithLabelValues("kv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("partial")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sakila_migration_run_duration_seconds")
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTask("city", "kv", 1, "")
		m.RecordPhaseFailure("documents")
		m.RecordRun("succeeded", time.Second)
	})
}
