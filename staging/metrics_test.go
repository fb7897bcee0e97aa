package staging

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsExecutionMonitor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsExecutionMonitor(reg)

	step := newFakeStep("WRITER", int64(2*time.Millisecond), 1, 1)
	step.done = 12
	exec := finishedExecution("Nodes", step)

	m.Poll([]*StageExecution{exec})
	assert.Equal(t, 12.0, testutil.ToFloat64(m.DoneBatches.WithLabelValues("Nodes", "WRITER")))
	assert.Equal(t, 0.002, testutil.ToFloat64(m.AvgProcessing.WithLabelValues("Nodes", "WRITER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Processors.WithLabelValues("Nodes", "WRITER")))

	m.End([]*StageExecution{exec}, time.Second)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.StageDuration.WithLabelValues("Nodes")), 0.0)

	m.Done(5 * time.Second)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ImportDuration))
}
