package staging

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsExecutionMonitor exports step statistics as prometheus gauges, sampled on every poll.
type MetricsExecutionMonitor struct {
	DoneBatches    *prometheus.GaugeVec
	AvgProcessing  *prometheus.GaugeVec
	IdleSeconds    *prometheus.GaugeVec
	Processors     *prometheus.GaugeVec
	StageDuration  *prometheus.GaugeVec
	ImportDuration prometheus.Gauge
}

// NewMetricsExecutionMonitor registers the importer metrics with reg
func NewMetricsExecutionMonitor(reg prometheus.Registerer) *MetricsExecutionMonitor {
	return &MetricsExecutionMonitor{
		DoneBatches: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "bulkgraph_step_done_batches",
			Help: "Batches fully processed by a step",
		}, []string{"stage", "step"}),
		AvgProcessing: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "bulkgraph_step_avg_processing_seconds",
			Help: "Moving average of per-batch processing time of a step",
		}, []string{"stage", "step"}),
		IdleSeconds: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "bulkgraph_step_idle_seconds",
			Help: "Cumulative time a step waited on its queues",
		}, []string{"stage", "step"}),
		Processors: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "bulkgraph_step_processors",
			Help: "Workers currently assigned to a step",
		}, []string{"stage", "step"}),
		StageDuration: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "bulkgraph_stage_duration_seconds",
			Help: "Wall clock duration of a finished stage",
		}, []string{"stage"}),
		ImportDuration: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "bulkgraph_import_duration_seconds",
			Help: "Wall clock duration of the last import",
		}),
	}
}

func (m *MetricsExecutionMonitor) Start([]*StageExecution) {}

func (m *MetricsExecutionMonitor) Poll(executions []*StageExecution) {
	for _, execution := range executions {
		m.sample(execution)
	}
}

func (m *MetricsExecutionMonitor) End(executions []*StageExecution, _ time.Duration) {
	for _, execution := range executions {
		m.sample(execution)
		m.StageDuration.WithLabelValues(execution.StageName()).Set(execution.Elapsed().Seconds())
	}
}

func (m *MetricsExecutionMonitor) Done(total time.Duration) {
	m.ImportDuration.Set(total.Seconds())
}

func (m *MetricsExecutionMonitor) sample(execution *StageExecution) {
	stage := execution.StageName()
	for _, stats := range execution.Stats() {
		m.DoneBatches.WithLabelValues(stage, stats.Name).Set(float64(stats.Value(KeyDoneBatches)))
		m.AvgProcessing.WithLabelValues(stage, stats.Name).Set(time.Duration(stats.Value(KeyAvgProcessingTime)).Seconds())
		m.IdleSeconds.WithLabelValues(stage, stats.Name).Set(time.Duration(stats.Value(KeyIdleTime)).Seconds())
		m.Processors.WithLabelValues(stage, stats.Name).Set(float64(stats.Value(KeyProcessors)))
	}
}
