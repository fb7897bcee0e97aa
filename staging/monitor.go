package staging

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/bulkgraph/logger"
)

// ExecutionMonitor receives the lifecycle of supervised stage executions.
// All callbacks run on the supervisor goroutine, on one shared cadence.
type ExecutionMonitor interface {
	// Start is called once when supervision of a group of executions begins
	Start(executions []*StageExecution)
	// Poll is called on every supervisor tick
	Poll(executions []*StageExecution)
	// End is called once the group finished, successfully or not
	End(executions []*StageExecution, elapsed time.Duration)
	// Done is called once after the whole import
	Done(total time.Duration)
}

// MultiExecutionMonitor fans every callback out to several monitors, in order
type MultiExecutionMonitor struct {
	monitors []ExecutionMonitor
}

// NewMultiExecutionMonitor composes monitors. Nil monitors are skipped.
func NewMultiExecutionMonitor(monitors ...ExecutionMonitor) *MultiExecutionMonitor {
	m := &MultiExecutionMonitor{}
	for _, monitor := range monitors {
		if monitor != nil {
			m.monitors = append(m.monitors, monitor)
		}
	}
	return m
}

func (m *MultiExecutionMonitor) Start(executions []*StageExecution) {
	for _, monitor := range m.monitors {
		monitor.Start(executions)
	}
}

func (m *MultiExecutionMonitor) Poll(executions []*StageExecution) {
	for _, monitor := range m.monitors {
		monitor.Poll(executions)
	}
}

func (m *MultiExecutionMonitor) End(executions []*StageExecution, elapsed time.Duration) {
	for _, monitor := range m.monitors {
		monitor.End(executions, elapsed)
	}
}

func (m *MultiExecutionMonitor) Done(total time.Duration) {
	for _, monitor := range m.monitors {
		monitor.Done(total)
	}
}

// LoggingExecutionMonitor writes stage lifecycle and step statistics to a zap logger.
// Per-tick statistics are logged at debug level.
type LoggingExecutionMonitor struct {
	logger *zap.SugaredLogger
}

// NewLoggingExecutionMonitor creates a monitor logging to l, or to the staging component logger when l is nil
func NewLoggingExecutionMonitor(l *zap.SugaredLogger) *LoggingExecutionMonitor {
	return &LoggingExecutionMonitor{logger: logger.OrDefault(l, "staging")}
}

func (m *LoggingExecutionMonitor) Start(executions []*StageExecution) {
	m.logger.Infow("Stages started", logger.FieldStages, stageNames(executions))
}

func (m *LoggingExecutionMonitor) Poll(executions []*StageExecution) {
	for _, execution := range executions {
		if !execution.StillExecuting() {
			continue
		}
		for _, stats := range execution.Stats() {
			m.logger.Debugw("Step progress",
				logger.FieldStage, execution.StageName(),
				logger.FieldStep, stats.Name,
				logger.FieldProcessors, stats.Value(KeyProcessors),
				logger.FieldBatches, stats.Value(KeyDoneBatches))
		}
	}
}

func (m *LoggingExecutionMonitor) End(executions []*StageExecution, elapsed time.Duration) {
	for _, execution := range executions {
		steps := make([]string, 0, execution.Size())
		for _, stats := range execution.Stats() {
			steps = append(steps, stats.String(DetailImportant))
		}
		m.logger.Infow("Stage ended",
			logger.FieldStage, execution.StageName(),
			logger.FieldDurationMS, execution.Elapsed().Milliseconds(),
			"steps", steps)
	}
	m.logger.Debugw("Stage group ended", logger.FieldDurationMS, elapsed.Milliseconds())
}

func (m *LoggingExecutionMonitor) Done(total time.Duration) {
	m.logger.Infow("Import done", logger.FieldDurationMS, total.Milliseconds())
}

func stageNames(executions []*StageExecution) string {
	names := make([]string, len(executions))
	for i, execution := range executions {
		names[i] = execution.StageName()
	}
	return strings.Join(names, ", ")
}
