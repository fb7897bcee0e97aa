package staging

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/logger"
)

// Clock abstracts time for the supervision loop
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SupervisorState is the lifecycle state of an ExecutionSupervisor
type SupervisorState int32

const (
	StateIdle SupervisorState = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s SupervisorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExecutionSupervisor drives the polling loop over running stage executions.
// It never performs import work itself.
type ExecutionSupervisor struct {
	clock    Clock
	interval time.Duration
	monitor  ExecutionMonitor
	logger   *zap.SugaredLogger
	state    atomic.Int32
}

// NewExecutionSupervisor creates a supervisor ticking every interval. The monitor is typically
// a MultiExecutionMonitor with the processor assigner first and renderers after it.
func NewExecutionSupervisor(clock Clock, interval time.Duration, monitor ExecutionMonitor, l *zap.SugaredLogger) *ExecutionSupervisor {
	if clock == nil {
		clock = SystemClock{}
	}
	if monitor == nil {
		monitor = NewMultiExecutionMonitor()
	}
	return &ExecutionSupervisor{
		clock:    clock,
		interval: interval,
		monitor:  monitor,
		logger:   logger.AddPulseSymbol(logger.OrDefault(l, "staging.supervisor")),
	}
}

// State returns the current supervisor state
func (s *ExecutionSupervisor) State() SupervisorState {
	return SupervisorState(s.state.Load())
}

// Supervise blocks until every execution finished. If any execution fails, or ctx is
// cancelled, every execution is aborted and awaited before the error is returned.
func (s *ExecutionSupervisor) Supervise(ctx context.Context, executions ...*StageExecution) error {
	s.state.Store(int32(StateRunning))
	started := s.clock.Now()
	s.monitor.Start(executions)

	for {
		select {
		case <-ctx.Done():
			return s.cancelled(ctx, executions, started)
		case <-s.clock.After(s.interval):
		}

		s.monitor.Poll(executions)

		// read before errors: a finished execution has recorded its error already
		finished := !anyStillExecuting(executions)
		if ctx.Err() != nil {
			return s.cancelled(ctx, executions, started)
		}

		if failed := firstFailed(executions); failed != nil {
			cause := failed.Err()
			s.abort(executions, cause)
			elapsed := s.clock.Now().Sub(started)
			s.monitor.End(executions, elapsed)
			s.state.Store(int32(StateFailed))
			logger.FromContext(ctx, s.logger).Errorw("Stage failed",
				logger.FieldStage, failed.StageName(),
				logger.FieldElapsed, elapsed.String(),
				logger.FieldError, cause)
			return errors.WithDetailf(errors.MarkStageFailed(cause, failed.StageName()), "elapsed: %s", elapsed)
		}

		if finished {
			s.monitor.End(executions, s.clock.Now().Sub(started))
			s.state.Store(int32(StateCompleted))
			return nil
		}
	}
}

func (s *ExecutionSupervisor) cancelled(ctx context.Context, executions []*StageExecution, started time.Time) error {
	cause := context.Cause(ctx)
	s.abort(executions, cause)
	elapsed := s.clock.Now().Sub(started)
	s.monitor.End(executions, elapsed)
	s.state.Store(int32(StateFailed))
	return errors.WithDetailf(errors.Wrap(cause, "supervision cancelled"), "elapsed: %s", elapsed)
}

// Done reports the total import duration to the monitor chain
func (s *ExecutionSupervisor) Done(total time.Duration) {
	s.monitor.Done(total)
}

func (s *ExecutionSupervisor) abort(executions []*StageExecution, cause error) {
	for _, execution := range executions {
		execution.Abort(cause)
	}
	for _, execution := range executions {
		execution.Wait()
	}
}

func firstFailed(executions []*StageExecution) *StageExecution {
	for _, execution := range executions {
		if execution.Err() != nil {
			return execution
		}
	}
	return nil
}

func anyStillExecuting(executions []*StageExecution) bool {
	for _, execution := range executions {
		if execution.StillExecuting() {
			return true
		}
	}
	return false
}
