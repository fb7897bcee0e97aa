package staging

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/bulkgraph/errors"
)

// Stage is an ordered chain of steps, each step's output queue feeding the next.
// A stage is executed at most once and closed exactly once after its execution finished.
type Stage struct {
	name  string
	cfg   Configuration
	steps []Step

	mu       sync.Mutex
	executed bool
	closed   bool
	closers  []func() error
}

// NewStage creates an empty stage
func NewStage(name string, cfg Configuration) *Stage {
	return &Stage{name: name, cfg: cfg}
}

// Name returns the stage's display name
func (s *Stage) Name() string { return s.name }

// Add appends a step to the chain
func (s *Stage) Add(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
}

// OnClose registers a release function run by Close
func (s *Stage) OnClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Execute starts the worker pools of every step and returns immediately.
// A stage that was already executed or closed yields an execution that failed with ErrStageClosed.
func (s *Stage) Execute(ctx context.Context) *StageExecution {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec := newStageExecution(s.name, s.steps)
	if s.executed || s.closed {
		exec.fail(errors.Wrapf(errors.ErrStageClosed, "stage %q executed twice", s.name))
		exec.finish()
		return exec
	}
	s.executed = true

	runnable := make([]runnableStep, len(s.steps))
	for i, step := range s.steps {
		r, ok := step.(runnableStep)
		if !ok {
			exec.fail(errors.AssertionFailedf("step %s of stage %q cannot be executed", step.Name(), s.name))
			exec.finish()
			return exec
		}
		runnable[i] = r
	}

	stageCtx, cancel := context.WithCancelCause(ctx)
	exec.cancel = cancel
	g, gctx := errgroup.WithContext(stageCtx)

	var in chan Batch
	for i, r := range runnable {
		var out chan Batch
		if i < len(runnable)-1 {
			out = make(chan Batch, s.cfg.QueueSize)
		}
		r.start(gctx, g, in, out, exec.fail)
		in = out
	}

	go func() {
		// workers stopped by cancellation return without reporting; the cause marks the run as cut short
		if err := g.Wait(); err != nil {
			cause := context.Cause(stageCtx)
			if cause == nil {
				cause = err
			}
			exec.record(cause)
		}
		cancel(nil)
		exec.finish()
	}()
	return exec
}

// Close releases the resources of every step. Returns ErrStageClosed on a second call.
func (s *Stage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Wrapf(errors.ErrStageClosed, "stage %q", s.name)
	}
	s.closed = true

	var err error
	for _, fn := range s.closers {
		if cerr := fn(); cerr != nil {
			err = errors.CombineErrors(err, cerr)
		}
	}
	return err
}

// StageExecution is the live record of one stage run. Steps mutate it while running;
// supervisors and monitors only read it.
type StageExecution struct {
	name    string
	steps   []Step
	started time.Time
	cancel  context.CancelCauseFunc
	done    chan struct{}

	mu       sync.Mutex
	err      error
	finished time.Time
}

func newStageExecution(name string, steps []Step) *StageExecution {
	return &StageExecution{
		name:    name,
		steps:   steps,
		started: time.Now(),
		cancel:  func(error) {},
		done:    make(chan struct{}),
	}
}

// StageName returns the display name of the executed stage
func (e *StageExecution) StageName() string { return e.name }

// Steps returns the steps in chain order
func (e *StageExecution) Steps() []Step { return e.steps }

// Size is the number of steps
func (e *StageExecution) Size() int { return len(e.steps) }

// StillExecuting reports whether any worker of the stage is still running
func (e *StageExecution) StillExecuting() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Stats returns one fresh snapshot per step, in step order
func (e *StageExecution) Stats() []*StepStats {
	stats := make([]*StepStats, len(e.steps))
	for i, step := range e.steps {
		stats[i] = step.Stats()
	}
	return stats
}

// Err returns the first fatal step error, or nil
func (e *StageExecution) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Elapsed is the time since start, frozen once the execution finished
func (e *StageExecution) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished.IsZero() {
		return time.Since(e.started)
	}
	return e.finished.Sub(e.started)
}

// Wait blocks until every worker of the stage exited
func (e *StageExecution) Wait() {
	<-e.done
}

// Abort cancels every step. Workers unwind at their next queue operation.
func (e *StageExecution) Abort(cause error) {
	e.cancel(cause)
}

func (e *StageExecution) fail(err error) {
	e.record(err)
	e.cancel(err)
}

func (e *StageExecution) record(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
}

func (e *StageExecution) finish() {
	e.mu.Lock()
	e.finished = time.Now()
	e.mu.Unlock()
	close(e.done)
}
