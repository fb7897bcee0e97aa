package staging

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/bulkgraph/errors"
)

// Sender hands a batch to the next step, blocking while its queue is full
type Sender func(ctx context.Context, batch Batch) error

// ProcessFunc processes one batch and forwards zero or more batches downstream.
// It may be called concurrently from several workers of the same step.
type ProcessFunc func(ctx context.Context, batch Batch, send Sender) error

// ProcessorStep runs a ProcessFunc over every batch from upstream with a variable number of workers
type ProcessorStep struct {
	*stepBase
	process ProcessFunc

	// guarded by stepBase.mu
	running bool
	drained bool
	active  int
	spawn   func()
}

// NewProcessorStep creates a step that calls process for each incoming batch
func NewProcessorStep(name string, cfg Configuration, process ProcessFunc, opts ...StepOption) *ProcessorStep {
	return &ProcessorStep{
		stepBase: newStepBase(name, cfg, opts...),
		process:  process,
	}
}

// SetProcessors implements Step
func (s *ProcessorStep) SetProcessors(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = s.clamp(n)
	if s.running && !s.drained {
		for s.active < s.target {
			s.active++
			s.spawn()
		}
	}
	return s.target
}

func (s *ProcessorStep) start(ctx context.Context, g *errgroup.Group, in <-chan Batch, out chan<- Batch, onError func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true
	s.spawn = func() {
		goSafe(ctx, g, s.name, onError, func() error {
			clean := false
			defer func() {
				if !clean {
					s.halt()
				}
			}()
			err := s.work(ctx, in, out)
			clean = err == nil
			return err
		})
	}
	for s.active < s.target {
		s.active++
		s.spawn()
	}
}

// retire lets a surplus worker exit before it pulls another batch
func (s *ProcessorStep) retire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > s.target {
		s.active--
		return true
	}
	return false
}

// halt stops further spawning after a worker died on an error or cancellation
func (s *ProcessorStep) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
}

// exit is called by a worker that found the input drained. The last one out closes the output.
func (s *ProcessorStep) exit(out chan<- Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
	s.active--
	if s.active == 0 {
		if out != nil {
			close(out)
		}
		s.completed.Store(true)
	}
}

func (s *ProcessorStep) work(ctx context.Context, in <-chan Batch, out chan<- Batch) error {
	for {
		if s.retire() {
			return nil
		}

		waitStart := time.Now()
		var (
			batch Batch
			ok    bool
		)
		select {
		case batch, ok = <-in:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.stats.addIdle(time.Since(waitStart))
		if !ok {
			s.exit(out)
			return nil
		}

		var blocked time.Duration
		send := func(ctx context.Context, b Batch) error {
			if out == nil {
				return nil
			}
			sendStart := time.Now()
			defer func() { blocked += time.Since(sendStart) }()
			select {
			case out <- b:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		started := time.Now()
		if err := s.process(ctx, batch, send); err != nil {
			return errors.Wrapf(err, "step %s", s.name)
		}
		// time spent blocked on a full downstream queue is idle, not processing
		s.stats.recordBatch(time.Since(started) - blocked)
		s.stats.addIdle(blocked)
	}
}
