package staging

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/bulkgraph/errors"
)

// Batch is one unit of work handed between steps. Ownership passes with the handoff:
// once sent downstream a batch is never touched by the sender again.
type Batch = any

// Step is one unit of work in a stage, run by 1..MaxProcessors worker goroutines.
type Step interface {
	Name() string
	// Processors is the number of workers the step is currently assigned
	Processors() int
	// SetProcessors assigns n workers, clamped to [1, MaxProcessors], and returns the applied count.
	// Extra workers start immediately; surplus workers exit before pulling their next batch.
	SetProcessors(n int) int
	// MaxProcessors is the step's own ceiling; 1 for order-sensitive steps
	MaxProcessors() int
	Stats() *StepStats
	// IsCompleted reports that the step drained its input and stopped all workers
	IsCompleted() bool
}

// runnableStep is a step the stage can wire into its queues
type runnableStep interface {
	Step
	start(ctx context.Context, g *errgroup.Group, in <-chan Batch, out chan<- Batch, onError func(error))
}

// StepOption configures a step at construction
type StepOption func(*stepBase)

// WithMaxProcessors caps the workers a step may ever run. 1 pins the step to a single
// worker, preserving the order batches arrive in.
func WithMaxProcessors(n int) StepOption {
	return func(s *stepBase) {
		if n >= 1 {
			s.maxProcessors = n
		}
	}
}

// WithProcessors sets the initial worker count
func WithProcessors(n int) StepOption {
	return func(s *stepBase) {
		s.initial = n
	}
}

// stepBase carries what every step kind shares: identity, processor bookkeeping and statistics
type stepBase struct {
	name          string
	maxProcessors int
	initial       int
	stats         *stepStats
	completed     atomic.Bool

	mu     sync.Mutex
	target int
}

func newStepBase(name string, cfg Configuration, opts ...StepOption) *stepBase {
	s := &stepBase{
		name:          name,
		maxProcessors: cfg.MaxProcessors,
		initial:       1,
		stats:         newStepStats(cfg.MovingAverageSize),
	}
	if s.maxProcessors < 1 {
		s.maxProcessors = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	s.target = s.clamp(s.initial)
	return s
}

func (s *stepBase) Name() string { return s.name }

func (s *stepBase) MaxProcessors() int { return s.maxProcessors }

func (s *stepBase) IsCompleted() bool { return s.completed.Load() }

func (s *stepBase) Processors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *stepBase) Stats() *StepStats {
	return s.stats.snapshot(s.name, s.Processors())
}

func (s *stepBase) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > s.maxProcessors {
		return s.maxProcessors
	}
	return n
}

// goSafe runs f in the group. A panic becomes an error naming the step, and any error
// raised while the stage is still live is reported through onError.
func goSafe(ctx context.Context, g *errgroup.Group, step string, onError func(error), f func() error) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.WithDetail(
					errors.Newf("step %s panicked: %v", step, r),
					string(debug.Stack()))
			}
			if err != nil && ctx.Err() == nil {
				onError(err)
			}
		}()
		return f()
	})
}
