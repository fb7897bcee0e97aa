package staging

import (
	"sync"
	"sync/atomic"

	"github.com/teranos/bulkgraph/errors"
)

func testConfig() Configuration {
	return Configuration{
		BatchSize:          3,
		MovingAverageSize:  10,
		MaxProcessors:      4,
		DenseNodeThreshold: 5,
		QueueSize:          2,
	}
}

type sliceSource[T any] struct {
	items  []T
	pos    int
	closed atomic.Bool
	closes atomic.Int32
}

func newSliceSource[T any](items []T) *sliceSource[T] {
	return &sliceSource[T]{items: items}
}

func (s *sliceSource[T]) Next() (T, bool, error) {
	var zero T
	if s.pos >= len(s.items) {
		return zero, false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, true, nil
}

func (s *sliceSource[T]) Close() error {
	s.closed.Store(true)
	if s.closes.Add(1) > 1 {
		return errors.New("source closed twice")
	}
	return nil
}

// endlessSource never drains
type endlessSource struct {
	next atomic.Int64
}

func (s *endlessSource) Next() (int, bool, error) {
	return int(s.next.Add(1)), true, nil
}

func (s *endlessSource) Close() error { return nil }

func numbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// fakeStep is a step with scripted statistics, never executed
type fakeStep struct {
	mu         sync.Mutex
	name       string
	avg        int64
	processors int
	max        int
	done       int64
	completed  bool
}

func newFakeStep(name string, avg int64, processors, max int) *fakeStep {
	return &fakeStep{name: name, avg: avg, processors: processors, max: max}
}

func (f *fakeStep) Name() string { return f.name }

func (f *fakeStep) Processors() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processors
}

func (f *fakeStep) SetProcessors(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 1 {
		n = 1
	}
	if n > f.max {
		n = f.max
	}
	f.processors = n
	return n
}

func (f *fakeStep) MaxProcessors() int { return f.max }

func (f *fakeStep) IsCompleted() bool { return f.completed }

func (f *fakeStep) Stats() *StepStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return NewStepStats(f.name, map[Key]Stat{
		KeyAvgProcessingTime: {Value: f.avg, Detail: DetailImportant},
		KeyDoneBatches:       {Value: f.done, Detail: DetailBasic},
		KeyProcessors:        {Value: int64(f.processors), Detail: DetailDetailed},
	})
}

// runningExecution wraps steps in an execution that reports itself as still executing
func runningExecution(name string, steps ...Step) *StageExecution {
	return newStageExecution(name, steps)
}

func finishedExecution(name string, steps ...Step) *StageExecution {
	e := newStageExecution(name, steps)
	e.finish()
	return e
}

func totalProcessors(executions ...*StageExecution) int {
	total := 0
	for _, e := range executions {
		for _, s := range e.Steps() {
			if !s.IsCompleted() {
				total += s.Processors()
			}
		}
	}
	return total
}
