package importer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/bulkgraph/cache"
	"github.com/teranos/bulkgraph/input"
	bgtest "github.com/teranos/bulkgraph/internal/testing"
	"github.com/teranos/bulkgraph/staging"
	"github.com/teranos/bulkgraph/store"
)

// testConfig runs every step on one processor so batches keep input order
func testConfig() staging.Configuration {
	return staging.Configuration{
		BatchSize:          1,
		MovingAverageSize:  10,
		MaxProcessors:      1,
		DenseNodeThreshold: 2,
		QueueSize:          2,
	}
}

var (
	plentyOfMemory = cache.FixedMemoryCalculator{Heap: 1 << 40, OffHeap: 1 << 40}
	noMemory       = cache.FixedMemoryCalculator{}
)

// recordingMonitor keeps the stage names of every Start and the final step stats of
// every stage
type recordingMonitor struct {
	mu     sync.Mutex
	starts [][]string
	ended  map[string][]*staging.StepStats
	total  time.Duration
}

func newRecordingMonitor() *recordingMonitor {
	return &recordingMonitor{ended: map[string][]*staging.StepStats{}}
}

func (m *recordingMonitor) Start(executions []*staging.StageExecution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, e := range executions {
		names = append(names, e.StageName())
	}
	m.starts = append(m.starts, names)
}

func (m *recordingMonitor) Poll([]*staging.StageExecution) {}

func (m *recordingMonitor) End(executions []*staging.StageExecution, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range executions {
		m.ended[e.StageName()] = e.Stats()
	}
}

func (m *recordingMonitor) Done(total time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

func newTestImporter(t *testing.T, monitor staging.ExecutionMonitor, opts ...Option) (*ParallelBatchImporter, string) {
	t.Helper()
	dir := bgtest.StoreDir(t)
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithPollInterval(2 * time.Millisecond),
		WithMemoryCalculator(plentyOfMemory),
	}, opts...)
	return New(dir, testConfig(), monitor, opts...), dir
}

func readStore(t *testing.T, dir string) *store.Snapshot {
	t.Helper()
	snap, err := store.Read(context.Background(), dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return snap
}

// threeNodesTwoRelationships is 0 -> 1 -> 2, all unlabeled
func threeNodesTwoRelationships() input.Input {
	return bgtest.ActualInput(
		[]input.InputNode{bgtest.Node(0), bgtest.Node(1), bgtest.Node(2)},
		[]input.InputRelationship{bgtest.Rel(0, 1, "KNOWS"), bgtest.Rel(1, 2, "KNOWS")},
	)
}

// failingIterable yields n items and then fails
type failingIterable[T any] struct {
	n   int
	err error
}

func (f failingIterable[T]) Iterator() (input.Iterator[T], error) {
	return &failingIterator[T]{left: f.n, err: f.err}, nil
}

type failingIterator[T any] struct {
	left int
	err  error
}

func (it *failingIterator[T]) Next() (T, bool, error) {
	var zero T
	if it.left == 0 {
		return zero, false, it.err
	}
	it.left--
	return zero, true, nil
}

func (it *failingIterator[T]) Close() error { return nil }
