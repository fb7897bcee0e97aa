package staging

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/bulkgraph/errors"
)

// Source is a pull-based sequence of items feeding the first step of a stage
type Source[T any] interface {
	Next() (T, bool, error)
	Close() error
}

// IteratorBatcherStep is the single-threaded producer at the head of a stage. It pulls
// items from a Source and emits them downstream as []T batches of Configuration.BatchSize.
type IteratorBatcherStep struct {
	*stepBase
	nextBatch func() (Batch, int, error)
	close     func() error
}

// NewIteratorBatcherStep creates a producer step over source. The step closes source once drained,
// and Close releases it when the stage never ran to the end. Source is closed at most once.
func NewIteratorBatcherStep[T any](name string, cfg Configuration, source Source[T]) *IteratorBatcherStep {
	size := cfg.BatchSize
	if size < 1 {
		size = 1
	}
	return &IteratorBatcherStep{
		stepBase: newStepBase(name, cfg, WithMaxProcessors(1)),
		nextBatch: func() (Batch, int, error) {
			batch := make([]T, 0, size)
			for len(batch) < size {
				item, ok, err := source.Next()
				if err != nil {
					return nil, 0, err
				}
				if !ok {
					break
				}
				batch = append(batch, item)
			}
			return batch, len(batch), nil
		},
		close: sync.OnceValue(source.Close),
	}
}

// Close releases the source. It returns the result of the first close on every call.
func (s *IteratorBatcherStep) Close() error {
	return s.close()
}

// SetProcessors implements Step. A producer always runs on one worker.
func (s *IteratorBatcherStep) SetProcessors(int) int {
	return 1
}

func (s *IteratorBatcherStep) start(ctx context.Context, g *errgroup.Group, _ <-chan Batch, out chan<- Batch, onError func(error)) {
	goSafe(ctx, g, s.name, onError, func() error {
		return s.produce(ctx, out)
	})
}

func (s *IteratorBatcherStep) produce(ctx context.Context, out chan<- Batch) (err error) {
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "step %s: close source", s.name)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		started := time.Now()
		batch, n, err := s.nextBatch()
		if err != nil {
			return errors.Wrapf(err, "step %s", s.name)
		}
		if n == 0 {
			if out != nil {
				close(out)
			}
			s.completed.Store(true)
			return nil
		}
		s.stats.recordBatch(time.Since(started))

		if out == nil {
			continue
		}
		sendStart := time.Now()
		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.stats.addIdle(time.Since(sendStart))
	}
}
