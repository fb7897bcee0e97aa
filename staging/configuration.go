// Package staging runs an import as stages: chains of steps connected by bounded batch
// queues, each step with its own tunable number of worker goroutines. A supervisor polls
// running stage executions, lets a processor assigner rebalance workers and feeds
// progress monitors on the same cadence.
package staging

import (
	"runtime"

	"github.com/teranos/bulkgraph/errors"
)

// Configuration is the read-only tuning of one import run. It is built once and passed by
// value into every stage and step.
type Configuration struct {
	BatchSize          int // Items per batch emitted by producer steps
	MovingAverageSize  int // Samples kept for the average processing time of a step
	MaxProcessors      int // Processor budget summed over all running steps
	DenseNodeThreshold int // Degree at or above which a node is dense
	QueueSize          int // Batches buffered between two adjacent steps
}

// DefaultConfiguration returns the configuration used when nothing is overridden
func DefaultConfiguration() Configuration {
	cpus := runtime.NumCPU()
	return Configuration{
		BatchSize:          10_000,
		MovingAverageSize:  100,
		MaxProcessors:      cpus,
		DenseNodeThreshold: 50,
		QueueSize:          cpus,
	}
}

// Validate rejects values a pipeline cannot run with
func (c Configuration) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"batch size", c.BatchSize},
		{"moving average size", c.MovingAverageSize},
		{"max processors", c.MaxProcessors},
		{"dense node threshold", c.DenseNodeThreshold},
		{"queue size", c.QueueSize},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return errors.Mark(
				errors.Newf("%s must be > 0, got %d", check.name, check.value),
				errors.ErrInvalidConfig)
		}
	}
	return nil
}
