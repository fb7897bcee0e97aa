package staging

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/bulkgraph/logger"
)

const (
	// bottleneckRatio is how much slower than the next slowest step a step must be to get another processor
	bottleneckRatio = 1.5
	// idleRatio: a step this many times faster than its stage's bottleneck gives a processor back
	idleRatio = 4
)

// DynamicProcessorAssigner rebalances worker counts on every poll. It grows the bottleneck
// step of each execution, either from free budget or by moving a processor from the fastest
// step holding more than one, and reclaims processors from steps that idle far below the
// bottleneck. The sum of processors over all live steps never grows past MaxProcessors.
type DynamicProcessorAssigner struct {
	budget int
	logger *zap.SugaredLogger
}

// NewDynamicProcessorAssigner creates an assigner enforcing cfg.MaxProcessors
func NewDynamicProcessorAssigner(cfg Configuration, l *zap.SugaredLogger) *DynamicProcessorAssigner {
	return &DynamicProcessorAssigner{
		budget: cfg.MaxProcessors,
		logger: logger.AddPulseSymbol(logger.OrDefault(l, "staging.assigner")),
	}
}

type stepLoad struct {
	step       Step
	avg        int64
	processors int
}

// effective is the time one batch takes per assigned processor
func (l stepLoad) effective() float64 {
	return float64(l.avg) / float64(l.processors)
}

func (a *DynamicProcessorAssigner) Start([]*StageExecution)              {}
func (a *DynamicProcessorAssigner) End([]*StageExecution, time.Duration) {}
func (a *DynamicProcessorAssigner) Done(time.Duration)                   {}

func (a *DynamicProcessorAssigner) Poll(executions []*StageExecution) {
	var all []*stepLoad
	perExecution := make([][]*stepLoad, 0, len(executions))
	total := 0
	for _, execution := range executions {
		if !execution.StillExecuting() {
			continue
		}
		var loads []*stepLoad
		for _, step := range execution.Steps() {
			if step.IsCompleted() {
				continue
			}
			load := &stepLoad{
				step:       step,
				avg:        step.Stats().Value(KeyAvgProcessingTime),
				processors: step.Processors(),
			}
			total += load.processors
			all = append(all, load)
			if load.avg > 0 {
				loads = append(loads, load)
			}
		}
		perExecution = append(perExecution, loads)
	}

	for _, loads := range perExecution {
		if len(loads) < 2 {
			continue
		}
		sort.SliceStable(loads, func(i, j int) bool {
			return loads[i].effective() > loads[j].effective()
		})
		bottleneck := loads[0]

		// idle reclaim frees budget before growing anything
		for _, load := range loads[1:] {
			if load.processors > 1 && load.effective()*idleRatio < bottleneck.effective() {
				total += a.set(load, load.processors-1)
			}
		}

		if bottleneck.effective() <= loads[1].effective() ||
			bottleneck.effective() < bottleneckRatio*loads[1].effective() {
			continue
		}
		if bottleneck.processors >= bottleneck.step.MaxProcessors() {
			continue
		}

		if total < a.budget {
			total += a.set(bottleneck, bottleneck.processors+1)
			continue
		}

		donor := fastestDonor(all, bottleneck)
		if donor == nil {
			continue
		}
		// the donor must still outpace the bottleneck after the move
		donorAfter := float64(donor.avg) / float64(donor.processors-1)
		bottleneckAfter := float64(bottleneck.avg) / float64(bottleneck.processors+1)
		if donorAfter >= bottleneckAfter {
			continue
		}
		total += a.set(donor, donor.processors-1)
		total += a.set(bottleneck, bottleneck.processors+1)
	}
}

// set applies n processors and returns the signed change
func (a *DynamicProcessorAssigner) set(load *stepLoad, n int) int {
	before := load.processors
	load.processors = load.step.SetProcessors(n)
	if load.processors != before {
		a.logger.Debugw("Processors reassigned",
			logger.FieldStep, load.step.Name(),
			logger.FieldProcessors, load.processors,
			"previous", before)
	}
	return load.processors - before
}

// fastestDonor is the live step with data and more than one processor that has the
// lowest effective time, excluding the bottleneck itself
func fastestDonor(all []*stepLoad, bottleneck *stepLoad) *stepLoad {
	var donor *stepLoad
	for _, load := range all {
		if load == bottleneck || load.processors <= 1 || load.avg <= 0 {
			continue
		}
		if donor == nil || load.effective() < donor.effective() {
			donor = load
		}
	}
	return donor
}
