package importer

import (
	"github.com/teranos/bulkgraph/cache"
)

// Strategy is how the linking and counting passes are scheduled
type Strategy string

const (
	// StrategyCombined links and counts in one scan per store
	StrategyCombined Strategy = "combined"
	// StrategySeparate runs four scans and drops the link cache before counting
	StrategySeparate Strategy = "separate"
)

// MemoryEstimate is the input of the strategy choice
type MemoryEstimate struct {
	Used      int64 `yaml:"used_bytes" json:"used_bytes"`
	Available int64 `yaml:"available_bytes" json:"available_bytes"`
}

// Enough reports whether available memory exceeds twice what the link cache uses
func (m MemoryEstimate) Enough() bool {
	return m.Available > 2*m.Used
}

// estimateMemory reads live counters. The result is advisory.
func estimateMemory(link cache.MemoryStatsVisitable, calc cache.AvailableMemoryCalculator) MemoryEstimate {
	var used cache.GatheringMemoryStatsVisitor
	link.Visit(&used)
	return MemoryEstimate{
		Used:      used.Heap + used.OffHeap,
		Available: calc.AvailableHeapMemory() + calc.AvailableOffHeapMemory(),
	}
}

func chooseStrategy(estimate MemoryEstimate) Strategy {
	if estimate.Enough() {
		return StrategyCombined
	}
	return StrategySeparate
}
