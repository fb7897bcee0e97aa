package cache

import (
	"math"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStatsVisitor receives memory usage of a structure, split by where it lives
type MemoryStatsVisitor interface {
	HeapUsage(bytes int64)
	OffHeapUsage(bytes int64)
}

// MemoryStatsVisitable is a structure that can report its memory usage
type MemoryStatsVisitable interface {
	Visit(visitor MemoryStatsVisitor)
}

// GatheringMemoryStatsVisitor sums the usage reported by any number of structures
type GatheringMemoryStatsVisitor struct {
	Heap    int64
	OffHeap int64
}

func (v *GatheringMemoryStatsVisitor) HeapUsage(bytes int64)    { v.Heap += bytes }
func (v *GatheringMemoryStatsVisitor) OffHeapUsage(bytes int64) { v.OffHeap += bytes }

// Total is heap plus off-heap usage
func (v *GatheringMemoryStatsVisitor) Total() int64 {
	return v.Heap + v.OffHeap
}

// AvailableMemoryCalculator estimates how much more memory the process may use
type AvailableMemoryCalculator interface {
	AvailableHeapMemory() int64
	AvailableOffHeapMemory() int64
}

// RuntimeMemoryCalculator reads live process and system counters.
// Heap headroom is the distance to the Go memory limit when one is set, otherwise the
// heap memory already reserved but unused. Off-heap headroom is the memory the operating
// system reports as available. Both are advisory.
type RuntimeMemoryCalculator struct{}

func (RuntimeMemoryCalculator) AvailableHeapMemory() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		available := limit - int64(ms.Sys)
		if available < 0 {
			return 0
		}
		return available
	}
	return int64(ms.HeapSys - ms.HeapAlloc)
}

func (RuntimeMemoryCalculator) AvailableOffHeapMemory() int64 {
	// with a memory limit in place the heap figure already is the whole budget
	if debug.SetMemoryLimit(-1) != math.MaxInt64 {
		return 0
	}
	v, err := mem.VirtualMemory()
	if err != nil {
		// unknown counts as nothing available, which selects the low-memory path
		return 0
	}
	return int64(v.Available)
}

// FixedMemoryCalculator reports constant figures
type FixedMemoryCalculator struct {
	Heap    int64
	OffHeap int64
}

func (c FixedMemoryCalculator) AvailableHeapMemory() int64    { return c.Heap }
func (c FixedMemoryCalculator) AvailableOffHeapMemory() int64 { return c.OffHeap }
