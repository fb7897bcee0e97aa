package staging

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Key names one statistic of a step
type Key string

const (
	KeyAvgProcessingTime Key = "avg_processing_time" // nanoseconds per batch, moving average
	KeyDoneBatches       Key = "done_batches"        // cumulative
	KeyIdleTime          Key = "idle_time"           // cumulative nanoseconds spent waiting on queues
	KeyProcessors        Key = "processors"
)

// keyOrder is the rendering order of StepStats.String
var keyOrder = []Key{KeyProcessors, KeyAvgProcessingTime, KeyDoneBatches, KeyIdleTime}

// DetailLevel filters which statistics are rendered as text
type DetailLevel int

const (
	DetailBasic DetailLevel = iota
	DetailImportant
	DetailDetailed
)

// Stat is one sampled value and the detail level it is rendered at
type Stat struct {
	Value  int64
	Detail DetailLevel
}

// StepStats is an immutable snapshot of one step's statistics, taken fresh on every poll.
type StepStats struct {
	Name  string
	stats map[Key]Stat
}

// NewStepStats builds a snapshot from explicit values
func NewStepStats(name string, stats map[Key]Stat) *StepStats {
	copied := make(map[Key]Stat, len(stats))
	for k, v := range stats {
		copied[k] = v
	}
	return &StepStats{Name: name, stats: copied}
}

// Stat returns the statistic for key and whether the step reports it
func (s *StepStats) Stat(key Key) (Stat, bool) {
	st, ok := s.stats[key]
	return st, ok
}

// Value returns the value for key, zero when absent
func (s *StepStats) Value(key Key) int64 {
	return s.stats[key].Value
}

// String renders the step name followed by every statistic whose detail level is at most detail.
func (s *StepStats) String(detail DetailLevel) string {
	var parts []string
	for _, key := range keyOrder {
		st, ok := s.stats[key]
		if !ok || st.Detail > detail {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", key, formatStat(key, st.Value)))
	}
	if len(parts) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(parts, " ")
}

func formatStat(key Key, value int64) string {
	switch key {
	case KeyAvgProcessingTime, KeyIdleTime:
		return time.Duration(value).String()
	default:
		return fmt.Sprintf("%d", value)
	}
}

// stepStats is the live statistics facet shared by every step kind
type stepStats struct {
	mu      sync.Mutex
	samples []int64
	next    int
	filled  int
	sum     int64

	done atomic.Int64
	idle atomic.Int64
}

func newStepStats(window int) *stepStats {
	if window < 1 {
		window = 1
	}
	return &stepStats{samples: make([]int64, window)}
}

// recordBatch adds one processing time sample and counts the batch as done
func (s *stepStats) recordBatch(d time.Duration) {
	s.mu.Lock()
	if s.filled == len(s.samples) {
		s.sum -= s.samples[s.next]
	} else {
		s.filled++
	}
	s.samples[s.next] = int64(d)
	s.sum += int64(d)
	s.next = (s.next + 1) % len(s.samples)
	s.mu.Unlock()

	s.done.Add(1)
}

func (s *stepStats) addIdle(d time.Duration) {
	s.idle.Add(int64(d))
}

func (s *stepStats) average() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled == 0 {
		return 0
	}
	return s.sum / int64(s.filled)
}

func (s *stepStats) snapshot(name string, processors int) *StepStats {
	return &StepStats{
		Name: name,
		stats: map[Key]Stat{
			KeyProcessors:        {Value: int64(processors), Detail: DetailDetailed},
			KeyAvgProcessingTime: {Value: s.average(), Detail: DetailImportant},
			KeyDoneBatches:       {Value: s.done.Load(), Detail: DetailBasic},
			KeyIdleTime:          {Value: s.idle.Load(), Detail: DetailDetailed},
		},
	}
}
