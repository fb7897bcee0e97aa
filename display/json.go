package display

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/teranos/bulkgraph/staging"
)

// MarshalJSON marshals JSON with pretty formatting
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// ProgressEvent is one line of JSON progress output
type ProgressEvent struct {
	Type      string                 `json:"type"`      // "start", "progress", "end", "done"
	Timestamp time.Time              `json:"timestamp"` // When this event occurred
	Data      map[string]interface{} `json:"data"`      // Event-specific data
}

// JSONMonitor writes newline-delimited progress events, for consumption by other tools
type JSONMonitor struct {
	mu      sync.Mutex
	encoder *json.Encoder
	now     func() time.Time
}

// NewJSONMonitor creates a monitor writing events to w
func NewJSONMonitor(w io.Writer) *JSONMonitor {
	return &JSONMonitor{encoder: json.NewEncoder(w), now: time.Now}
}

func (m *JSONMonitor) emit(kind string, data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.encoder.Encode(ProgressEvent{Type: kind, Timestamp: m.now(), Data: data})
}

// Start emits the names of the stages starting
func (m *JSONMonitor) Start(executions []*staging.StageExecution) {
	names := make([]string, len(executions))
	for i, e := range executions {
		names[i] = e.StageName()
	}
	m.emit("start", map[string]interface{}{"stages": names})
}

// Poll emits the step statistics of every running stage
func (m *JSONMonitor) Poll(executions []*staging.StageExecution) {
	for _, e := range executions {
		if !e.StillExecuting() {
			continue
		}
		m.emit("progress", map[string]interface{}{
			"stage": e.StageName(),
			"steps": stepData(e.Stats()),
		})
	}
}

// End emits final statistics per stage
func (m *JSONMonitor) End(executions []*staging.StageExecution, elapsed time.Duration) {
	for _, e := range executions {
		m.emit("end", map[string]interface{}{
			"stage":      e.StageName(),
			"elapsed_ms": elapsed.Milliseconds(),
			"steps":      stepData(e.Stats()),
		})
	}
}

// Done emits the total import duration
func (m *JSONMonitor) Done(total time.Duration) {
	m.emit("done", map[string]interface{}{"duration_ms": total.Milliseconds()})
}

func stepData(stats []*staging.StepStats) []map[string]interface{} {
	steps := make([]map[string]interface{}, len(stats))
	for i, s := range stats {
		steps[i] = map[string]interface{}{
			"step":                   s.Name,
			"processors":             s.Value(staging.KeyProcessors),
			"done_batches":           s.Value(staging.KeyDoneBatches),
			"avg_processing_time_ns": s.Value(staging.KeyAvgProcessingTime),
			"idle_time_ns":           s.Value(staging.KeyIdleTime),
		}
	}
	return steps
}
