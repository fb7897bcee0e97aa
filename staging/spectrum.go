package staging

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// DefaultSpectrumWidth is the terminal width assumed when none is configured
const DefaultSpectrumWidth = 80

// SpectrumExecutionMonitor renders each running stage as one bar whose segments are sized
// by each step's share of the stage's processing time, followed by the batches done by the
// last step. The line is redrawn in place on every poll.
type SpectrumExecutionMonitor struct {
	out   io.Writer
	width int
}

// NewSpectrumExecutionMonitor renders to out using width columns
func NewSpectrumExecutionMonitor(out io.Writer, width int) *SpectrumExecutionMonitor {
	if width <= 0 {
		width = DefaultSpectrumWidth
	}
	return &SpectrumExecutionMonitor{out: out, width: width}
}

func (m *SpectrumExecutionMonitor) Start(executions []*StageExecution) {
	fmt.Fprintln(m.out, stageNames(executions))
}

func (m *SpectrumExecutionMonitor) Poll(executions []*StageExecution) {
	active := 0
	for _, execution := range executions {
		if execution.StillExecuting() {
			active++
		}
	}
	if active == 0 {
		return
	}

	partWidth := int(math.Round(float64(m.width) / float64(active)))
	var frame strings.Builder
	for _, execution := range executions {
		if !execution.StillExecuting() {
			continue
		}
		line, ok := m.Line(execution.Stats(), partWidth)
		if !ok {
			// never show a partial frame
			return
		}
		frame.WriteString(line)
	}
	fmt.Fprint(m.out, "\r"+frame.String())
}

func (m *SpectrumExecutionMonitor) End([]*StageExecution, time.Duration) {
	fmt.Fprintln(m.out)
}

func (m *SpectrumExecutionMonitor) Done(total time.Duration) {
	fmt.Fprintln(m.out)
	fmt.Fprintf(m.out, "IMPORT DONE. Took: %s\n", total.Round(time.Millisecond))
}

// Line renders one stage's spectrum into width columns. It reports false when no step has
// processing time yet.
func (m *SpectrumExecutionMonitor) Line(stats []*StepStats, width int) (string, bool) {
	weights := make([]int64, len(stats))
	var total int64
	for i, step := range stats {
		weights[i] = step.Value(KeyAvgProcessingTime)
		total += weights[i]
	}
	if total == 0 || len(stats) == 0 {
		return "", false
	}

	// one separator per step plus the closing bracket, and the four count characters
	body := width - len(stats) - 1 - 4
	if body < 0 {
		body = 0
	}

	var b strings.Builder
	for i, segment := range Project(weights, body) {
		if i == 0 {
			b.WriteByte('[')
		} else {
			b.WriteByte('|')
		}
		name := stats[i].Name
		for c := 0; c < segment; c++ {
			if c < len(name) {
				b.WriteByte(name[c])
			} else {
				b.WriteByte('-')
			}
		}
	}
	b.WriteByte(']')
	b.WriteString(FitInFour(stats[len(stats)-1].Value(KeyDoneBatches)))
	return b.String(), true
}
