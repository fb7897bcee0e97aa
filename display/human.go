// Package display renders import progress and results for terminals, JSON consumers and
// report files.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/bulkgraph/staging"
)

// HumanMonitor prints stage transitions and a per-step table when each stage ends
type HumanMonitor struct {
	out       io.Writer
	verbosity int
}

// NewHumanMonitor creates a monitor writing to out. At verbosity 1 and above every poll
// prints one progress line per running stage.
func NewHumanMonitor(out io.Writer, verbosity int) *HumanMonitor {
	return &HumanMonitor{out: out, verbosity: verbosity}
}

func (m *HumanMonitor) Start(executions []*staging.StageExecution) {
	names := make([]string, len(executions))
	for i, e := range executions {
		names[i] = e.StageName()
	}
	pterm.Fprintln(m.out, pterm.Sprintf("🔄 %s", pterm.LightCyan(strings.Join(names, ", "))))
}

func (m *HumanMonitor) Poll(executions []*staging.StageExecution) {
	if m.verbosity < 1 {
		return
	}
	for _, e := range executions {
		if !e.StillExecuting() {
			continue
		}
		stats := e.Stats()
		last := stats[len(stats)-1]
		pterm.Fprintln(m.out, pterm.Sprintf("  %s %s batches",
			pterm.Gray(e.StageName()+":"),
			pterm.Green(strings.TrimSpace(staging.FitInFour(last.Value(staging.KeyDoneBatches))))))
	}
}

func (m *HumanMonitor) End(executions []*staging.StageExecution, elapsed time.Duration) {
	for _, e := range executions {
		pterm.Fprintln(m.out, pterm.Sprintf("✅ %s %s",
			pterm.LightCyan(e.StageName()),
			pterm.Gray(e.Elapsed().Round(time.Millisecond).String())))
		table, err := StepTable(e.Stats())
		if err == nil {
			pterm.Fprintln(m.out, table)
		}
	}
}

func (m *HumanMonitor) Done(total time.Duration) {
	pterm.Fprintln(m.out, pterm.Success.Sprintf("Import done in %s", total.Round(time.Millisecond)))
}

// StepTable renders step statistics as a table
func StepTable(stats []*staging.StepStats) (string, error) {
	data := pterm.TableData{{"Step", "Processors", "Batches", "Avg", "Idle"}}
	for _, s := range stats {
		data = append(data, []string{
			s.Name,
			fmt.Sprintf("%d", s.Value(staging.KeyProcessors)),
			fmt.Sprintf("%d", s.Value(staging.KeyDoneBatches)),
			time.Duration(s.Value(staging.KeyAvgProcessingTime)).String(),
			time.Duration(s.Value(staging.KeyIdleTime)).Round(time.Microsecond).String(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
