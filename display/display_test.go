package display

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/bulkgraph/am"
	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/importer"
	"github.com/teranos/bulkgraph/staging"
)

func init() {
	pterm.DisableColor()
}

func sampleReport() *importer.Report {
	return &importer.Report{
		RunID:              "3f1c",
		StoreDir:           "graph.db",
		Duration:           1500 * time.Millisecond,
		Strategy:           importer.StrategyCombined,
		Nodes:              3,
		Relationships:      2,
		NodeCounts:         map[string]int64{importer.AnyName: 3, "Person": 2},
		RelationshipCounts: map[string]int64{importer.AnyName: 2, "KNOWS": 2},
		Stages:             []importer.StageReport{{Name: importer.StageNodes, Elapsed: time.Second}},
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport()))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "3f1c", decoded["run_id"])
	assert.Equal(t, "combined", decoded["strategy"])
	assert.Equal(t, 3, decoded["nodes"])
	assert.Contains(t, buf.String(), "KNOWS: 2")
}

func TestWriteReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteReportFile(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: 3f1c")

	assert.Error(t, WriteReportFile(filepath.Join(t.TempDir(), "missing", "r.yaml"), sampleReport()))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Imported 3 nodes, 2 relationships")
	assert.Contains(t, out, "Person")
	assert.Contains(t, out, "KNOWS")
	assert.Less(t, strings.Index(out, "label"), strings.Index(out, "type"), "labels are listed before types")
}

func TestStepTable(t *testing.T) {
	table, err := StepTable([]*staging.StepStats{
		staging.NewStepStats("INPUT", map[staging.Key]staging.Stat{
			staging.KeyProcessors:  {Value: 1},
			staging.KeyDoneBatches: {Value: 42},
		}),
	})
	require.NoError(t, err)
	assert.Contains(t, table, "INPUT")
	assert.Contains(t, table, "42")
}

func TestJSONMonitor(t *testing.T) {
	var buf bytes.Buffer
	m := NewJSONMonitor(&buf)
	m.Start(nil)
	m.Done(2 * time.Second)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var done ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &done))
	assert.Equal(t, "done", done.Type)
	assert.EqualValues(t, 2000, done.Data["duration_ms"])
}

func TestHumanMonitor(t *testing.T) {
	var buf bytes.Buffer
	m := NewHumanMonitor(&buf, 0)
	m.Start(nil)
	m.Poll(nil)
	m.Done(1500 * time.Millisecond)
	assert.Contains(t, buf.String(), "Import done in 1.5s")
}

func TestNewMonitor(t *testing.T) {
	var buf bytes.Buffer
	cfg := am.Defaults().Monitor

	for display, want := range map[string]interface{}{
		am.DisplaySpectrum: &staging.SpectrumExecutionMonitor{},
		am.DisplayHuman:    &HumanMonitor{},
		am.DisplayJSON:     &JSONMonitor{},
	} {
		cfg.Display = display
		m, err := NewMonitor(cfg, &buf, 0)
		require.NoError(t, err, display)
		assert.IsType(t, want, m, display)
	}

	cfg.Display = am.DisplayNone
	m, err := NewMonitor(cfg, &buf, 0)
	require.NoError(t, err)
	assert.Nil(t, m)

	cfg.Display = "fancy"
	_, err = NewMonitor(cfg, &buf, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "bulkgraph"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "import"}
	root.AddCommand(child)

	t.Setenv(JSONEnv, "")
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))

	t.Setenv(JSONEnv, "true")
	assert.True(t, ShouldOutputJSON(nil))
}
