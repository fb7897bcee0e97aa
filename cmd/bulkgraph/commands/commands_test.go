package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/bulkgraph/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunImport(t *testing.T) {
	pterm.DisableColor()
	dir := t.TempDir()
	t.Setenv("BULKGRAPH_JSON", "")
	t.Setenv("BULKGRAPH_MONITOR_POLL_INTERVAL_MS", "5")

	importFlags.nodes = writeFile(t, dir, "nodes.csv", ":ID,name,:LABEL\n0,alice,Person\n1,bob,Person\n2,carol,\n")
	importFlags.relationships = writeFile(t, dir, "rels.csv", ":START_ID,:END_ID,:TYPE\n0,1,KNOWS\n1,2,KNOWS\n")
	importFlags.store = filepath.Join(dir, "graph.db")
	importFlags.display = "none"
	importFlags.report = filepath.Join(dir, "report.yaml")
	t.Cleanup(func() { importFlags = importOptions{} })

	var out bytes.Buffer
	ImportCmd.SetOut(&out)
	ImportCmd.SetContext(context.Background())
	require.NoError(t, runImport(ImportCmd, nil))

	assert.Contains(t, out.String(), "Imported 3 nodes, 2 relationships")
	report, err := os.ReadFile(importFlags.report)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Person: 2")

	// the store directory now holds a graph
	err = runImport(ImportCmd, nil)
	require.Error(t, err)
	assert.True(t, errors.IsImportFailed(err))
}

func TestLoadImportConfig_RejectsBadIDType(t *testing.T) {
	importFlags.idType = "uuid"
	t.Cleanup(func() { importFlags.idType = "" })

	_, err := loadImportConfig()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestConfigShow(t *testing.T) {
	var out bytes.Buffer
	configShowCmd.SetOut(&out)

	configFormat = "toml"
	require.NoError(t, runConfigShow(configShowCmd, nil))
	assert.Contains(t, out.String(), "batch_size")

	configFormat = "xml"
	t.Cleanup(func() { configFormat = "toml" })
	assert.Error(t, runConfigShow(configShowCmd, nil))
}

func TestConfigInit(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "bulkgraph.toml")
	t.Cleanup(func() { configPath = "bulkgraph.toml"; configForce = false })

	require.NoError(t, runConfigInit(configInitCmd, nil))
	assert.Error(t, runConfigInit(configInitCmd, nil), "existing file is kept")

	configForce = true
	assert.NoError(t, runConfigInit(configInitCmd, nil))
}
