package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/bulkgraph/idmapping"
)

func drain[T any](t *testing.T, iterable Iterable[T]) []T {
	t.Helper()
	it, err := iterable.Iterator()
	require.NoError(t, err)
	defer it.Close()

	var items []T
	for {
		item, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			return items
		}
		items = append(items, item)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewInput_IndependentPasses(t *testing.T) {
	in := NewInput(
		[]InputNode{{ID: int64(0)}, {ID: int64(1)}},
		[]InputRelationship{{StartNode: int64(0), EndNode: int64(1), Type: "KNOWS"}},
		idmapping.Actual(), idmapping.ActualIds())

	first := drain(t, in.Relationships)
	second := drain(t, in.Relationships)
	assert.Equal(t, first, second)
	assert.Len(t, drain(t, in.Nodes), 2)
}

func TestNewCSVInput_Actual(t *testing.T) {
	dir := t.TempDir()
	nodes := writeFile(t, dir, "nodes.csv", ":ID,name,:LABEL\n0,alice,Person;Admin\n1,bob,Person\n2,,\n")
	rels := writeFile(t, dir, "rels.csv", ":START_ID,:END_ID,:TYPE,since\n0,1,KNOWS,2020\n1,2,KNOWS,\n")

	in, err := NewCSVInput(nodes, rels, IDTypeActual)
	require.NoError(t, err)
	assert.False(t, in.IdMapper.NeedsPreparation())

	gotNodes := drain(t, in.Nodes)
	require.Len(t, gotNodes, 3)
	assert.Equal(t, InputNode{
		ID:         int64(0),
		Labels:     []string{"Person", "Admin"},
		Properties: []Property{{Key: "name", Value: "alice"}},
	}, gotNodes[0])
	assert.Empty(t, gotNodes[2].Labels)
	assert.Empty(t, gotNodes[2].Properties)

	gotRels := drain(t, in.Relationships)
	require.Len(t, gotRels, 2)
	assert.Equal(t, int64(1), gotRels[0].EndNode)
	assert.Equal(t, []Property{{Key: "since", Value: "2020"}}, gotRels[0].Properties)
	assert.Empty(t, gotRels[1].Properties)
}

func TestNewCSVInput_String(t *testing.T) {
	dir := t.TempDir()
	nodes := writeFile(t, dir, "nodes.csv", ":ID\nalice\nbob\n")
	rels := writeFile(t, dir, "rels.csv", ":START_ID,:END_ID,:TYPE\nalice,bob,KNOWS\n")

	in, err := NewCSVInput(nodes, rels, IDTypeString)
	require.NoError(t, err)
	assert.True(t, in.IdMapper.NeedsPreparation())
	assert.Equal(t, "alice", drain(t, in.Relationships)[0].StartNode)
}

func TestNewCSVInput_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCSVInput("a", "b", "uuid")
	assert.Error(t, err)

	in, err := NewCSVInput(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "missing.csv"), IDTypeActual)
	require.NoError(t, err)
	_, err = in.Nodes.Iterator()
	assert.Error(t, err)

	noType := writeFile(t, dir, "notype.csv", ":START_ID,:END_ID\n0,1\n")
	in, err = NewCSVInput(noType, noType, IDTypeActual)
	require.NoError(t, err)
	_, err = in.Relationships.Iterator()
	assert.ErrorContains(t, err, ":TYPE")

	bad := writeFile(t, dir, "bad.csv", ":ID\nx\n")
	in, err = NewCSVInput(bad, bad, IDTypeActual)
	require.NoError(t, err)
	it, err := in.Nodes.Iterator()
	require.NoError(t, err)
	defer it.Close()
	_, _, err = it.Next()
	assert.ErrorContains(t, err, "not numeric")
}

func TestCSVIterator_CloseTwice(t *testing.T) {
	dir := t.TempDir()
	nodes := writeFile(t, dir, "nodes.csv", ":ID\n0\n")
	in, err := NewCSVInput(nodes, nodes, IDTypeActual)
	require.NoError(t, err)

	it, err := in.Nodes.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Close())
	assert.NoError(t, it.Close())
}
