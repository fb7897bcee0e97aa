package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_FlushIsBarrier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relationships.log")
	w, err := NewWriter(path, 1)
	require.NoError(t, err)
	defer w.Close()

	for i := int64(0); i < 50; i++ {
		require.NoError(t, w.Write(NewRelationshipRecord(i, i, i+1, 0)))
	}
	require.NoError(t, w.Flush())

	var ids []int64
	require.NoError(t, Replay(path, func(r RelationshipRecord) error {
		ids = append(ids, r.ID)
		return nil
	}))
	assert.Len(t, ids, 50)
	assert.Equal(t, int64(49), ids[49], "write order is kept")
}

func TestWriter_CloseTwice(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "p.log"), 4)
	require.NoError(t, err)

	require.NoError(t, w.Write(PropertyRecord{ID: 0, KeyID: 1, Value: "x", NextProp: NoID}))
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Error(t, w.Write(PropertyRecord{ID: 1}))
}

func TestWriter_PropertyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.log")
	w, err := NewWriter(path, 4)
	require.NoError(t, err)

	require.NoError(t, w.Write(
		PropertyRecord{ID: 0, KeyID: 0, Value: "Alice", NextProp: 1},
		PropertyRecord{ID: 1, KeyID: 1, Value: int64(42), NextProp: NoID},
	))
	require.NoError(t, w.Close())

	records, err := Load[PropertyRecord](path)
	require.NoError(t, err)
	assert.Equal(t, "Alice", records[0].Value)
	assert.EqualValues(t, 42, records[1].Value)
	assert.Equal(t, int64(1), records[0].NextProp)
}

func TestReplay_Errors(t *testing.T) {
	err := Replay(filepath.Join(t.TempDir(), "missing.log"), func(NodeRecord) error { return nil })
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.log")
	require.NoError(t, os.WriteFile(path, []byte{0xc1}, 0644))
	err = Replay(path, func(NodeRecord) error { return nil })
	assert.Error(t, err)
}

func TestNewWriter_BadPath(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "missing", "dir", "n.log"), 1)
	assert.Error(t, err)
}
