package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/bulkgraph/errors"
)

func TestRecordStore_PutGet(t *testing.T) {
	s := NewRecordStore[NodeRecord]("nodes", nil)

	require.NoError(t, s.Put(NewNodeRecord(0), NewNodeRecord(2)))

	n, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, NoID, n.NextRel)

	_, ok = s.Get(1)
	assert.False(t, ok, "hole between ids")
	_, ok = s.Get(-1)
	assert.False(t, ok)

	assert.Equal(t, int64(2), s.Count())
	assert.Equal(t, int64(3), s.HighID())
}

func TestRecordStore_SparseIds(t *testing.T) {
	s := NewRecordStore[NodeRecord]("nodes", nil)
	require.NoError(t, s.Put(NewNodeRecord(5_000_000_000)))

	_, ok := s.Get(5_000_000_000)
	assert.True(t, ok)
	assert.Len(t, s.pages, 1)
}

func TestRecordStore_NextID(t *testing.T) {
	s := NewRecordStore[RelationshipRecord]("relationships", nil)

	var wg sync.WaitGroup
	ids := make([]int64, 100)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = s.NextID()
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "id %d handed out twice", id)
		seen[id] = true
	}
	assert.Equal(t, int64(100), s.HighID())
}

func TestRecordStore_UpdateRequiresUpdateMode(t *testing.T) {
	s := NewRecordStore[NodeRecord]("nodes", nil)
	require.NoError(t, s.Put(NewNodeRecord(0)))

	n, _ := s.Get(0)
	n.NextRel = 7
	err := s.Update(n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotUpdateMode))

	s.SwitchToUpdateMode()
	require.NoError(t, s.Update(n))
	got, _ := s.Get(0)
	assert.Equal(t, int64(7), got.NextRel)

	assert.Error(t, s.Update(NewNodeRecord(9)), "record not in use")
}

func TestRecordStore_Scan(t *testing.T) {
	s := NewRecordStore[NodeRecord]("nodes", nil)
	for _, id := range []int64{0, 1, 3, pageSize + 1} {
		require.NoError(t, s.Put(NewNodeRecord(id)))
	}

	collect := func(sc *Scanner[NodeRecord]) []int64 {
		defer sc.Close()
		var ids []int64
		for {
			n, ok, err := sc.Next()
			require.NoError(t, err)
			if !ok {
				return ids
			}
			ids = append(ids, n.ID)
		}
	}

	assert.Equal(t, []int64{0, 1, 3, pageSize + 1}, collect(s.Scan(false)))
	assert.Equal(t, []int64{pageSize + 1, 3, 1, 0}, collect(s.Scan(true)))

	empty := NewRecordStore[NodeRecord]("empty", nil)
	assert.Empty(t, collect(empty.Scan(true)))
}

func TestRecordStore_WritesThroughToLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.log")
	w, err := NewWriter(path, 2)
	require.NoError(t, err)

	s := NewRecordStore[NodeRecord]("nodes", w)
	require.NoError(t, s.Put(NewNodeRecord(0), NewNodeRecord(1)))
	s.SwitchToUpdateMode()

	n, _ := s.Get(1)
	n.NextRel = 4
	require.NoError(t, s.Update(n))
	require.NoError(t, w.Close())

	records, err := Load[NodeRecord](path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(4), records[1].NextRel, "later log entry wins")
	assert.Equal(t, NoID, records[0].NextRel)
}
