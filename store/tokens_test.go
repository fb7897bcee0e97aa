package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepository_GetOrCreate(t *testing.T) {
	r := NewTokenRepository(KindLabel)

	assert.Equal(t, int32(0), r.GetOrCreate("Person"))
	assert.Equal(t, int32(1), r.GetOrCreate("Movie"))
	assert.Equal(t, int32(0), r.GetOrCreate("Person"))
	assert.Equal(t, []int32{1, 2}, r.GetOrCreateAll([]string{"Movie", "Actor"}))
	assert.Nil(t, r.GetOrCreateAll(nil))

	name, ok := r.Name(2)
	require.True(t, ok)
	assert.Equal(t, "Actor", name)
	_, ok = r.Name(3)
	assert.False(t, ok)

	id, ok := r.ID("Movie")
	assert.True(t, ok)
	assert.Equal(t, int32(1), id)

	assert.Equal(t, int32(3), r.HighID())
	assert.Equal(t, []Token{{0, "Person"}, {1, "Movie"}, {2, "Actor"}}, r.Tokens())
}

func TestTokenRepository_Concurrent(t *testing.T) {
	r := NewTokenRepository(KindPropertyKey)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.GetOrCreate(fmt.Sprintf("key%d", i%10))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), r.HighID())
	for _, token := range r.Tokens() {
		id, ok := r.ID(token.Name)
		require.True(t, ok)
		assert.Equal(t, token.ID, id)
	}
}

func TestCountsStore(t *testing.T) {
	c := NewCountsStore()
	c.AddNodeCounts(map[int32]int64{AnyLabel: 2, 0: 1})
	c.AddNodeCounts(map[int32]int64{AnyLabel: 1})

	assert.Equal(t, int64(3), c.NodeCount(AnyLabel))
	assert.Equal(t, int64(1), c.NodeCount(0))
	assert.Zero(t, c.NodeCount(5))

	key := RelationshipCountKey{StartLabel: AnyLabel, Type: 0, EndLabel: AnyLabel}
	c.AddRelationshipCounts(map[RelationshipCountKey]int64{key: 2})
	assert.Equal(t, int64(2), c.RelationshipCount(AnyLabel, 0, AnyLabel))

	snapshot := c.NodeCounts()
	snapshot[AnyLabel] = 100
	assert.Equal(t, int64(3), c.NodeCount(AnyLabel), "snapshot is a copy")
}
