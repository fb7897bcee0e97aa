package idmapping

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/bulkgraph/errors"
)

func TestActual(t *testing.T) {
	m := Actual()
	assert.False(t, m.NeedsPreparation())
	require.NoError(t, m.Put(int64(5), 5))

	got, err := m.Get(int64(5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = m.Get("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), got)

	_, err = m.Get("abc")
	assert.True(t, errors.Is(err, errors.ErrUnknownID))
	_, err = m.Get(int64(-1))
	assert.True(t, errors.Is(err, errors.ErrUnknownID))
	_, err = m.Get(3.5)
	assert.Error(t, err)
}

func TestStrings(t *testing.T) {
	m := Strings()
	assert.True(t, m.NeedsPreparation())

	var wg sync.WaitGroup
	for i, id := range []string{"carol", "alice", "bob"} {
		wg.Add(1)
		go func(id string, actual int64) {
			defer wg.Done()
			assert.NoError(t, m.Put(id, actual))
		}(id, int64(i))
	}
	wg.Wait()

	_, err := m.Get("alice")
	require.Error(t, err, "lookups need preparation")

	require.NoError(t, m.Prepare())
	for id, want := range map[string]int64{"carol": 0, "alice": 1, "bob": 2} {
		got, err := m.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	_, err = m.Get("dave")
	assert.True(t, errors.Is(err, errors.ErrUnknownID))
	assert.Contains(t, err.Error(), "dave")

	assert.Error(t, m.Put("erin", 3), "no puts after prepare")
	assert.NoError(t, m.Close())
}

func TestStrings_Duplicates(t *testing.T) {
	m := Strings()
	require.NoError(t, m.Put("a", 0))
	require.NoError(t, m.Put("a", 1))

	err := m.Prepare()
	assert.True(t, errors.Is(err, errors.ErrDuplicateID))
}

func TestGenerators(t *testing.T) {
	inc := Incremental()
	for want := int64(0); want < 3; want++ {
		got, err := inc.Generate("ignored")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := ActualIds().Generate(int64(9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), got)

	_, err = ActualIds().Generate("nine")
	assert.Error(t, err)
}
