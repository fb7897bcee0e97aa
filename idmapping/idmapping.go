// Package idmapping translates input node ids into the actual record ids assigned by the store.
package idmapping

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/teranos/bulkgraph/errors"
)

// IdMapper maps input ids to actual node ids.
type IdMapper interface {
	// NeedsPreparation reports whether Prepare must run after all Puts and before any Get
	NeedsPreparation() bool
	// Put records that inputID was assigned actualID. Safe for concurrent use.
	Put(inputID any, actualID int64) error
	// Prepare finalizes the mapping once every node was put
	Prepare() error
	// Get returns the actual id of inputID. Safe for concurrent use after Prepare.
	Get(inputID any) (int64, error)
	Close() error
}

// IdGenerator assigns actual ids to input nodes
type IdGenerator interface {
	Generate(inputID any) (int64, error)
}

// Actual returns a mapper for inputs whose ids already are the actual ids
func Actual() IdMapper {
	return actualMapper{}
}

type actualMapper struct{}

func (actualMapper) NeedsPreparation() bool    { return false }
func (actualMapper) Put(any, int64) error      { return nil }
func (actualMapper) Prepare() error            { return nil }
func (actualMapper) Close() error              { return nil }
func (actualMapper) Get(id any) (int64, error) { return numeric(id) }

// Strings returns a mapper for string input ids. Ids are collected during the node phase
// and sorted by Prepare; duplicates are rejected at that point.
func Strings() IdMapper {
	return &stringMapper{}
}

type stringEntry struct {
	id     string
	actual int64
}

type stringMapper struct {
	mu       sync.Mutex
	entries  []stringEntry
	prepared atomic.Bool
}

func (m *stringMapper) NeedsPreparation() bool { return true }

func (m *stringMapper) Put(inputID any, actualID int64) error {
	id, err := stringID(inputID)
	if err != nil {
		return err
	}
	if m.prepared.Load() {
		return errors.AssertionFailedf("put of %q after prepare", id)
	}
	m.mu.Lock()
	m.entries = append(m.entries, stringEntry{id: id, actual: actualID})
	m.mu.Unlock()
	return nil
}

func (m *stringMapper) Prepare() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].id < m.entries[j].id })
	for i := 1; i < len(m.entries); i++ {
		if m.entries[i].id == m.entries[i-1].id {
			return errors.Wrapf(errors.ErrDuplicateID, "input id %q", m.entries[i].id)
		}
	}
	m.prepared.Store(true)
	return nil
}

func (m *stringMapper) Get(inputID any) (int64, error) {
	id, err := stringID(inputID)
	if err != nil {
		return 0, err
	}
	if !m.prepared.Load() {
		return 0, errors.AssertionFailedf("get of %q before prepare", id)
	}
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].id >= id })
	if i == len(m.entries) || m.entries[i].id != id {
		return 0, errors.Wrapf(errors.ErrUnknownID, "input id %q", id)
	}
	return m.entries[i].actual, nil
}

func (m *stringMapper) Close() error {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
	return nil
}

// ActualIds returns a generator using numeric input ids as actual ids
func ActualIds() IdGenerator {
	return actualGenerator{}
}

type actualGenerator struct{}

func (actualGenerator) Generate(inputID any) (int64, error) { return numeric(inputID) }

// Incremental returns a generator handing out 0, 1, 2... in call order
func Incremental() IdGenerator {
	return &incrementalGenerator{}
}

type incrementalGenerator struct {
	next atomic.Int64
}

func (g *incrementalGenerator) Generate(any) (int64, error) {
	return g.next.Add(1) - 1, nil
}

func numeric(id any) (int64, error) {
	switch v := id.(type) {
	case int64:
		return validID(v, id)
	case int:
		return validID(int64(v), id)
	case int32:
		return validID(int64(v), id)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrUnknownID, "input id %q is not numeric", v)
		}
		return validID(n, id)
	default:
		return 0, errors.Wrapf(errors.ErrUnknownID, "input id %v of type %T is not numeric", id, id)
	}
}

func validID(n int64, id any) (int64, error) {
	if n < 0 {
		return 0, errors.Wrapf(errors.ErrUnknownID, "input id %v is negative", id)
	}
	return n, nil
}

func stringID(id any) (string, error) {
	switch v := id.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", errors.Newf("input id %v of type %T cannot be used as a string id", id, id)
	}
}
