package store

import "sync"

// Wildcards for counts
const (
	AnyLabel            int32 = -1
	AnyRelationshipType int32 = -1
)

// RelationshipCountKey identifies one relationship count. Any field may be a wildcard.
type RelationshipCountKey struct {
	StartLabel int32
	Type       int32
	EndLabel   int32
}

// CountsStore holds node counts per label and relationship counts per
// (start label, type, end label)
type CountsStore struct {
	mu            sync.RWMutex
	nodes         map[int32]int64
	relationships map[RelationshipCountKey]int64
}

// NewCountsStore creates an empty counts store
func NewCountsStore() *CountsStore {
	return &CountsStore{
		nodes:         map[int32]int64{},
		relationships: map[RelationshipCountKey]int64{},
	}
}

// AddNodeCounts merges a batch of per-label deltas
func (c *CountsStore) AddNodeCounts(deltas map[int32]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for label, delta := range deltas {
		c.nodes[label] += delta
	}
}

// AddRelationshipCounts merges a batch of deltas
func (c *CountsStore) AddRelationshipCounts(deltas map[RelationshipCountKey]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, delta := range deltas {
		c.relationships[key] += delta
	}
}

// NodeCount for label, or for all nodes with AnyLabel
func (c *CountsStore) NodeCount(label int32) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodes[label]
}

// RelationshipCount for a key, wildcards included
func (c *CountsStore) RelationshipCount(start, relType, end int32) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relationships[RelationshipCountKey{StartLabel: start, Type: relType, EndLabel: end}]
}

// NodeCounts returns a copy of all node counts
func (c *CountsStore) NodeCounts() map[int32]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int32]int64, len(c.nodes))
	for k, v := range c.nodes {
		out[k] = v
	}
	return out
}

// RelationshipCounts returns a copy of all relationship counts
func (c *CountsStore) RelationshipCounts() map[RelationshipCountKey]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[RelationshipCountKey]int64, len(c.relationships))
	for k, v := range c.relationships {
		out[k] = v
	}
	return out
}
