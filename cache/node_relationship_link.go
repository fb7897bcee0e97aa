package cache

import "sync/atomic"

// NoRelationship marks an empty chain
const NoRelationship int64 = -1

// NodeRelationshipLink tracks, per node, its degree and the head of its relationship chain
// while relationships are imported and linked.
type NodeRelationshipLink struct {
	threshold int64
	counts    chunkedInt64
	// chain heads are stored plus one so untouched slots read as NoRelationship
	heads  chunkedInt64
	closed atomic.Bool
}

// NewNodeRelationshipLink creates a cache flagging nodes with at least denseNodeThreshold
// relationships as dense
func NewNodeRelationshipLink(denseNodeThreshold int) *NodeRelationshipLink {
	return &NodeRelationshipLink{threshold: int64(denseNodeThreshold)}
}

// IncrementCount adds one to the degree of node and returns the new degree
func (l *NodeRelationshipLink) IncrementCount(node int64) int64 {
	return l.counts.slot(node, true).Add(1)
}

// Count returns the degree of node
func (l *NodeRelationshipLink) Count(node int64) int64 {
	return l.counts.get(node)
}

// IsDense reports whether node reached the dense node threshold
func (l *NodeRelationshipLink) IsDense(node int64) bool {
	return l.threshold > 0 && l.Count(node) >= l.threshold
}

// GetAndPutRelationship makes rel the head of node's chain and returns the previous head,
// or NoRelationship. The swap is atomic per node, so concurrent linkers never lose a link.
func (l *NodeRelationshipLink) GetAndPutRelationship(node, rel int64) int64 {
	return l.heads.slot(node, true).Swap(rel+1) - 1
}

// FirstRelationship returns the current head of node's chain, or NoRelationship
func (l *NodeRelationshipLink) FirstRelationship(node int64) int64 {
	return l.heads.get(node) - 1
}

// ClearRelationships forgets every chain head and releases their memory. Degrees are kept.
func (l *NodeRelationshipLink) ClearRelationships() {
	l.heads.reset()
}

// Visit reports the memory held by degrees and chain heads
func (l *NodeRelationshipLink) Visit(visitor MemoryStatsVisitor) {
	visitor.HeapUsage(l.counts.bytes() + l.heads.bytes())
}

// Close releases all memory. Safe to call more than once.
func (l *NodeRelationshipLink) Close() {
	if l.closed.CompareAndSwap(false, true) {
		l.counts.reset()
		l.heads.reset()
	}
}

// IsClosed reports whether Close was called
func (l *NodeRelationshipLink) IsClosed() bool {
	return l.closed.Load()
}
