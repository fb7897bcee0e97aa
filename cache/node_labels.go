package cache

import (
	"sync"
	"sync/atomic"
)

// NodeLabelsCache remembers the label ids of every node so relationship counting can
// look up the labels of both ends without reading node records again.
type NodeLabelsCache struct {
	mu     sync.RWMutex
	chunks []*labelChunk
	closed atomic.Bool
}

type labelChunk struct {
	mu     sync.Mutex
	labels [chunkSize][]int32
	bytes  int64
}

// NewNodeLabelsCache creates an empty cache
func NewNodeLabelsCache() *NodeLabelsCache {
	return &NodeLabelsCache{}
}

func (c *NodeLabelsCache) chunk(node int64, create bool) *labelChunk {
	i := int(node >> chunkShift)

	c.mu.RLock()
	if i < len(c.chunks) && c.chunks[i] != nil {
		ch := c.chunks[i]
		c.mu.RUnlock()
		return ch
	}
	c.mu.RUnlock()
	if !create {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i >= len(c.chunks) {
		c.chunks = append(c.chunks, nil)
	}
	if c.chunks[i] == nil {
		c.chunks[i] = &labelChunk{}
	}
	return c.chunks[i]
}

// Put stores the label ids of node, replacing any earlier value
func (c *NodeLabelsCache) Put(node int64, labels []int32) {
	ch := c.chunk(node, true)
	copied := append([]int32(nil), labels...)

	ch.mu.Lock()
	ch.bytes += int64(4 * (len(copied) - len(ch.labels[node&chunkMask])))
	ch.labels[node&chunkMask] = copied
	ch.mu.Unlock()
}

// Get returns the label ids of node, nil when none were put
func (c *NodeLabelsCache) Get(node int64) []int32 {
	ch := c.chunk(node, false)
	if ch == nil {
		return nil
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.labels[node&chunkMask]
}

// Visit reports the slice headers of every allocated chunk plus the stored label ids
func (c *NodeLabelsCache) Visit(visitor MemoryStatsVisitor) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, ch := range c.chunks {
		if ch == nil {
			continue
		}
		ch.mu.Lock()
		total += chunkSize*24 + ch.bytes
		ch.mu.Unlock()
	}
	visitor.HeapUsage(total)
}

// Close releases all memory. Safe to call more than once.
func (c *NodeLabelsCache) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.mu.Lock()
		c.chunks = nil
		c.mu.Unlock()
	}
}

// IsClosed reports whether Close was called
func (c *NodeLabelsCache) IsClosed() bool {
	return c.closed.Load()
}
