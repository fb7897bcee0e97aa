package cache

import (
	"sync"
	"sync/atomic"
)

const (
	chunkShift = 16
	chunkSize  = 1 << chunkShift
	chunkMask  = chunkSize - 1
)

// chunkedInt64 is a lazily grown array of atomic int64 indexed by node id.
// Unwritten slots read as zero.
type chunkedInt64 struct {
	mu     sync.RWMutex
	chunks []*[chunkSize]atomic.Int64
}

func (a *chunkedInt64) slot(index int64, create bool) *atomic.Int64 {
	c := int(index >> chunkShift)

	a.mu.RLock()
	if c < len(a.chunks) && a.chunks[c] != nil {
		chunk := a.chunks[c]
		a.mu.RUnlock()
		return &chunk[index&chunkMask]
	}
	a.mu.RUnlock()

	if !create {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for c >= len(a.chunks) {
		a.chunks = append(a.chunks, nil)
	}
	if a.chunks[c] == nil {
		a.chunks[c] = new([chunkSize]atomic.Int64)
	}
	return &a.chunks[c][index&chunkMask]
}

func (a *chunkedInt64) get(index int64) int64 {
	if s := a.slot(index, false); s != nil {
		return s.Load()
	}
	return 0
}

func (a *chunkedInt64) reset() {
	a.mu.Lock()
	a.chunks = nil
	a.mu.Unlock()
}

// bytes is the memory held by allocated chunks
func (a *chunkedInt64) bytes() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var n int64
	for _, chunk := range a.chunks {
		if chunk != nil {
			n += chunkSize * 8
		}
	}
	return n
}
