package store

import (
	"sync"
	"sync/atomic"

	"github.com/teranos/bulkgraph/errors"
)

const (
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

type page[T Record] struct {
	records [pageSize]T
	inUse   [pageSize]bool
}

// RecordStore keeps records indexed by id. Records are paged so sparse ids do not
// allocate the whole id range. Every record put or updated is also handed to the log
// writer when one is attached.
type RecordStore[T Record] struct {
	name   string
	writer *Writer

	nextID atomic.Int64
	count  atomic.Int64

	mu         sync.RWMutex
	pages      map[int64]*page[T]
	highID     int64 // one past the highest id in use
	updateMode bool
}

// NewRecordStore creates an empty store. writer may be nil.
func NewRecordStore[T Record](name string, writer *Writer) *RecordStore[T] {
	return &RecordStore[T]{
		name:   name,
		writer: writer,
		pages:  map[int64]*page[T]{},
	}
}

// Name of the store, used in logs and errors
func (s *RecordStore[T]) Name() string { return s.name }

// NextID reserves the next record id
func (s *RecordStore[T]) NextID() int64 {
	return s.nextID.Add(1) - 1
}

// HighID is one past the highest id in use or reserved
func (s *RecordStore[T]) HighID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return max(s.highID, s.nextID.Load())
}

// Count of records in use
func (s *RecordStore[T]) Count() int64 {
	return s.count.Load()
}

// Put stores new records
func (s *RecordStore[T]) Put(records ...T) error {
	s.mu.Lock()
	for _, record := range records {
		id := record.RecordID()
		if id < 0 {
			s.mu.Unlock()
			return errors.Newf("%s: invalid record id %d", s.name, id)
		}
		p := s.pages[id>>pageShift]
		if p == nil {
			p = &page[T]{}
			s.pages[id>>pageShift] = p
		}
		if !p.inUse[id&pageMask] {
			p.inUse[id&pageMask] = true
			s.count.Add(1)
		}
		p.records[id&pageMask] = record
		s.highID = max(s.highID, id+1)
	}
	s.mu.Unlock()

	return s.write(records)
}

// Update patches records already in the store. Only allowed in update mode.
func (s *RecordStore[T]) Update(records ...T) error {
	s.mu.Lock()
	if !s.updateMode {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrNotUpdateMode, "update %s", s.name)
	}
	for _, record := range records {
		id := record.RecordID()
		p := s.pages[id>>pageShift]
		if id < 0 || p == nil || !p.inUse[id&pageMask] {
			s.mu.Unlock()
			return errors.Newf("%s: record %d not in use", s.name, id)
		}
		p.records[id&pageMask] = record
	}
	s.mu.Unlock()

	return s.write(records)
}

func (s *RecordStore[T]) write(records []T) error {
	if s.writer == nil || len(records) == 0 {
		return nil
	}
	batch := make([]any, len(records))
	for i, r := range records {
		batch[i] = r
	}
	return s.writer.Write(batch...)
}

// Get returns the record with id, if in use
func (s *RecordStore[T]) Get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	if id < 0 {
		return zero, false
	}
	p := s.pages[id>>pageShift]
	if p == nil || !p.inUse[id&pageMask] {
		return zero, false
	}
	return p.records[id&pageMask], true
}

// SwitchToUpdateMode allows Update
func (s *RecordStore[T]) SwitchToUpdateMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateMode = true
}

// InUpdateMode reports whether Update is allowed
func (s *RecordStore[T]) InUpdateMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateMode
}

// Scan iterates records in use in id order, or from the highest id down when reverse is
// set. The id range is fixed when the scan starts.
func (s *RecordStore[T]) Scan(reverse bool) *Scanner[T] {
	high := s.HighID()
	sc := &Scanner[T]{store: s, reverse: reverse, next: 0, end: high}
	if reverse {
		sc.next = high - 1
		sc.end = -1
	}
	return sc
}

// Scanner walks a RecordStore. It satisfies staging.Source.
type Scanner[T Record] struct {
	store   *RecordStore[T]
	reverse bool
	next    int64
	end     int64
	closed  bool
}

// Next returns the next record in use
func (sc *Scanner[T]) Next() (T, bool, error) {
	var zero T
	if sc.closed {
		return zero, false, nil
	}
	for sc.next != sc.end {
		id := sc.next
		if sc.reverse {
			sc.next--
		} else {
			sc.next++
		}
		if record, ok := sc.store.Get(id); ok {
			return record, true, nil
		}
	}
	return zero, false, nil
}

// Close ends the scan
func (sc *Scanner[T]) Close() error {
	sc.closed = true
	return nil
}
