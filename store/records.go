// Package store holds the record stores an import writes into: id-indexed node,
// relationship and property records, their token dictionaries and counts. Records are
// appended to msgpack logs while importing; tokens, counts and run summaries are saved to
// a SQLite metadata database on close.
package store

// NoID marks an absent record pointer
const NoID int64 = -1

// Record is anything stored by id
type Record interface {
	RecordID() int64
}

// NodeRecord is one stored node
type NodeRecord struct {
	ID       int64   `msgpack:"id"`
	Labels   []int32 `msgpack:"labels,omitempty"`
	NextRel  int64   `msgpack:"next_rel"`  // head of the relationship chain
	NextProp int64   `msgpack:"next_prop"` // first property record
	Dense    bool    `msgpack:"dense,omitempty"`
}

func (r NodeRecord) RecordID() int64 { return r.ID }

// NewNodeRecord returns a node with no relationships or properties
func NewNodeRecord(id int64) NodeRecord {
	return NodeRecord{ID: id, NextRel: NoID, NextProp: NoID}
}

// RelationshipRecord is one stored relationship. It sits in two doubly linked chains,
// the one of its start node (First*) and the one of its end node (Second*).
type RelationshipRecord struct {
	ID                 int64 `msgpack:"id"`
	StartNode          int64 `msgpack:"start"`
	EndNode            int64 `msgpack:"end"`
	Type               int32 `msgpack:"type"`
	FirstPrev          int64 `msgpack:"first_prev"`
	FirstNext          int64 `msgpack:"first_next"`
	SecondPrev         int64 `msgpack:"second_prev"`
	SecondNext         int64 `msgpack:"second_next"`
	FirstInFirstChain  bool  `msgpack:"first_in_first,omitempty"`
	FirstInSecondChain bool  `msgpack:"first_in_second,omitempty"`
	NextProp           int64 `msgpack:"next_prop"`
}

func (r RelationshipRecord) RecordID() int64 { return r.ID }

// NewRelationshipRecord returns an unlinked relationship
func NewRelationshipRecord(id, start, end int64, relType int32) RelationshipRecord {
	return RelationshipRecord{
		ID:         id,
		StartNode:  start,
		EndNode:    end,
		Type:       relType,
		FirstPrev:  NoID,
		FirstNext:  NoID,
		SecondPrev: NoID,
		SecondNext: NoID,
		NextProp:   NoID,
	}
}

// IsSelfLoop reports whether both ends are the same node
func (r RelationshipRecord) IsSelfLoop() bool {
	return r.StartNode == r.EndNode
}

// PropertyRecord is one key/value pair, chained per entity through NextProp
type PropertyRecord struct {
	ID       int64 `msgpack:"id"`
	KeyID    int32 `msgpack:"key"`
	Value    any   `msgpack:"value"`
	NextProp int64 `msgpack:"next_prop"`
}

func (r PropertyRecord) RecordID() int64 { return r.ID }
