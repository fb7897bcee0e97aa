// Package input describes the nodes and relationships fed into an import and provides an
// in-memory and a CSV implementation.
package input

import (
	"github.com/teranos/bulkgraph/idmapping"
)

// Property is one key/value pair of a node or relationship
type Property struct {
	Key   string
	Value any
}

// InputNode is one node to import. ID is an input id resolved through the IdMapper.
type InputNode struct {
	ID         any
	Labels     []string
	Properties []Property
}

// InputRelationship is one relationship to import, referring to nodes by input id
type InputRelationship struct {
	StartNode  any
	EndNode    any
	Type       string
	Properties []Property
}

// Iterator is a single pass over a sequence. Next returns false once exhausted.
type Iterator[T any] interface {
	Next() (T, bool, error)
	Close() error
}

// Iterable hands out independent passes over the same sequence
type Iterable[T any] interface {
	Iterator() (Iterator[T], error)
}

// Input bundles everything an import reads
type Input struct {
	Nodes         Iterable[InputNode]
	Relationships Iterable[InputRelationship]
	IdMapper      idmapping.IdMapper
	IdGenerator   idmapping.IdGenerator
}

// NewInput creates an input over in-memory slices
func NewInput(nodes []InputNode, relationships []InputRelationship, mapper idmapping.IdMapper, generator idmapping.IdGenerator) Input {
	return Input{
		Nodes:         Slice(nodes),
		Relationships: Slice(relationships),
		IdMapper:      mapper,
		IdGenerator:   generator,
	}
}

// Slice returns an iterable over items
func Slice[T any](items []T) Iterable[T] {
	return sliceIterable[T](items)
}

type sliceIterable[T any] []T

func (s sliceIterable[T]) Iterator() (Iterator[T], error) {
	return &sliceIterator[T]{items: s}, nil
}

type sliceIterator[T any] struct {
	items []T
	pos   int
}

func (it *sliceIterator[T]) Next() (T, bool, error) {
	var zero T
	if it.pos >= len(it.items) {
		return zero, false, nil
	}
	item := it.items[it.pos]
	it.pos++
	return item, true, nil
}

func (it *sliceIterator[T]) Close() error { return nil }
