package testing

import (
	"github.com/teranos/bulkgraph/idmapping"
	"github.com/teranos/bulkgraph/input"
)

// Node builds an input node with numeric id and labels
func Node(id int64, labels ...string) input.InputNode {
	return input.InputNode{ID: id, Labels: labels}
}

// Rel builds an input relationship between numeric ids
func Rel(start, end int64, relType string) input.InputRelationship {
	return input.InputRelationship{StartNode: start, EndNode: end, Type: relType}
}

// ActualInput bundles in-memory nodes and relationships with numeric ids used as-is
func ActualInput(nodes []input.InputNode, rels []input.InputRelationship) input.Input {
	return input.NewInput(nodes, rels, idmapping.Actual(), idmapping.ActualIds())
}

// StringInput bundles in-memory nodes and relationships with string ids that need
// preparation before lookup
func StringInput(nodes []input.InputNode, rels []input.InputRelationship) input.Input {
	return input.NewInput(nodes, rels, idmapping.Strings(), idmapping.Incremental())
}
