package importer

import (
	"context"

	"github.com/teranos/bulkgraph/cache"
	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/idmapping"
	"github.com/teranos/bulkgraph/input"
	"github.com/teranos/bulkgraph/staging"
	"github.com/teranos/bulkgraph/store"
)

// Step names shared by the stages
const (
	StepInput        = "INPUT"
	StepNode         = "NODE"
	StepProperties   = "PROPERTIES"
	StepWriter       = "WRITER"
	StepPrepare      = "PREPARE"
	StepCalculate    = "CALCULATE"
	StepRelationship = "RELATIONSHIP"
	StepRead         = "READ"
	StepProcess      = "PROCESS"
	StepUpdate       = "UPDATE"
)

type nodeBatch struct {
	input      []input.InputNode
	nodes      []store.NodeRecord
	properties []store.PropertyRecord
}

type relationshipBatch struct {
	input         []input.InputRelationship
	starts        []int64
	ends          []int64
	relationships []store.RelationshipRecord
	properties    []store.PropertyRecord
}

// nodeEncoder generates node ids, feeds the id mapper and resolves label tokens
func nodeEncoder(mapper idmapping.IdMapper, generator idmapping.IdGenerator, labels *store.TokenRepository) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		in := b.([]input.InputNode)
		batch := &nodeBatch{input: in, nodes: make([]store.NodeRecord, len(in))}
		for i, node := range in {
			id, err := generator.Generate(node.ID)
			if err != nil {
				return errors.Wrapf(err, "node %v", node.ID)
			}
			if err := mapper.Put(node.ID, id); err != nil {
				return errors.Wrapf(err, "node %v", node.ID)
			}
			record := store.NewNodeRecord(id)
			record.Labels = labels.GetOrCreateAll(node.Labels)
			batch.nodes[i] = record
		}
		return send(ctx, batch)
	}
}

// encodeProperties turns one entity's properties into a chain of property records and
// returns the id of its first record
func encodeProperties(keys *store.TokenRepository, properties *store.RecordStore[store.PropertyRecord], list []input.Property, into []store.PropertyRecord) (int64, []store.PropertyRecord) {
	if len(list) == 0 {
		return store.NoID, into
	}
	ids := make([]int64, len(list))
	for i := range list {
		ids[i] = properties.NextID()
	}
	for i, p := range list {
		next := store.NoID
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		into = append(into, store.PropertyRecord{
			ID:       ids[i],
			KeyID:    keys.GetOrCreate(p.Key),
			Value:    p.Value,
			NextProp: next,
		})
	}
	return ids[0], into
}

func nodePropertyEncoder(keys *store.TokenRepository, properties *store.RecordStore[store.PropertyRecord]) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		batch := b.(*nodeBatch)
		for i, node := range batch.input {
			batch.nodes[i].NextProp, batch.properties = encodeProperties(keys, properties, node.Properties, batch.properties)
		}
		return send(ctx, batch)
	}
}

func relationshipPropertyEncoder(keys *store.TokenRepository, properties *store.RecordStore[store.PropertyRecord]) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		batch := b.(*relationshipBatch)
		for i, rel := range batch.input {
			batch.relationships[i].NextProp, batch.properties = encodeProperties(keys, properties, rel.Properties, batch.properties)
		}
		return send(ctx, batch)
	}
}

// nodeWriter is the single consumer handing node batches to the store
func nodeWriter(st *store.BatchingStore) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		batch := b.(*nodeBatch)
		if err := st.Nodes().Put(batch.nodes...); err != nil {
			return err
		}
		if err := st.Properties().Put(batch.properties...); err != nil {
			return err
		}
		return send(ctx, batch)
	}
}

func relationshipWriter(st *store.BatchingStore) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		batch := b.(*relationshipBatch)
		if err := st.Relationships().Put(batch.relationships...); err != nil {
			return err
		}
		if err := st.Properties().Put(batch.properties...); err != nil {
			return err
		}
		return send(ctx, batch)
	}
}

// relationshipPreparer resolves input node ids of both ends through the id mapper
func relationshipPreparer(mapper idmapping.IdMapper) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		in := b.([]input.InputRelationship)
		batch := &relationshipBatch{
			input:  in,
			starts: make([]int64, len(in)),
			ends:   make([]int64, len(in)),
		}
		for i, rel := range in {
			start, err := mapper.Get(rel.StartNode)
			if err != nil {
				return errors.Wrapf(err, "relationship %v-[%s]->%v: start node", rel.StartNode, rel.Type, rel.EndNode)
			}
			end, err := mapper.Get(rel.EndNode)
			if err != nil {
				return errors.Wrapf(err, "relationship %v-[%s]->%v: end node", rel.StartNode, rel.Type, rel.EndNode)
			}
			batch.starts[i], batch.ends[i] = start, end
		}
		return send(ctx, batch)
	}
}

// denseNodeCalculator counts the degree of every node. A self loop counts once.
func denseNodeCalculator(link *cache.NodeRelationshipLink) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		batch := b.(*relationshipBatch)
		for i := range batch.input {
			link.IncrementCount(batch.starts[i])
			if batch.ends[i] != batch.starts[i] {
				link.IncrementCount(batch.ends[i])
			}
		}
		return send(ctx, batch)
	}
}

// relationshipEncoder assigns relationship ids in arrival order and makes every new
// relationship the head of both node chains. Must run on a single processor.
func relationshipEncoder(rels *store.RecordStore[store.RelationshipRecord], types *store.TokenRepository, link *cache.NodeRelationshipLink) staging.ProcessFunc {
	return func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		batch := b.(*relationshipBatch)
		batch.relationships = make([]store.RelationshipRecord, len(batch.input))
		for i, rel := range batch.input {
			record := store.NewRelationshipRecord(rels.NextID(), batch.starts[i], batch.ends[i], types.GetOrCreate(rel.Type))
			record.FirstNext = link.GetAndPutRelationship(record.StartNode, record.ID)
			if record.IsSelfLoop() {
				record.SecondNext = record.FirstNext
			} else {
				record.SecondNext = link.GetAndPutRelationship(record.EndNode, record.ID)
			}
			batch.relationships[i] = record
		}
		return send(ctx, batch)
	}
}
