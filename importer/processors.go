package importer

import (
	"context"
	"sync/atomic"

	"github.com/teranos/bulkgraph/cache"
	"github.com/teranos/bulkgraph/staging"
	"github.com/teranos/bulkgraph/store"
)

// StoreProcessor visits batches of records during a full store scan. Process may modify
// the records in place and reports whether it did; modified batches are written back.
type StoreProcessor[T store.Record] interface {
	Process(records []T) bool
	// Sequential processors see batches one at a time in scan order
	Sequential() bool
}

// MultipleProcessors runs several processors over the same scan
type MultipleProcessors[T store.Record] []StoreProcessor[T]

// Process implements StoreProcessor
func (m MultipleProcessors[T]) Process(records []T) bool {
	changed := false
	for _, p := range m {
		if p.Process(records) {
			changed = true
		}
	}
	return changed
}

// Sequential implements StoreProcessor
func (m MultipleProcessors[T]) Sequential() bool {
	for _, p := range m {
		if p.Sequential() {
			return true
		}
	}
	return false
}

// NodeFirstRelationshipProcessor points every node at the head of its relationship
// chain and flags dense nodes.
type NodeFirstRelationshipProcessor struct {
	link  *cache.NodeRelationshipLink
	dense atomic.Int64
}

func NewNodeFirstRelationshipProcessor(link *cache.NodeRelationshipLink) *NodeFirstRelationshipProcessor {
	return &NodeFirstRelationshipProcessor{link: link}
}

func (p *NodeFirstRelationshipProcessor) Process(nodes []store.NodeRecord) bool {
	for i := range nodes {
		nodes[i].NextRel = p.link.FirstRelationship(nodes[i].ID)
		nodes[i].Dense = p.link.IsDense(nodes[i].ID)
		if nodes[i].Dense {
			p.dense.Add(1)
		}
	}
	return len(nodes) > 0
}

func (p *NodeFirstRelationshipProcessor) Sequential() bool { return false }

// DenseNodes seen so far
func (p *NodeFirstRelationshipProcessor) DenseNodes() int64 { return p.dense.Load() }

// NodeCountsProcessor counts nodes per label and remembers the labels of every node
// for the relationship counts.
type NodeCountsProcessor struct {
	labels *cache.NodeLabelsCache
	counts *store.CountsStore
}

func NewNodeCountsProcessor(labels *cache.NodeLabelsCache, counts *store.CountsStore) *NodeCountsProcessor {
	return &NodeCountsProcessor{labels: labels, counts: counts}
}

func (p *NodeCountsProcessor) Process(nodes []store.NodeRecord) bool {
	deltas := map[int32]int64{}
	for _, node := range nodes {
		deltas[store.AnyLabel]++
		for _, label := range node.Labels {
			deltas[label]++
		}
		p.labels.Put(node.ID, node.Labels)
	}
	p.counts.AddNodeCounts(deltas)
	return false
}

func (p *NodeCountsProcessor) Sequential() bool { return false }

// RelationshipLinkbackProcessor fills the previous pointers of both chains. It scans
// relationships from the highest id down, so the first relationship seen for a node is
// its chain head. Must run on a single processor.
type RelationshipLinkbackProcessor struct {
	link *cache.NodeRelationshipLink
}

func NewRelationshipLinkbackProcessor(link *cache.NodeRelationshipLink) *RelationshipLinkbackProcessor {
	return &RelationshipLinkbackProcessor{link: link}
}

func (p *RelationshipLinkbackProcessor) Process(rels []store.RelationshipRecord) bool {
	for i := range rels {
		r := &rels[i]
		r.FirstPrev = p.link.GetAndPutRelationship(r.StartNode, r.ID)
		r.FirstInFirstChain = r.FirstPrev == store.NoID
		if r.IsSelfLoop() {
			r.SecondPrev = r.FirstPrev
		} else {
			r.SecondPrev = p.link.GetAndPutRelationship(r.EndNode, r.ID)
		}
		r.FirstInSecondChain = r.SecondPrev == store.NoID
	}
	return len(rels) > 0
}

func (p *RelationshipLinkbackProcessor) Sequential() bool { return true }

// RelationshipCountsProcessor counts relationships per (start label, type, end label),
// where either label side or the type may be a wildcard. Needs the labels cache filled by
// NodeCountsProcessor.
type RelationshipCountsProcessor struct {
	labels *cache.NodeLabelsCache
	counts *store.CountsStore
}

func NewRelationshipCountsProcessor(labels *cache.NodeLabelsCache, counts *store.CountsStore) *RelationshipCountsProcessor {
	return &RelationshipCountsProcessor{labels: labels, counts: counts}
}

func (p *RelationshipCountsProcessor) Process(rels []store.RelationshipRecord) bool {
	deltas := map[store.RelationshipCountKey]int64{}
	add := func(start, relType, end int32) {
		deltas[store.RelationshipCountKey{StartLabel: start, Type: relType, EndLabel: end}]++
	}
	for _, r := range rels {
		add(store.AnyLabel, store.AnyRelationshipType, store.AnyLabel)
		add(store.AnyLabel, r.Type, store.AnyLabel)
		for _, label := range p.labels.Get(r.StartNode) {
			add(label, store.AnyRelationshipType, store.AnyLabel)
			add(label, r.Type, store.AnyLabel)
		}
		for _, label := range p.labels.Get(r.EndNode) {
			add(store.AnyLabel, store.AnyRelationshipType, label)
			add(store.AnyLabel, r.Type, label)
		}
	}
	p.counts.AddRelationshipCounts(deltas)
	return false
}

func (p *RelationshipCountsProcessor) Sequential() bool { return false }

// NewStoreProcessorStage scans records and runs processor over them. Changed batches go
// to a single updater.
func NewStoreProcessorStage[T store.Record](name string, cfg staging.Configuration, records *store.RecordStore[T], reverse bool, processor StoreProcessor[T]) *staging.Stage {
	stage := staging.NewStage(name, cfg)
	stage.Add(staging.NewIteratorBatcherStep[T](StepRead, cfg, records.Scan(reverse)))

	var opts []staging.StepOption
	if processor.Sequential() {
		opts = append(opts, staging.WithMaxProcessors(1))
	}
	stage.Add(staging.NewProcessorStep(StepProcess, cfg, func(ctx context.Context, b staging.Batch, send staging.Sender) error {
		batch := b.([]T)
		if processor.Process(batch) {
			return send(ctx, batch)
		}
		return nil
	}, opts...))

	stage.Add(staging.NewProcessorStep(StepUpdate, cfg, func(_ context.Context, b staging.Batch, _ staging.Sender) error {
		return records.Update(b.([]T)...)
	}, staging.WithMaxProcessors(1)))
	return stage
}
