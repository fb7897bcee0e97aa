// Package importer runs a bulk import: nodes and relationships are read from an input,
// encoded into the record stores by staged pipelines, then linked into relationship
// chains and counted by full store scans.
package importer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/teranos/bulkgraph/cache"
	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/input"
	"github.com/teranos/bulkgraph/logger"
	"github.com/teranos/bulkgraph/staging"
	"github.com/teranos/bulkgraph/store"
)

// Stage names
const (
	StageNodes                     = "Nodes"
	StageCalculateDenseNodes       = "Calculate dense nodes"
	StageRelationships             = "Relationships"
	StageNodeLinksAndCounts        = "Node --> Relationship + counts"
	StageRelationshipLinksAndCount = "Relationship --> Relationship + counts"
	StageNodeLinks                 = "Node --> Relationship"
	StageRelationshipLinks         = "Relationship --> Relationship"
	StageNodeCounts                = "Node counts"
	StageRelationshipCounts        = "Relationship counts"
)

// DefaultPollInterval is how often the supervisor samples running stages
const DefaultPollInterval = 500 * time.Millisecond

// StoreOpener creates the store an import writes into
type StoreOpener func(dir string, cfg staging.Configuration, l *zap.SugaredLogger) (*store.BatchingStore, error)

// Option configures a ParallelBatchImporter
type Option func(*ParallelBatchImporter)

// WithMemoryCalculator replaces the live memory counters used to pick the linking strategy
func WithMemoryCalculator(calc cache.AvailableMemoryCalculator) Option {
	return func(p *ParallelBatchImporter) { p.memory = calc }
}

// WithClock replaces the wall clock of the supervisor and the import timings
func WithClock(clock staging.Clock) Option {
	return func(p *ParallelBatchImporter) { p.clock = clock }
}

// WithLogger sets the logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *ParallelBatchImporter) { p.logger = l }
}

// WithPollInterval sets how often running stages are sampled
func WithPollInterval(d time.Duration) Option {
	return func(p *ParallelBatchImporter) { p.interval = d }
}

// WithStoreOpener replaces store.Open
func WithStoreOpener(open StoreOpener) Option {
	return func(p *ParallelBatchImporter) { p.openStore = open }
}

// WithRegistry exports stage and step gauges to reg
func WithRegistry(reg prometheus.Registerer) Option {
	return func(p *ParallelBatchImporter) { p.registry = reg }
}

// ParallelBatchImporter imports one input into an empty store directory
type ParallelBatchImporter struct {
	storeDir  string
	cfg       staging.Configuration
	monitor   staging.ExecutionMonitor
	memory    cache.AvailableMemoryCalculator
	clock     staging.Clock
	interval  time.Duration
	logger    *zap.SugaredLogger
	openStore StoreOpener
	registry  prometheus.Registerer
	metrics   *staging.MetricsExecutionMonitor

	// one import at a time
	mu     sync.Mutex
	report *Report

	// caches of the running import, kept for inspection after it returns
	link   *cache.NodeRelationshipLink
	labels *cache.NodeLabelsCache
}

// New creates an importer writing to storeDir. monitor may be nil.
func New(storeDir string, cfg staging.Configuration, monitor staging.ExecutionMonitor, opts ...Option) *ParallelBatchImporter {
	p := &ParallelBatchImporter{
		storeDir:  storeDir,
		cfg:       cfg,
		monitor:   monitor,
		memory:    cache.RuntimeMemoryCalculator{},
		clock:     staging.SystemClock{},
		interval:  DefaultPollInterval,
		openStore: store.Open,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logger.AddIXSymbol(logger.OrDefault(p.logger, "importer"))
	if p.registry != nil {
		p.metrics = staging.NewMetricsExecutionMonitor(p.registry)
	}
	return p
}

// Report of the last successful import, nil before one finished
func (p *ParallelBatchImporter) Report() *Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.report
}

// run is the state of one DoImport call
type run struct {
	*ParallelBatchImporter
	id         string
	log        *zap.SugaredLogger
	supervisor *staging.ExecutionSupervisor
	report     *Report
}

// DoImport imports in. Any stage failure aborts the whole import; the caches and the
// store are released on every return path and the error is marked errors.ErrImportFailed.
func (p *ParallelBatchImporter) DoImport(ctx context.Context, in input.Input) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := &run{ParallelBatchImporter: p, id: uuid.NewString()}
	r.log = p.logger.With(logger.FieldRunID, r.id)
	ctx = logger.WithRunID(ctx, r.id)
	started := p.clock.Now()
	r.report = &Report{RunID: r.id, StoreDir: p.storeDir, Started: started}

	r.log.Infow("Import starting",
		logger.FieldPath, p.storeDir,
		logger.FieldBatchSize, p.cfg.BatchSize,
		logger.FieldProcessors, p.cfg.MaxProcessors)

	defer func() {
		if err != nil {
			r.log.Errorw("Error during import",
				logger.FieldError, err,
				logger.FieldElapsed, p.clock.Now().Sub(started).String())
			err = errors.WithDetailf(errors.MarkImportFailed(err, "import"), "run: %s", r.id)
		}
	}()

	if err := p.cfg.Validate(); err != nil {
		return err
	}

	st, err := p.openStore(p.storeDir, p.cfg, r.log)
	if err != nil {
		return err
	}

	p.link = cache.NewNodeRelationshipLink(p.cfg.DenseNodeThreshold)
	p.labels = cache.NewNodeLabelsCache()
	link, labels := p.link, p.labels
	mapperClosed := false
	defer func() {
		link.Close()
		labels.Close()
		if !mapperClosed {
			if cerr := in.IdMapper.Close(); cerr != nil {
				err = errors.CombineErrors(err, cerr)
			}
		}
		if cerr := st.Close(); cerr != nil {
			err = errors.CombineErrors(err, cerr)
		}
	}()

	r.supervisor = staging.NewExecutionSupervisor(p.clock, p.interval,
		staging.NewMultiExecutionMonitor(p.monitorChain(r.log)...), r.log)

	// Nodes and dense node calculation
	nodeStage, err := r.nodeStage(in, st)
	if err != nil {
		return err
	}
	denseStage, err := r.calculateDenseNodesStage(in, link)
	if err != nil {
		_ = nodeStage.Close()
		return err
	}
	if in.IdMapper.NeedsPreparation() {
		// lookups are only valid once every node id went through the mapper
		if err := r.executeStages(ctx, nodeStage); err != nil {
			_ = denseStage.Close()
			return err
		}
		if err := in.IdMapper.Prepare(); err != nil {
			_ = denseStage.Close()
			return errors.Wrap(err, "prepare id mapper")
		}
		if err := r.executeStages(ctx, denseStage); err != nil {
			return err
		}
	} else if err := r.executeStages(ctx, nodeStage, denseStage); err != nil {
		return err
	}

	// Relationships
	relationshipStage, err := r.relationshipStage(in, st, link)
	if err != nil {
		return err
	}
	if err := r.executeStages(ctx, relationshipStage); err != nil {
		return err
	}

	if err := st.AwaitEverythingWritten(); err != nil {
		return err
	}
	st.SwitchToUpdateMode()
	mapperClosed = true
	if err := in.IdMapper.Close(); err != nil {
		return errors.Wrap(err, "close id mapper")
	}

	// Linking and counting
	nodeFirstRelationship := NewNodeFirstRelationshipProcessor(link)
	nodeCounts := NewNodeCountsProcessor(labels, st.Counts())
	relationshipLinkback := NewRelationshipLinkbackProcessor(link)
	relationshipCounts := NewRelationshipCountsProcessor(labels, st.Counts())

	estimate := estimateMemory(link, p.memory)
	strategy := chooseStrategy(estimate)
	r.report.Memory, r.report.Strategy = estimate, strategy
	r.log.Infow("Linking strategy chosen",
		logger.FieldStrategy, strategy,
		logger.FieldUsedBytes, estimate.Used,
		logger.FieldAvailableBytes, estimate.Available)

	nodes, rels := st.Nodes(), st.Relationships()
	switch strategy {
	case StrategyCombined:
		if err := r.executeStages(ctx, NewStoreProcessorStage(StageNodeLinksAndCounts, p.cfg, nodes, false,
			MultipleProcessors[store.NodeRecord]{nodeFirstRelationship, nodeCounts})); err != nil {
			return err
		}
		link.ClearRelationships()
		if err := r.executeStages(ctx, NewStoreProcessorStage(StageRelationshipLinksAndCount, p.cfg, rels, true,
			MultipleProcessors[store.RelationshipRecord]{relationshipLinkback, relationshipCounts})); err != nil {
			return err
		}
	default:
		if err := r.executeStages(ctx, NewStoreProcessorStage(StageNodeLinks, p.cfg, nodes, false, nodeFirstRelationship)); err != nil {
			return err
		}
		link.ClearRelationships()
		if err := r.executeStages(ctx, NewStoreProcessorStage(StageRelationshipLinks, p.cfg, rels, true, relationshipLinkback)); err != nil {
			return err
		}
		link.Close()

		if err := r.executeStages(ctx, NewStoreProcessorStage(StageNodeCounts, p.cfg, nodes, false, nodeCounts)); err != nil {
			return err
		}
		if err := r.executeStages(ctx, NewStoreProcessorStage(StageRelationshipCounts, p.cfg, rels, false, relationshipCounts)); err != nil {
			return err
		}
	}
	if err := st.AwaitEverythingWritten(); err != nil {
		return err
	}

	total := p.clock.Now().Sub(started)
	r.report.Duration = total
	r.report.Nodes = nodes.Count()
	r.report.Relationships = rels.Count()
	r.report.Properties = st.Properties().Count()
	r.report.DenseNodes = nodeFirstRelationship.DenseNodes()
	r.report.fillCounts(st)

	if err := st.RecordRun(ctx, store.ImportRun{
		RunID:         r.id,
		StartedAt:     started,
		FinishedAt:    started.Add(total),
		Nodes:         r.report.Nodes,
		Relationships: r.report.Relationships,
		Properties:    r.report.Properties,
		Strategy:      string(strategy),
	}); err != nil {
		return err
	}

	r.supervisor.Done(total)
	r.log.Infow("Import completed, took "+total.Round(time.Millisecond).String(),
		logger.FieldDurationMS, total.Milliseconds(),
		logger.FieldNodes, r.report.Nodes,
		logger.FieldRels, r.report.Relationships)
	p.report = r.report
	return nil
}

// executeStages runs stages together under the supervisor and closes them afterwards
// monitorChain puts the assigner first so renderers see this tick's processor counts
func (p *ParallelBatchImporter) monitorChain(l *zap.SugaredLogger) []staging.ExecutionMonitor {
	monitors := []staging.ExecutionMonitor{
		staging.NewDynamicProcessorAssigner(p.cfg, l),
		p.monitor,
		staging.NewLoggingExecutionMonitor(l),
	}
	if p.metrics != nil {
		monitors = append(monitors, p.metrics)
	}
	return monitors
}

func (r *run) executeStages(ctx context.Context, stages ...*staging.Stage) error {
	executions := make([]*staging.StageExecution, len(stages))
	for i, stage := range stages {
		executions[i] = stage.Execute(ctx)
	}
	err := r.supervisor.Supervise(ctx, executions...)

	for i, stage := range stages {
		if cerr := stage.Close(); cerr != nil {
			err = errors.CombineErrors(err, cerr)
		}
		r.report.Stages = append(r.report.Stages, StageReport{
			Name:    stage.Name(),
			Elapsed: executions[i].Elapsed(),
		})
	}
	return err
}

func (r *run) nodeStage(in input.Input, st *store.BatchingStore) (*staging.Stage, error) {
	nodes, err := in.Nodes.Iterator()
	if err != nil {
		return nil, errors.Wrap(err, "open node input")
	}
	cfg := r.cfg
	stage := staging.NewStage(StageNodes, cfg)
	source := staging.NewIteratorBatcherStep[input.InputNode](StepInput, cfg, nodes)
	stage.Add(source)
	stage.Add(staging.NewProcessorStep(StepNode, cfg, nodeEncoder(in.IdMapper, in.IdGenerator, st.Labels())))
	stage.Add(staging.NewProcessorStep(StepProperties, cfg, nodePropertyEncoder(st.PropertyKeys(), st.Properties())))
	stage.Add(staging.NewProcessorStep(StepWriter, cfg, nodeWriter(st), staging.WithMaxProcessors(1)))
	stage.OnClose(source.Close)
	return stage, nil
}

func (r *run) calculateDenseNodesStage(in input.Input, link *cache.NodeRelationshipLink) (*staging.Stage, error) {
	rels, err := in.Relationships.Iterator()
	if err != nil {
		return nil, errors.Wrap(err, "open relationship input")
	}
	cfg := r.cfg
	stage := staging.NewStage(StageCalculateDenseNodes, cfg)
	source := staging.NewIteratorBatcherStep[input.InputRelationship](StepInput, cfg, rels)
	stage.Add(source)
	stage.Add(staging.NewProcessorStep(StepPrepare, cfg, relationshipPreparer(in.IdMapper)))
	stage.Add(staging.NewProcessorStep(StepCalculate, cfg, denseNodeCalculator(link)))
	stage.OnClose(source.Close)
	return stage, nil
}

func (r *run) relationshipStage(in input.Input, st *store.BatchingStore, link *cache.NodeRelationshipLink) (*staging.Stage, error) {
	rels, err := in.Relationships.Iterator()
	if err != nil {
		return nil, errors.Wrap(err, "open relationship input")
	}
	cfg := r.cfg
	stage := staging.NewStage(StageRelationships, cfg)
	source := staging.NewIteratorBatcherStep[input.InputRelationship](StepInput, cfg, rels)
	stage.Add(source)
	stage.Add(staging.NewProcessorStep(StepPrepare, cfg, relationshipPreparer(in.IdMapper)))
	stage.Add(staging.NewProcessorStep(StepRelationship, cfg,
		relationshipEncoder(st.Relationships(), st.RelationshipTypes(), link), staging.WithMaxProcessors(1)))
	stage.Add(staging.NewProcessorStep(StepProperties, cfg, relationshipPropertyEncoder(st.PropertyKeys(), st.Properties())))
	stage.Add(staging.NewProcessorStep(StepWriter, cfg, relationshipWriter(st), staging.WithMaxProcessors(1)))
	stage.OnClose(source.Close)
	return stage, nil
}
