package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/bulkgraph/db"
	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/logger"
	"github.com/teranos/bulkgraph/staging"
)

// Files inside a store directory
const (
	NodesLog         = "nodes.log"
	RelationshipsLog = "relationships.log"
	PropertiesLog    = "properties.log"
	MetaDB           = "meta.db"
)

// BatchingStore is the target of an import: three record stores writing to their logs,
// token repositories, counts and the metadata database.
type BatchingStore struct {
	dir    string
	meta   *sql.DB
	logger *zap.SugaredLogger

	nodes         *RecordStore[NodeRecord]
	relationships *RecordStore[RelationshipRecord]
	properties    *RecordStore[PropertyRecord]
	writers       []*Writer

	labels       *TokenRepository
	relTypes     *TokenRepository
	propertyKeys *TokenRepository
	counts       *CountsStore

	closeOnce sync.Once
	closeErr  error
}

// Open creates a store in dir. The directory may exist but must not hold a store yet.
func Open(dir string, cfg staging.Configuration, l *zap.SugaredLogger) (*BatchingStore, error) {
	log := logger.AddDBSymbol(logger.OrDefault(l, "store"))

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrapf(err, "failed to create store directory %s", dir)
	}
	for _, name := range []string{NodesLog, RelationshipsLog, PropertiesLog, MetaDB} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return nil, errors.WithHintf(
				errors.Newf("store directory %s already contains %s", dir, name),
				"import into an empty directory")
		}
	}

	s := &BatchingStore{
		dir:          dir,
		logger:       log,
		labels:       NewTokenRepository(KindLabel),
		relTypes:     NewTokenRepository(KindRelationshipType),
		propertyKeys: NewTokenRepository(KindPropertyKey),
		counts:       NewCountsStore(),
	}

	openWriter := func(name string) (*Writer, error) {
		w, err := NewWriter(filepath.Join(dir, name), cfg.QueueSize)
		if err != nil {
			return nil, err
		}
		s.writers = append(s.writers, w)
		return w, nil
	}

	nodes, err := openWriter(NodesLog)
	if err != nil {
		return nil, s.abandon(err)
	}
	relationships, err := openWriter(RelationshipsLog)
	if err != nil {
		return nil, s.abandon(err)
	}
	properties, err := openWriter(PropertiesLog)
	if err != nil {
		return nil, s.abandon(err)
	}
	s.nodes = NewRecordStore[NodeRecord]("nodes", nodes)
	s.relationships = NewRecordStore[RelationshipRecord]("relationships", relationships)
	s.properties = NewRecordStore[PropertyRecord]("properties", properties)

	s.meta, err = db.OpenWithMigrations(filepath.Join(dir, MetaDB), log)
	if err != nil {
		return nil, s.abandon(err)
	}

	log.Infow("Store opened", logger.FieldPath, dir)
	return s, nil
}

func (s *BatchingStore) abandon(err error) error {
	for _, w := range s.writers {
		if cerr := w.Close(); cerr != nil {
			err = errors.CombineErrors(err, cerr)
		}
	}
	return err
}

// Dir is the store directory
func (s *BatchingStore) Dir() string { return s.dir }

func (s *BatchingStore) Nodes() *RecordStore[NodeRecord]                 { return s.nodes }
func (s *BatchingStore) Relationships() *RecordStore[RelationshipRecord] { return s.relationships }
func (s *BatchingStore) Properties() *RecordStore[PropertyRecord]        { return s.properties }
func (s *BatchingStore) Labels() *TokenRepository                        { return s.labels }
func (s *BatchingStore) RelationshipTypes() *TokenRepository             { return s.relTypes }
func (s *BatchingStore) PropertyKeys() *TokenRepository                  { return s.propertyKeys }
func (s *BatchingStore) Counts() *CountsStore                            { return s.counts }

// AwaitEverythingWritten blocks until every record handed to the stores is in the logs
func (s *BatchingStore) AwaitEverythingWritten() error {
	var err error
	for _, w := range s.writers {
		if ferr := w.Flush(); ferr != nil {
			err = errors.CombineErrors(err, ferr)
		}
	}
	return err
}

// SwitchToUpdateMode allows records to be patched in place
func (s *BatchingStore) SwitchToUpdateMode() {
	s.nodes.SwitchToUpdateMode()
	s.relationships.SwitchToUpdateMode()
	s.properties.SwitchToUpdateMode()
	s.logger.Debugw("Store switched to update mode",
		logger.FieldNodes, s.nodes.Count(),
		logger.FieldRels, s.relationships.Count(),
		logger.FieldRecords, s.properties.Count(),
		logger.FieldHighID, s.nodes.HighID())
}

// RecordRun stores a run summary in the metadata database
func (s *BatchingStore) RecordRun(ctx context.Context, run ImportRun) error {
	return RecordRun(ctx, s.meta, run)
}

// Close flushes and closes the logs, then saves tokens and counts. Safe to call more
// than once; later calls return the first result.
func (s *BatchingStore) Close() error {
	s.closeOnce.Do(func() {
		var err error
		for _, w := range s.writers {
			if cerr := w.Close(); cerr != nil {
				err = errors.CombineErrors(err, cerr)
			}
		}

		repos := []*TokenRepository{s.labels, s.relTypes, s.propertyKeys}
		if serr := SaveMeta(context.Background(), s.meta, repos, s.counts); serr != nil {
			err = errors.CombineErrors(err, serr)
		}
		if cerr := s.meta.Close(); cerr != nil {
			err = errors.CombineErrors(err, errors.Wrap(cerr, "failed to close metadata database"))
		}

		s.closeErr = err
		s.logger.Infow("Store closed",
			logger.FieldPath, s.dir,
			logger.FieldNodes, s.nodes.Count(),
			logger.FieldRels, s.relationships.Count(),
			logger.FieldTokens, s.labels.HighID()+s.relTypes.HighID()+s.propertyKeys.HighID(),
			logger.FieldCounters, len(s.counts.NodeCounts())+len(s.counts.RelationshipCounts()))
	})
	return s.closeErr
}

// Snapshot is a store read back from its directory
type Snapshot struct {
	Nodes             map[int64]NodeRecord
	Relationships     map[int64]RelationshipRecord
	Properties        map[int64]PropertyRecord
	Labels            []Token
	RelationshipTypes []Token
	PropertyKeys      []Token
	Counts            *CountsStore
}

// Read loads a closed store
func Read(ctx context.Context, dir string, l *zap.SugaredLogger) (*Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Nodes, err = Load[NodeRecord](filepath.Join(dir, NodesLog)); err != nil {
		return nil, err
	}
	if snap.Relationships, err = Load[RelationshipRecord](filepath.Join(dir, RelationshipsLog)); err != nil {
		return nil, err
	}
	if snap.Properties, err = Load[PropertyRecord](filepath.Join(dir, PropertiesLog)); err != nil {
		return nil, err
	}

	meta, err := db.Open(filepath.Join(dir, MetaDB), logger.OrDefault(l, "store"))
	if err != nil {
		return nil, err
	}
	defer meta.Close()

	if snap.Labels, err = LoadTokens(ctx, meta, KindLabel); err != nil {
		return nil, err
	}
	if snap.RelationshipTypes, err = LoadTokens(ctx, meta, KindRelationshipType); err != nil {
		return nil, err
	}
	if snap.PropertyKeys, err = LoadTokens(ctx, meta, KindPropertyKey); err != nil {
		return nil, err
	}
	if snap.Counts, err = LoadCounts(ctx, meta); err != nil {
		return nil, err
	}
	return &snap, nil
}
