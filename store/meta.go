package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/bulkgraph/errors"
)

// ImportRun summarizes one finished import
type ImportRun struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Nodes         int64
	Relationships int64
	Properties    int64
	Strategy      string
}

// SaveMeta replaces the persisted tokens and counts in one transaction
func SaveMeta(ctx context.Context, db *sql.DB, repos []*TokenRepository, counts *CountsStore) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM tokens`, `DELETE FROM node_counts`, `DELETE FROM relationship_counts`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to clear metadata (%s)", stmt)
		}
	}

	for _, repo := range repos {
		for _, token := range repo.Tokens() {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tokens (kind, id, name) VALUES (?, ?, ?)`,
				repo.Kind(), token.ID, token.Name)
			if err != nil {
				return errors.Wrapf(err, "failed to save %s token %q", repo.Kind(), token.Name)
			}
		}
	}

	for label, count := range counts.NodeCounts() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO node_counts (label_id, count) VALUES (?, ?)`,
			label, count)
		if err != nil {
			return errors.Wrapf(err, "failed to save node count for label %d", label)
		}
	}
	for key, count := range counts.RelationshipCounts() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO relationship_counts (start_label_id, type_id, end_label_id, count)
			VALUES (?, ?, ?, ?)`,
			key.StartLabel, key.Type, key.EndLabel, count)
		if err != nil {
			return errors.Wrapf(err, "failed to save relationship count %v", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// LoadTokens reads the persisted tokens of one kind
func LoadTokens(ctx context.Context, db *sql.DB, kind string) ([]Token, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM tokens WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s tokens", kind)
	}
	defer rows.Close()

	var tokens []Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan token")
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// LoadCounts reads the persisted counts
func LoadCounts(ctx context.Context, db *sql.DB) (*CountsStore, error) {
	counts := NewCountsStore()

	rows, err := db.QueryContext(ctx, `SELECT label_id, count FROM node_counts`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load node counts")
	}
	nodes := map[int32]int64{}
	for rows.Next() {
		var label int32
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan node count")
		}
		nodes[label] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read node counts")
	}
	counts.AddNodeCounts(nodes)

	rows, err = db.QueryContext(ctx, `SELECT start_label_id, type_id, end_label_id, count FROM relationship_counts`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load relationship counts")
	}
	defer rows.Close()
	relationships := map[RelationshipCountKey]int64{}
	for rows.Next() {
		var key RelationshipCountKey
		var count int64
		if err := rows.Scan(&key.StartLabel, &key.Type, &key.EndLabel, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan relationship count")
		}
		relationships[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read relationship counts")
	}
	counts.AddRelationshipCounts(relationships)
	return counts, nil
}

// RecordRun stores an import run summary
func RecordRun(ctx context.Context, db *sql.DB, run ImportRun) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO import_runs (run_id, started_at, finished_at, nodes, relationships, properties, strategy)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StartedAt, run.FinishedAt, run.Nodes, run.Relationships, run.Properties, run.Strategy)
	if err != nil {
		return errors.Wrapf(err, "failed to record import run %s", run.RunID)
	}
	return nil
}
