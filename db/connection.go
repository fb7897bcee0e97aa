// Package db opens the SQLite metadata database of a store and applies its migrations.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/logger"
	"github.com/teranos/bulkgraph/sym"
)

// SQLiteBusyTimeoutMS is how long a connection waits on a locked database
const SQLiteBusyTimeoutMS = 5000

// Open opens a SQLite database at the specified path with optimized settings.
// If log is provided, logs database operations; otherwise operates silently.
func Open(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	if log != nil {
		log.Debugw("Opening database", logger.FieldPath, path, logger.FieldSymbol, sym.DB)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	pragmas := []struct {
		stmt string
		what string
	}{
		// WAL keeps readers off the writer's back while tokens and counts are saved
		{"PRAGMA journal_mode = WAL", "enable WAL mode"},
		{"PRAGMA foreign_keys = ON", "enable foreign keys"},
		{fmt.Sprintf("PRAGMA busy_timeout = %d", SQLiteBusyTimeoutMS), "set busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to %s", p.what)
		}
	}

	if log != nil {
		log.Debugw("Database opened",
			logger.FieldPath, path,
			logger.FieldSymbol, sym.DB,
			"wal_mode", true,
		)
	}
	return db, nil
}

// OpenWithMigrations opens the database at path and brings its schema up to date
func OpenWithMigrations(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to migrate %s", path)
	}
	return db, nil
}
