package db

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/bulkgraph/errors"
)

func TestOpenWithMigrations(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "meta.db"), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"schema_migrations", "tokens", "node_counts", "relationship_counts", "import_runs"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}

	var versions int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 4, versions)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "meta.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, nil))
	require.NoError(t, Migrate(db, nil), "running migrations twice is safe")
}

func TestMigrate_ClosedDatabase(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "meta.db"), nil)
	require.NoError(t, err)
	db.Close()

	assert.Error(t, Migrate(db, nil))
}

func TestMigrate_RollsBackFailedMigration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("no such table: schema_migrations"))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = Migrate(db, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute 000_create_schema_migrations.sql")
	assert.Contains(t, fmt.Sprintf("%+v", err), "migrate.go", "error carries a stack trace")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_MissingSchemaTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("no such table: schema_migrations"))

	err = Migrate(db, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration is not 000")
}
