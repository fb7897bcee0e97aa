package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/bulkgraph/errors"
)

func TestOpen(t *testing.T) {
	t.Run("opens database with pragmas applied", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "meta.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		var journalMode string
		require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)

		var foreignKeys int
		require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 1, foreignKeys)

		var busyTimeout int
		require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)
	})

	t.Run("creates the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "new.db")
		_, err := os.Stat(path)
		require.True(t, os.IsNotExist(err))

		db, err := Open(path, zaptest.NewLogger(t).Sugar())
		require.NoError(t, err)
		defer db.Close()

		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("invalid path fails with stack trace", func(t *testing.T) {
		db, err := Open("/invalid/nonexistent/path/meta.db", nil)
		if err == nil && db != nil {
			err = db.Ping()
			db.Close()
		}
		require.Error(t, err)
		assert.NotNil(t, errors.GetStack(err))
	})
}
