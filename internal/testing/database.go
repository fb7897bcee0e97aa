package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teranos/bulkgraph/db"
)

// CreateTestDB creates an in-memory SQLite database with the metadata schema applied.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	// a second pooled connection would see a different in-memory database
	conn.SetMaxOpenConns(1)

	if err := db.Migrate(conn, nil); err != nil {
		conn.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

// StoreDir returns a fresh directory for a store under t.TempDir()
func StoreDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "graph.db")
}
