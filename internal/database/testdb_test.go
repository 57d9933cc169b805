package database

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// setupTestDB points the package-level DB at a fresh sqlite file under the
// test's temp directory and applies the schema, exercising the real sqlite
// path the same way production does (see connection.go), without a mock.
func setupTestDB(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open test sqlite db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	prev := DB
	DB = db
	if err := initializeSchema("sqlite"); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		DB = prev
	})
}
