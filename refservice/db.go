package refservice

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryDatabase is the DBPath value for a database that lives only as long as the service.
const MemoryDatabase = ":memory:"

// openDatabase opens (or creates) a sqlite database at the given path and ensures directories
// exist.
func openDatabase(path string) (*sql.DB, error) {
	if path == "" {
		path = MemoryDatabase
	}
	if path != MemoryDatabase && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single connection, so that an in-memory database is shared by every request
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}
