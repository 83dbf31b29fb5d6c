// Package db opens the SQLite database that holds saved proposal drafts.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates a SQLite database at the given path and migrates it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute pragma %q: %w", pragma, err)
		}
	}

	d := &DB{DB: db, path: path}
	if err := d.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Migrate creates the drafts table when it does not exist.
func (d *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS drafts (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_drafts_updated ON drafts(updated_at);
	`

	_, err := d.Exec(schema)
	return err
}

// SqlConn returns a go-zero sqlx.SqlConn wrapping the underlying database.
// Every query goes through its circuit breaker.
func (d *DB) SqlConn() sqlx.SqlConn {
	return sqlx.NewSqlConnFromDB(d.DB, sqlx.WithAcceptable(sqliteAcceptable))
}

// sqliteAcceptable keeps "database is locked" errors from tripping the breaker.
func sqliteAcceptable(err error) bool {
	return err == nil || strings.Contains(err.Error(), "database is locked")
}
