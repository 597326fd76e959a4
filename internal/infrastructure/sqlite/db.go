// Package sqlite provides the SQLite audit store for stimseq. It manages
// connection lifecycle, migrations, and the run repository that records
// every randomization run for later audit.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/stimseq/internal/infrastructure/migrations"
	"github.com/zjrosen/stimseq/internal/log"
	"github.com/zjrosen/stimseq/internal/runs/domain"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB manages the SQLite connection for the run audit store.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens a database connection, configures pragmas, and runs
// migrations. The parent directory is created if it doesn't exist.
//
// Example:
//
//	db, err := sqlite.NewDB("~/.stimseq/runs.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func NewDB(path string) (*DB, error) {
	log.Debug(log.CatDB, "opening database", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL for better concurrent reads while the experiment machine's
	// analysis scripts poke at the store.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.RunMigrations(conn); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "failed to run migrations", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info(log.CatDB, "database initialized", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// Close releases database resources.
func (db *DB) Close() error {
	if db.conn != nil {
		log.Debug(log.CatDB, "closing database", "path", db.path)
		return db.conn.Close()
	}
	return nil
}

// RunRepository returns a run repository backed by this connection.
func (db *DB) RunRepository() domain.Repository {
	return newRunRepository(db.conn)
}

// Connection returns the underlying *sql.DB for testing purposes.
func (db *DB) Connection() *sql.DB {
	return db.conn
}
