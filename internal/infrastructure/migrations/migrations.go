// Package migrations provides database migration support for stimseq.
//
// It ships a custom SQLite migration driver compatible with
// ncruces/go-sqlite3 (CGO-free). The stock golang-migrate sqlite3 driver
// imports github.com/mattn/go-sqlite3, which collides with the ncruces
// driver registration (both register as "sqlite3"), so a mattn-free
// driver is needed to migrate a sql.DB opened through ncruces.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var embeddedMigrationsFS embed.FS

// MigrationsFS returns the embedded migration SQL files.
func MigrationsFS() fs.FS {
	return embeddedMigrationsFS
}

// RunMigrations applies all pending migrations to db. A database that is
// already current is not an error.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(embeddedMigrationsFS, ".")
	if err != nil {
		return err
	}

	driver, err := WithInstance(db, &Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
