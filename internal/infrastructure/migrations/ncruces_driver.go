package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// DefaultMigrationsTable is the table used to track applied migrations.
const DefaultMigrationsTable = "schema_migrations"

// ErrNilConfig indicates no driver config was provided.
var ErrNilConfig = errors.New("no config")

// Config holds configuration for the SQLite migration driver.
type Config struct {
	MigrationsTable string
	NoTxWrap        bool
}

// NCrucesSqlite is a golang-migrate database.Driver for connections opened
// with ncruces/go-sqlite3. It is intentionally minimal: migrations run in
// a single process at startup, so locking is a process-local flag.
type NCrucesSqlite struct {
	db       *sql.DB
	isLocked atomic.Bool
	config   *Config
}

// WithInstance wraps an existing ncruces-backed sql.DB in a migration
// driver and ensures the version tracking table exists.
func WithInstance(instance *sql.DB, config *Config) (database.Driver, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if err := instance.Ping(); err != nil {
		return nil, err
	}
	if config.MigrationsTable == "" {
		config.MigrationsTable = DefaultMigrationsTable
	}

	d := &NCrucesSqlite{db: instance, config: config}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *NCrucesSqlite) ensureVersionTable() (err error) {
	if err = d.Lock(); err != nil {
		return err
	}
	defer func() {
		if e := d.Unlock(); e != nil {
			err = errors.Join(err, e)
		}
	}()

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool);
	CREATE UNIQUE INDEX IF NOT EXISTS version_unique ON %s (version);
	`, d.config.MigrationsTable, d.config.MigrationsTable)
	_, err = d.db.Exec(query)
	return err
}

// Open is unsupported; construct the driver with WithInstance.
func (d *NCrucesSqlite) Open(_ string) (database.Driver, error) {
	return nil, errors.New("Open not implemented; use WithInstance with an ncruces connection")
}

// Close closes the underlying database connection.
func (d *NCrucesSqlite) Close() error {
	return d.db.Close()
}

// Lock acquires the in-process migration lock.
func (d *NCrucesSqlite) Lock() error {
	if !d.isLocked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

// Unlock releases the in-process migration lock.
func (d *NCrucesSqlite) Unlock() error {
	if !d.isLocked.CompareAndSwap(true, false) {
		return database.ErrNotLocked
	}
	return nil
}

// Run executes one migration's SQL.
func (d *NCrucesSqlite) Run(migration io.Reader) error {
	raw, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	query := string(raw)

	if d.config.NoTxWrap {
		if _, err := d.db.Exec(query); err != nil {
			return &database.Error{OrigErr: err, Query: []byte(query)}
		}
		return nil
	}
	return d.inTx(query)
}

func (d *NCrucesSqlite) inTx(query string, args ...any) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}
	if _, err := tx.Exec(query, args...); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}
	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}

// SetVersion records the current migration version.
func (d *NCrucesSqlite) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}

	del := "DELETE FROM " + d.config.MigrationsTable //nolint:gosec // table name comes from trusted config
	if _, err := tx.Exec(del); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return &database.Error{OrigErr: err, Query: []byte(del)}
	}

	// Re-write the version even for dirty nil versions so a failed down
	// migration on the first migration does not leave the table empty.
	// See: https://github.com/golang-migrate/migrate/issues/330
	if version >= 0 || (version == database.NilVersion && dirty) {
		ins := fmt.Sprintf(`INSERT INTO %s (version, dirty) VALUES (?, ?)`, d.config.MigrationsTable) //nolint:gosec // table name comes from trusted config
		if _, err := tx.Exec(ins, version, dirty); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			return &database.Error{OrigErr: err, Query: []byte(ins)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}

// Version returns the current migration version.
func (d *NCrucesSqlite) Version() (version int, dirty bool, err error) {
	query := "SELECT version, dirty FROM " + d.config.MigrationsTable + " LIMIT 1"
	if err := d.db.QueryRow(query).Scan(&version, &dirty); err != nil {
		return database.NilVersion, false, nil
	}
	return version, dirty, nil
}

// Drop removes every table in the database.
func (d *NCrucesSqlite) Drop() (err error) {
	const listQuery = `SELECT name FROM sqlite_master WHERE type = 'table';`
	rows, err := d.db.Query(listQuery)
	if err != nil {
		return &database.Error{OrigErr: err, Query: []byte(listQuery)}
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name != "" {
			tables = append(tables, name)
		}
	}
	if err := rows.Err(); err != nil {
		return &database.Error{OrigErr: err, Query: []byte(listQuery)}
	}

	for _, table := range tables {
		if err := d.inTx("DROP TABLE " + table); err != nil {
			return err
		}
	}
	if len(tables) > 0 {
		if _, err := d.db.Exec("VACUUM"); err != nil {
			return &database.Error{OrigErr: err, Query: []byte("VACUUM")}
		}
	}
	return nil
}
