package migrations

import (
	"database/sql"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// TestRunMigrations_FreshDB verifies all migrations apply to an empty :memory: database.
func TestRunMigrations_FreshDB(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err, "ncruces driver should open :memory: database")
	defer db.Close()

	err = RunMigrations(db)
	require.NoError(t, err, "RunMigrations should succeed on fresh database")

	var tableName string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='runs'`).Scan(&tableName)
	require.NoError(t, err, "runs table should exist")
	require.Equal(t, "runs", tableName)
}

// TestRunMigrations_Idempotent verifies calling RunMigrations twice doesn't error.
func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	err = RunMigrations(db)
	require.NoError(t, err, "first migration run should succeed")

	// Second run should not error (ErrNoChange handled internally)
	err = RunMigrations(db)
	require.NoError(t, err, "second migration run should not error")
}

// TestMigrations_Schema verifies the runs table exists with expected columns and index.
func TestMigrations_Schema(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	err = RunMigrations(db)
	require.NoError(t, err)

	rows, err := db.Query(`PRAGMA table_info(runs)`)
	require.NoError(t, err)
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull, pk int
		var dflt interface{}
		err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk)
		require.NoError(t, err)
		columns[name] = true
	}
	require.NoError(t, rows.Err())

	expectedColumns := []string{"id", "guid", "participant", "phase", "seed_mode", "seed", "items", "relaxed", "output_path", "created_at"}
	for _, col := range expectedColumns {
		require.True(t, columns[col], "column %s should exist", col)
	}

	indexRows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='index' AND tbl_name='runs'`)
	require.NoError(t, err)
	defer indexRows.Close()

	indexes := make(map[string]bool)
	for indexRows.Next() {
		var name string
		require.NoError(t, indexRows.Scan(&name))
		indexes[name] = true
	}
	require.NoError(t, indexRows.Err())
	require.True(t, indexes["idx_runs_participant_phase"], "participant/phase index should exist")
}

// TestMigrations_Down verifies down migration rolls back schema correctly.
func TestMigrations_Down(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	// Use the lower-level API so Down can be driven directly
	driver, err := WithInstance(db, &Config{})
	require.NoError(t, err)

	source, err := iofs.New(MigrationsFS(), ".")
	require.NoError(t, err)

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	require.NoError(t, err)

	err = m.Up()
	require.NoError(t, err, "migrations should apply")

	var tableExists bool
	err = db.QueryRow(`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='runs'`).Scan(&tableExists)
	require.NoError(t, err)
	require.True(t, tableExists, "runs table should exist before down migration")

	err = m.Down()
	require.NoError(t, err, "down migrations should succeed")

	err = db.QueryRow(`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='runs'`).Scan(&tableExists)
	require.NoError(t, err)
	require.False(t, tableExists, "runs table should be dropped after down migration")
}
