package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stimseq/internal/runs/domain"
)

// testDB opens a migrated database under a temp dir.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunRepository_SaveAndFindByGUID(t *testing.T) {
	repo := testDB(t).RunRepository()

	run := domain.NewRun("S01", domain.PhaseTest, "fixed", 666, 24, false, "randomization/S01/seq.csv")
	require.NoError(t, repo.Save(run))
	require.NotZero(t, run.ID, "insert should populate the database id")

	found, err := repo.FindByGUID(run.GUID)
	require.NoError(t, err)
	require.Equal(t, run.ID, found.ID)
	require.Equal(t, "S01", found.Participant)
	require.Equal(t, domain.PhaseTest, found.Phase)
	require.Equal(t, "fixed", found.SeedMode)
	require.Equal(t, int64(666), found.Seed)
	require.Equal(t, 24, found.Items)
	require.False(t, found.Relaxed)
	require.Equal(t, "randomization/S01/seq.csv", found.OutputPath)
	// Timestamps are stored at second precision.
	require.WithinDuration(t, run.CreatedAt, found.CreatedAt, time.Second)
}

func TestRunRepository_FindByGUID_NotFound(t *testing.T) {
	repo := testDB(t).RunRepository()

	_, err := repo.FindByGUID("no-such-guid")
	var notFound *domain.RunNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "no-such-guid", notFound.GUID)
}

func TestRunRepository_Save_Update(t *testing.T) {
	repo := testDB(t).RunRepository()

	run := domain.NewRun("S01", domain.PhaseTest, "entropy", 1234, 10, true, "old.csv")
	require.NoError(t, repo.Save(run))

	run.OutputPath = "new.csv"
	run.Relaxed = false
	require.NoError(t, repo.Save(run))

	found, err := repo.FindByGUID(run.GUID)
	require.NoError(t, err)
	require.Equal(t, "new.csv", found.OutputPath)
	require.False(t, found.Relaxed)
}

func TestRunRepository_Latest(t *testing.T) {
	repo := testDB(t).RunRepository()

	first := domain.NewRun("S01", domain.PhaseTest, "fixed", 1, 5, false, "a.csv")
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(first))

	second := domain.NewRun("S01", domain.PhaseTest, "fixed", 2, 5, false, "b.csv")
	require.NoError(t, repo.Save(second))

	other := domain.NewRun("S01", domain.PhasePractice, "fixed", 3, 5, false, "c.csv")
	require.NoError(t, repo.Save(other))

	latest, err := repo.Latest("S01", domain.PhaseTest)
	require.NoError(t, err)
	require.Equal(t, second.GUID, latest.GUID)
}

func TestRunRepository_Latest_NoRun(t *testing.T) {
	repo := testDB(t).RunRepository()

	_, err := repo.Latest("S99", domain.PhaseTest)
	var noRun *domain.NoRunError
	require.ErrorAs(t, err, &noRun)
	require.Equal(t, "S99", noRun.Participant)
	require.Equal(t, domain.PhaseTest, noRun.Phase)
}

func TestRunRepository_List(t *testing.T) {
	repo := testDB(t).RunRepository()

	for i, p := range []string{"S01", "S01", "S02"} {
		run := domain.NewRun(p, domain.PhaseTest, "fixed", int64(i), 5, false, "x.csv")
		run.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(run))
	}

	all, err := repo.List(domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "S02", all[0].Participant)

	s01, err := repo.List(domain.ListFilter{Participant: "S01"})
	require.NoError(t, err)
	require.Len(t, s01, 2)

	limited, err := repo.List(domain.ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	practice, err := repo.List(domain.ListFilter{Phase: domain.PhasePractice})
	require.NoError(t, err)
	require.Empty(t, practice)
}
