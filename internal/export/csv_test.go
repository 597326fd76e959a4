package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteReadCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.csv")
	ids := []string{"a_x_0_m1.wav", "b_x_0_m2.wav", "c_x_0_m1.wav"}

	require.NoError(t, WriteCSV(path, ids))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, ids, got)
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.csv")
	require.NoError(t, WriteCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "filename\n", string(data))

	ids, err := ReadCSV(path)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestReadCSV_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.csv")
	require.NoError(t, os.WriteFile(path, []byte("stimulus\na.wav\n"), 0600))

	_, err := ReadCSV(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "filename")
}

func TestReadCSV_Missing(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestSequencePath(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	path := SequencePath("/tmp/rand/S01", "S01", "test", at)
	require.Equal(t, filepath.Join("/tmp/rand/S01", "S01_test_20240301_101500_randomized_stimuli.csv"), path)
}

func TestSequencePath_SanitizesParticipant(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	path := SequencePath("/tmp", "S 01:a", "test", at)
	require.NotContains(t, filepath.Base(path), " ")
	require.NotContains(t, filepath.Base(path), ":")
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	older := SequencePath(dir, "S01", "test", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	newer := SequencePath(dir, "S01", "test", time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC))
	otherPhase := SequencePath(dir, "S01", "practice", time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))
	for _, p := range []string{older, newer, otherPhase} {
		require.NoError(t, WriteCSV(p, []string{"a.wav"}))
	}

	found, err := FindLatest(dir, "S01", "test")
	require.NoError(t, err)
	require.Equal(t, newer, found)

	found, err = FindLatest(dir, "S01", "practice")
	require.NoError(t, err)
	require.Equal(t, otherPhase, found)

	found, err = FindLatest(dir, "S02", "test")
	require.NoError(t, err)
	require.Empty(t, found)
}
