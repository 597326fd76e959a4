// Package export persists generated stimulus orders: a CSV file the
// trial-presentation driver iterates, plus a YAML manifest that records
// how the order was produced.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zjrosen/stimseq/internal/log"
)

// csvHeader is the single column header the presentation driver expects.
const csvHeader = "filename"

// TimestampFormat scopes output filenames to a run.
const TimestampFormat = "20060102_150405"

// SequencePath returns the CSV path for a participant, phase, and
// timestamp under dir, e.g. S01_test_20240301_101500_randomized_stimuli.csv.
func SequencePath(dir, participant, phase string, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%s_randomized_stimuli.csv", sanitize(participant), sanitize(phase), at.Format(TimestampFormat))
	return filepath.Join(dir, name)
}

// WriteCSV writes the ordered ids to path, one per row under a "filename"
// header.
func WriteCSV(path string, ids []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sequence file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{csvHeader}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, id := range ids {
		if err := w.Write([]string{id}); err != nil {
			return fmt.Errorf("writing row %q: %w", id, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing sequence file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing sequence file: %w", err)
	}

	log.Info(log.CatExport, "sequence written", "path", path, "items", len(ids))
	return nil
}

// ReadCSV loads a previously written sequence file, validating the header.
func ReadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sequence file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sequence file %s: %w", path, err)
	}
	if len(records) == 0 || len(records[0]) != 1 || records[0][0] != csvHeader {
		return nil, fmt.Errorf("sequence file %s: expected single %q header column", path, csvHeader)
	}

	ids := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		ids = append(ids, rec[0])
	}
	return ids, nil
}

// FindLatest returns the newest persisted sequence file for a participant
// and phase under dir, or "" when none exists. Filenames embed the run
// timestamp, so lexicographic order is chronological.
func FindLatest(dir, participant, phase string) (string, error) {
	pattern := filepath.Join(dir, fmt.Sprintf("%s_%s_*_randomized_stimuli.csv", participant, phase))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("globbing %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// sanitize keeps participant ids safe to embed in filenames.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, s)
}
