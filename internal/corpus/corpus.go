// Package corpus loads stimulus sets from the experiment's directory
// layout and validates that layout before any sequencing work begins.
// Filenames are the sole source of stimulus metadata; there is no
// separate manifest.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zjrosen/stimseq/internal/log"
)

// StimulusExt is the file extension that marks a stimulus recording.
const StimulusExt = ".wav"

// MissingDirError indicates a required input directory is absent.
type MissingDirError struct {
	Role string // which configured directory, e.g. "stimuli_dir"
	Path string
}

// Error implements the error interface.
func (e *MissingDirError) Error() string {
	return fmt.Sprintf("no %s directory at %q; check the configuration", e.Role, e.Path)
}

// Load lists stimulus ids in dir, filtered to StimulusExt files. The
// result is sorted so the pre-shuffle set is independent of filesystem
// enumeration order.
func Load(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingDirError{Role: "stimuli", Path: dir}
		}
		return nil, fmt.Errorf("reading stimulus directory %s: %w", dir, err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), StimulusExt) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)

	log.Debug(log.CatCorpus, "loaded stimulus set", "dir", dir, "count", len(ids))
	return ids, nil
}

// Layout is the on-disk directory layout for one experiment installation.
// Input directories must pre-exist; output directories are created on
// demand.
type Layout struct {
	StimuliDir         string
	PracticeStimuliDir string
	PicsDir            string
	OutputDir          string
	RecordingsDir      string
	RandomizationDir   string
}

// Ensure validates the input directories and creates the output
// directories. It fails with MissingDirError before any randomization
// work happens, so a misconfigured install aborts early.
func (l Layout) Ensure() error {
	inputs := []struct {
		role string
		path string
	}{
		{"test stimuli", l.StimuliDir},
		{"practice stimuli", l.PracticeStimuliDir},
		{"pics", l.PicsDir},
	}
	for _, in := range inputs {
		info, err := os.Stat(in.path)
		if err != nil || !info.IsDir() {
			return &MissingDirError{Role: in.role, Path: in.path}
		}
	}

	for _, out := range []string{l.OutputDir, l.RecordingsDir, l.RandomizationDir} {
		if err := os.MkdirAll(out, 0750); err != nil {
			return fmt.Errorf("creating output directory %s: %w", out, err)
		}
	}
	return nil
}

// ParticipantDir returns (and creates) the participant-scoped directory
// under base, e.g. randomization/S01.
func ParticipantDir(base, participant string) (string, error) {
	dir := filepath.Join(base, participant)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating participant directory %s: %w", dir, err)
	}
	return dir, nil
}
