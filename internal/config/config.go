// Package config provides configuration types and defaults for stimseq.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/stimseq/internal/corpus"
	"github.com/zjrosen/stimseq/internal/sequence"
	"github.com/zjrosen/stimseq/internal/stimulus"
)

// Extraction scheme names. The two conventions are mutually incompatible
// and varied across corpus revisions, so the active one is configured,
// never auto-detected.
const (
	SchemePositional = "positional"
	SchemeMarker     = "marker"
)

// PathsConfig holds the experiment's directory layout.
type PathsConfig struct {
	StimuliDir         string `mapstructure:"stimuli_dir"`
	PracticeStimuliDir string `mapstructure:"practice_stimuli_dir"`
	PicsDir            string `mapstructure:"pics_dir"`
	OutputDir          string `mapstructure:"output_dir"`
	RecordingsDir      string `mapstructure:"recordings_dir"`
	RandomizationDir   string `mapstructure:"randomization_dir"`
	DatabasePath       string `mapstructure:"database_path"`
}

// ExtractionConfig selects and parameterizes the attribute extractor.
type ExtractionConfig struct {
	Scheme         string `mapstructure:"scheme"` // "positional" or "marker"
	NameIndex      int    `mapstructure:"name_index"`
	ConditionIndex int    `mapstructure:"condition_index"`
	ManipIndex     int    `mapstructure:"manip_index"`
	Marker         string `mapstructure:"marker"`
	Suffix         string `mapstructure:"suffix"`
}

// ConstraintsConfig holds per-attribute max consecutive run limits.
// A zero limit disables the constraint for that attribute.
type ConstraintsConfig struct {
	NameMaxRun      int `mapstructure:"name_max_run"`
	ConditionMaxRun int `mapstructure:"condition_max_run"`
	ManipMaxRun     int `mapstructure:"manip_max_run"`
}

// RandomnessConfig selects the randomness mode for sequencing.
type RandomnessConfig struct {
	SeedMode string `mapstructure:"seed_mode"` // "fixed" or "entropy"
	Seed     int64  `mapstructure:"seed"`
}

// GroupingConfig selects the optional blocking stage before sequencing.
type GroupingConfig struct {
	// By is "" (no grouping), an attribute name ("name_stim",
	// "condition", "manip"), or "prefix".
	By string `mapstructure:"by"`
	// PrefixLen is the id prefix width when By is "prefix".
	PrefixLen int `mapstructure:"prefix_len"`
}

// Config holds all configuration options for stimseq.
type Config struct {
	Paths       PathsConfig       `mapstructure:"paths"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	Constraints ConstraintsConfig `mapstructure:"constraints"`
	Randomness  RandomnessConfig  `mapstructure:"randomness"`
	Grouping    GroupingConfig    `mapstructure:"grouping"`
}

// Defaults returns a Config matching the imitation experiment's layout and
// the constraint limits it ran with: runs of the same speaker capped at 3,
// the same manipulation at 2, stimuli blocked by speaker.
func Defaults() Config {
	return Config{
		Paths: PathsConfig{
			StimuliDir:         "test_stimuli",
			PracticeStimuliDir: "practice_stimuli",
			PicsDir:            "pics",
			OutputDir:          "results",
			RecordingsDir:      "recordings",
			RandomizationDir:   "randomization",
			DatabasePath:       filepath.Join("randomization", "runs.db"),
		},
		Extraction: ExtractionConfig{
			Scheme:         SchemePositional,
			NameIndex:      0,
			ConditionIndex: 1,
			ManipIndex:     3,
		},
		Constraints: ConstraintsConfig{
			NameMaxRun:  3,
			ManipMaxRun: 2,
		},
		Randomness: RandomnessConfig{
			SeedMode: string(sequence.SeedEntropy),
		},
		Grouping: GroupingConfig{
			By: string(stimulus.AttrName),
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	switch c.Extraction.Scheme {
	case SchemePositional:
		if c.Extraction.NameIndex < 0 || c.Extraction.ConditionIndex < 0 || c.Extraction.ManipIndex < 0 {
			return fmt.Errorf("extraction: token indices must be non-negative")
		}
	case SchemeMarker:
		if c.Extraction.Marker == "" {
			return fmt.Errorf("extraction: marker scheme requires a marker substring")
		}
	default:
		return fmt.Errorf("extraction: unknown scheme %q (want %q or %q)",
			c.Extraction.Scheme, SchemePositional, SchemeMarker)
	}

	if c.Constraints.NameMaxRun < 0 || c.Constraints.ConditionMaxRun < 0 || c.Constraints.ManipMaxRun < 0 {
		return fmt.Errorf("constraints: max run limits must be non-negative")
	}

	plan, err := c.plan()
	if err != nil {
		return err
	}
	return plan.Validate()
}

// Extractor builds the configured attribute extractor.
func (c Config) Extractor() (stimulus.Extractor, error) {
	switch c.Extraction.Scheme {
	case SchemePositional:
		return stimulus.PositionalExtractor{
			NameIndex:      c.Extraction.NameIndex,
			ConditionIndex: c.Extraction.ConditionIndex,
			ManipIndex:     c.Extraction.ManipIndex,
		}, nil
	case SchemeMarker:
		suffix := c.Extraction.Suffix
		if suffix == "" {
			suffix = corpus.StimulusExt
		}
		return stimulus.MarkerExtractor{Marker: c.Extraction.Marker, Suffix: suffix}, nil
	default:
		return nil, fmt.Errorf("unknown extraction scheme %q", c.Extraction.Scheme)
	}
}

// Plan builds the sequencing plan from the configured constraints,
// grouping, and randomness mode.
func (c Config) Plan() (sequence.Plan, error) {
	plan, err := c.plan()
	if err != nil {
		return sequence.Plan{}, err
	}
	if err := plan.Validate(); err != nil {
		return sequence.Plan{}, err
	}
	return plan, nil
}

func (c Config) plan() (sequence.Plan, error) {
	var constraints []sequence.Constraint
	for _, cc := range []struct {
		attr   stimulus.Attribute
		maxRun int
	}{
		{stimulus.AttrCondition, c.Constraints.ConditionMaxRun},
		{stimulus.AttrName, c.Constraints.NameMaxRun},
		{stimulus.AttrManip, c.Constraints.ManipMaxRun},
	} {
		if cc.maxRun > 0 {
			constraints = append(constraints, sequence.Constraint{Attr: cc.attr, MaxRun: cc.maxRun})
		}
	}

	plan := sequence.Plan{
		Constraints: constraints,
		Randomness: sequence.Randomness{
			Mode: sequence.SeedMode(c.Randomness.SeedMode),
			Seed: c.Randomness.Seed,
		},
	}

	switch c.Grouping.By {
	case "":
	case "prefix":
		if c.Grouping.PrefixLen < 1 {
			return sequence.Plan{}, fmt.Errorf("grouping: prefix grouping requires prefix_len >= 1")
		}
		plan.GroupPrefixLen = c.Grouping.PrefixLen
	default:
		attr := stimulus.Attribute(c.Grouping.By)
		if !attr.Valid() {
			return sequence.Plan{}, fmt.Errorf("grouping: unknown attribute %q", c.Grouping.By)
		}
		plan.GroupBy = attr
	}
	return plan, nil
}

// Layout returns the corpus directory layout.
func (c Config) Layout() corpus.Layout {
	return corpus.Layout{
		StimuliDir:         c.Paths.StimuliDir,
		PracticeStimuliDir: c.Paths.PracticeStimuliDir,
		PicsDir:            c.Paths.PicsDir,
		OutputDir:          c.Paths.OutputDir,
		RecordingsDir:      c.Paths.RecordingsDir,
		RandomizationDir:   c.Paths.RandomizationDir,
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# stimseq configuration

# Experiment directory layout. Input directories must exist before a
# sequence can be generated; output directories are created on demand.
paths:
  stimuli_dir: test_stimuli
  practice_stimuli_dir: practice_stimuli
  pics_dir: pics
  output_dir: results
  recordings_dir: recordings
  randomization_dir: randomization
  database_path: randomization/runs.db

# How attributes are extracted from stimulus filenames.
# Two schemes exist because the corpus naming convention changed between
# experiment revisions. Pick the one matching your corpus; there is no
# auto-detection.
extraction:
  scheme: positional   # or: marker
  # positional scheme: underscore-delimited token indices
  name_index: 0
  condition_index: 1
  manip_index: 3
  # marker scheme: name is everything before the marker, manip is the
  # last token once the suffix is trimmed
  # marker: _seq
  # suffix: .wav

# Maximum consecutive run per attribute. 0 disables a constraint.
# Constraints are best-effort: when a remainder cannot be placed without
# a violation it is appended as-is and the run is flagged as relaxed.
constraints:
  name_max_run: 3
  condition_max_run: 0
  manip_max_run: 2

# Randomness mode. "entropy" varies per participant; "fixed" reproduces
# the same order for the same corpus and seed.
randomness:
  seed_mode: entropy
  # seed: 666

# Blocking stage: stimuli are grouped, group order is shuffled, and each
# group is sequenced independently. "by" is an attribute name, "prefix"
# (with prefix_len), or empty for single-stage sequencing.
grouping:
  by: name_stim
  # prefix_len: 5
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
