// Package runs orchestrates sequencing runs: loading the corpus,
// generating a constrained order, persisting it, and recording the run in
// the audit store. All state flows through explicit request and outcome
// values; nothing is accumulated in package-level variables.
package runs

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/zjrosen/stimseq/internal/config"
	"github.com/zjrosen/stimseq/internal/corpus"
	"github.com/zjrosen/stimseq/internal/export"
	"github.com/zjrosen/stimseq/internal/log"
	"github.com/zjrosen/stimseq/internal/runs/domain"
	"github.com/zjrosen/stimseq/internal/sequence"
	"github.com/zjrosen/stimseq/internal/stimulus"
)

// Generator produces and persists stimulus orders for participants.
type Generator struct {
	Config config.Config

	// Repo records runs in the audit store. May be nil, in which case
	// runs are only persisted as files.
	Repo domain.Repository

	// Now is the clock; defaults to time.Now. Overridable for tests.
	Now func() time.Time
}

// GenerateRequest describes one requested sequencing run.
type GenerateRequest struct {
	Participant string
	Phase       domain.Phase

	// Force regenerates even when a persisted order already exists for
	// this participant and phase.
	Force bool

	// SeedOverride, when non-nil, forces fixed-seed mode with this seed
	// regardless of the configured randomness mode.
	SeedOverride *int64
}

// Outcome is the result of a sequencing run.
type Outcome struct {
	Run      *domain.Run
	IDs      []string
	CSVPath  string
	Reused   bool
	Relaxed  bool
	Warnings []string
}

// Generate runs the full pipeline for one participant and phase: validate
// the directory layout, load the stimulus set, reuse an existing persisted
// order when allowed, otherwise generate a fresh constrained order, verify
// it, write the CSV and manifest, and record the run.
func (g *Generator) Generate(req GenerateRequest) (Outcome, error) {
	if req.Participant == "" {
		return Outcome{}, fmt.Errorf("participant id is required")
	}
	if !req.Phase.Valid() {
		return Outcome{}, fmt.Errorf("unknown phase %q (want %q or %q)",
			string(req.Phase), domain.PhasePractice, domain.PhaseTest)
	}

	layout := g.Config.Layout()
	if err := layout.Ensure(); err != nil {
		return Outcome{}, err
	}

	stimDir := layout.StimuliDir
	if req.Phase == domain.PhasePractice {
		stimDir = layout.PracticeStimuliDir
	}
	ids, err := corpus.Load(stimDir)
	if err != nil {
		return Outcome{}, err
	}
	if len(ids) == 0 {
		return Outcome{}, fmt.Errorf("no %s stimuli found in %s", corpus.StimulusExt, stimDir)
	}

	participantDir, err := corpus.ParticipantDir(layout.RandomizationDir, req.Participant)
	if err != nil {
		return Outcome{}, err
	}

	if !req.Force {
		outcome, found, err := g.reuseExisting(participantDir, req, ids)
		if err != nil {
			return Outcome{}, err
		}
		if found {
			return outcome, nil
		}
	}

	extractor, err := g.Config.Extractor()
	if err != nil {
		return Outcome{}, err
	}
	stimuli, err := stimulus.ExtractAll(extractor, ids)
	if err != nil {
		return Outcome{}, err
	}

	plan, err := g.Config.Plan()
	if err != nil {
		return Outcome{}, err
	}
	if req.SeedOverride != nil {
		plan.Randomness = sequence.Randomness{Mode: sequence.SeedFixed, Seed: *req.SeedOverride}
	}

	result, err := sequence.Generate(stimuli, plan)
	if err != nil {
		return Outcome{}, err
	}

	now := g.now()
	csvPath := export.SequencePath(participantDir, req.Participant, string(req.Phase), now)
	if err := export.WriteCSV(csvPath, result.IDs()); err != nil {
		return Outcome{}, err
	}
	manifest := export.Manifest{
		Participant: req.Participant,
		Phase:       string(req.Phase),
		GeneratedAt: now,
		SeedMode:    string(plan.Randomness.Mode),
		Seed:        result.Seed,
		Items:       len(result.Order),
		Constraints: constraintStrings(plan.Constraints),
		Relaxed:     result.Relaxed,
		Warnings:    result.Warnings,
	}
	if err := export.WriteManifest(csvPath, manifest); err != nil {
		return Outcome{}, err
	}

	run := domain.NewRun(req.Participant, req.Phase, string(plan.Randomness.Mode),
		result.Seed, len(result.Order), result.Relaxed, csvPath)
	if g.Repo != nil {
		if err := g.Repo.Save(run); err != nil {
			return Outcome{}, fmt.Errorf("recording run: %w", err)
		}
	}

	log.Info(log.CatSequence, "sequence generated",
		"participant", req.Participant, "phase", string(req.Phase),
		"items", len(result.Order), "relaxed", result.Relaxed, "path", csvPath)

	return Outcome{
		Run:      run,
		IDs:      result.IDs(),
		CSVPath:  csvPath,
		Relaxed:  result.Relaxed,
		Warnings: result.Warnings,
	}, nil
}

// reuseExisting loads the newest persisted order for this participant and
// phase, if any, and verifies it still matches the current corpus. A
// mismatch is fatal: presenting a stale order against a changed corpus
// would corrupt the experiment.
func (g *Generator) reuseExisting(participantDir string, req GenerateRequest, corpusIDs []string) (Outcome, bool, error) {
	path, err := export.FindLatest(participantDir, req.Participant, string(req.Phase))
	if err != nil || path == "" {
		return Outcome{}, false, err
	}

	persisted, err := export.ReadCSV(path)
	if err != nil {
		return Outcome{}, false, err
	}
	if err := sequence.VerifyIDsPreserved(corpusIDs, persisted); err != nil {
		return Outcome{}, false, fmt.Errorf("persisted order %s no longer matches the corpus (use --force to regenerate): %w", path, err)
	}

	log.Info(log.CatSequence, "reusing persisted sequence",
		"participant", req.Participant, "phase", string(req.Phase), "path", path)
	return Outcome{IDs: persisted, CSVPath: path, Reused: true}, true, nil
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func constraintStrings(constraints []sequence.Constraint) []string {
	out := make([]string, len(constraints))
	for i, c := range constraints {
		out[i] = c.String()
	}
	return out
}

// VerifyFile re-checks a persisted sequence file against a stimulus
// directory: set preservation plus a scan for constraint violations under
// the given plan's constraints. Violations are reported, not fatal; a set
// mismatch is an error.
func VerifyFile(csvPath, stimuliDir string, extractor stimulus.Extractor, constraints []sequence.Constraint) ([]sequence.Violation, error) {
	persisted, err := export.ReadCSV(csvPath)
	if err != nil {
		return nil, err
	}
	corpusIDs, err := corpus.Load(stimuliDir)
	if err != nil {
		return nil, err
	}
	if err := sequence.VerifyIDsPreserved(corpusIDs, persisted); err != nil {
		return nil, err
	}

	stimuli, err := stimulus.ExtractAll(extractor, persisted)
	if err != nil {
		return nil, err
	}
	return sequence.ScanViolations(stimuli, constraints), nil
}

// ParticipantDirFor exposes the participant directory convention for
// callers that only need the path.
func ParticipantDirFor(randomizationDir, participant string) string {
	return filepath.Join(randomizationDir, participant)
}
