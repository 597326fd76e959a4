// Package domain defines the randomization run entity and its repository
// contract. A run is the audit record for one generated order: who it was
// for, how it was seeded, and where the sequence file landed.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Phase labels which experiment phase an order belongs to.
type Phase string

const (
	// PhasePractice is the warm-up phase.
	PhasePractice Phase = "practice"
	// PhaseTest is the scored phase.
	PhaseTest Phase = "test"
)

// Valid reports whether the phase is a known phase label.
func (p Phase) Valid() bool {
	return p == PhasePractice || p == PhaseTest
}

// Run records one sequencing run for a participant and phase.
type Run struct {
	ID          int64 // database id; 0 until saved
	GUID        string
	Participant string
	Phase       Phase
	SeedMode    string
	Seed        int64
	Items       int
	Relaxed     bool
	OutputPath  string
	CreatedAt   time.Time
}

// NewRun constructs an unsaved Run with a fresh GUID.
func NewRun(participant string, phase Phase, seedMode string, seed int64, items int, relaxed bool, outputPath string) *Run {
	return &Run{
		GUID:        uuid.NewString(),
		Participant: participant,
		Phase:       phase,
		SeedMode:    seedMode,
		Seed:        seed,
		Items:       items,
		Relaxed:     relaxed,
		OutputPath:  outputPath,
		CreatedAt:   time.Now(),
	}
}

// ListFilter narrows Repository.List results.
type ListFilter struct {
	Participant string
	Phase       Phase
	Limit       int
}

// Repository persists and retrieves runs.
type Repository interface {
	Save(run *Run) error
	FindByGUID(guid string) (*Run, error)
	Latest(participant string, phase Phase) (*Run, error)
	List(filter ListFilter) ([]*Run, error)
}
