package sqlite

import (
	"time"

	"github.com/zjrosen/stimseq/internal/runs/domain"
)

// RunModel represents the database row for the runs table. Fields map
// directly to SQL columns with Unix timestamps for time values.
type RunModel struct {
	ID          int64
	GUID        string
	Participant string
	Phase       string
	SeedMode    string
	Seed        int64
	Items       int64
	Relaxed     int64 // 0/1
	OutputPath  string
	CreatedAt   int64 // Unix timestamp
}

// toRunModel converts a domain Run entity to a database RunModel.
func toRunModel(r *domain.Run) *RunModel {
	relaxed := int64(0)
	if r.Relaxed {
		relaxed = 1
	}
	return &RunModel{
		ID:          r.ID,
		GUID:        r.GUID,
		Participant: r.Participant,
		Phase:       string(r.Phase),
		SeedMode:    r.SeedMode,
		Seed:        r.Seed,
		Items:       int64(r.Items),
		Relaxed:     relaxed,
		OutputPath:  r.OutputPath,
		CreatedAt:   r.CreatedAt.Unix(),
	}
}

// toDomain converts a database RunModel back into a domain Run.
func (m *RunModel) toDomain() *domain.Run {
	return &domain.Run{
		ID:          m.ID,
		GUID:        m.GUID,
		Participant: m.Participant,
		Phase:       domain.Phase(m.Phase),
		SeedMode:    m.SeedMode,
		Seed:        m.Seed,
		Items:       int(m.Items),
		Relaxed:     m.Relaxed != 0,
		OutputPath:  m.OutputPath,
		CreatedAt:   time.Unix(m.CreatedAt, 0),
	}
}
