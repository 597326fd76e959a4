package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/zjrosen/stimseq/internal/runs/domain"
)

// runRepository implements domain.Repository using SQLite.
type runRepository struct {
	db *sql.DB
}

// newRunRepository creates a new runRepository instance.
func newRunRepository(db *sql.DB) *runRepository {
	return &runRepository{db: db}
}

// Ensure runRepository implements domain.Repository.
var _ domain.Repository = (*runRepository)(nil)

const runColumns = `id, guid, participant, phase, seed_mode, seed, items, relaxed, output_path, created_at`

// Save persists a run. New runs (ID == 0) are inserted and get their
// database id set; existing runs are updated.
func (r *runRepository) Save(run *domain.Run) error {
	model := toRunModel(run)

	if run.ID == 0 {
		result, err := r.db.Exec(
			`INSERT INTO runs (guid, participant, phase, seed_mode, seed, items, relaxed, output_path, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			model.GUID, model.Participant, model.Phase, model.SeedMode, model.Seed,
			model.Items, model.Relaxed, model.OutputPath, model.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		run.ID = id
		return nil
	}

	_, err := r.db.Exec(
		`UPDATE runs SET participant = ?, phase = ?, seed_mode = ?, seed = ?, items = ?, relaxed = ?, output_path = ? WHERE id = ?`,
		model.Participant, model.Phase, model.SeedMode, model.Seed, model.Items, model.Relaxed, model.OutputPath, model.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// FindByGUID retrieves a run by its GUID.
// Returns RunNotFoundError if no matching run exists.
func (r *runRepository) FindByGUID(guid string) (*domain.Run, error) {
	var model RunModel
	err := r.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE guid = ?`, guid,
	).Scan(&model.ID, &model.GUID, &model.Participant, &model.Phase, &model.SeedMode,
		&model.Seed, &model.Items, &model.Relaxed, &model.OutputPath, &model.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, &domain.RunNotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run by guid: %w", err)
	}
	return model.toDomain(), nil
}

// Latest retrieves the newest run for a participant and phase.
// Returns NoRunError if none is recorded.
func (r *runRepository) Latest(participant string, phase domain.Phase) (*domain.Run, error) {
	var model RunModel
	err := r.db.QueryRow(
		`SELECT `+runColumns+` FROM runs
		 WHERE participant = ? AND phase = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		participant, string(phase),
	).Scan(&model.ID, &model.GUID, &model.Participant, &model.Phase, &model.SeedMode,
		&model.Seed, &model.Items, &model.Relaxed, &model.OutputPath, &model.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, &domain.NoRunError{Participant: participant, Phase: phase}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return model.toDomain(), nil
}

// List retrieves runs matching the filter, newest first.
func (r *runRepository) List(filter domain.ListFilter) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Participant != "" {
		query += ` AND participant = ?`
		args = append(args, filter.Participant)
	}
	if filter.Phase != "" {
		query += ` AND phase = ?`
		args = append(args, string(filter.Phase))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*domain.Run
	for rows.Next() {
		var model RunModel
		err := rows.Scan(&model.ID, &model.GUID, &model.Participant, &model.Phase, &model.SeedMode,
			&model.Seed, &model.Items, &model.Relaxed, &model.OutputPath, &model.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}
