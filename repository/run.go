package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/domain"
)

// RunRow is the persisted shape of a run. StartedAt and FinishedAt stay nil
// until a runner reports progress.
type RunRow struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	State       string     `db:"state" json:"state"`
	Priority    string     `db:"priority" json:"priority"`
	JobID       uuid.UUID  `db:"job_id" json:"job_id"`
	TriggeredAt time.Time  `db:"triggered_at" json:"triggered_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at"`
	FinishedAt  *time.Time `db:"finished_at" json:"finished_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

const insertRunQuery = `INSERT INTO run (
    id,
    state,
    priority,
    job_id,
    triggered_at,
    started_at,
    finished_at
) VALUES ($1, $2, $3, $4, $5, NULL, NULL)`

const deleteRunQuery = `DELETE FROM run
WHERE id = $1`

const getRunByIDQuery = `SELECT
    id,
    state,
    priority,
    job_id,
    triggered_at,
    started_at,
    finished_at,
    created_at,
    updated_at
FROM run
WHERE id = $1`

// RunRepository persists and queries run records.
type RunRepository interface {
	Create(ctx context.Context, db sqlx.ExtContext, run *domain.Run) error
	Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error)
	GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*RunRow, error)
}

// PgRunRepository is the PostgreSQL RunRepository.
type PgRunRepository struct{}

// Create inserts the run. Runs are never upserted; a duplicate id is an
// integrity error.
func (PgRunRepository) Create(ctx context.Context, db sqlx.ExtContext, run *domain.Run) error {
	if _, err := db.ExecContext(ctx, insertRunQuery,
		run.ID(), run.State().String(), run.Priority().String(), run.JobID(), run.TriggeredAt(),
	); err != nil {
		return fmt.Errorf("failed to insert %q into [run]: %w", run.ID(), err)
	}
	return nil
}

// Delete removes the run. It returns the number of run rows deleted.
func (PgRunRepository) Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx, deleteRunQuery, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %q from [run]: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows of [run]: %w", err)
	}
	return affected, nil
}

func (PgRunRepository) GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*RunRow, error) {
	var row RunRow
	if err := sqlx.GetContext(ctx, db, &row, getRunByIDQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select %q from [run]: %w", id, err)
	}
	return &row, nil
}
