package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kotosiro/kotosiro/domain"
)

// JobRow is the persisted shape of a job. Args and Envs map to VARCHAR[]
// columns.
type JobRow struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	WorkflowID uuid.UUID      `db:"workflow_id" json:"workflow_id"`
	Threshold  int32          `db:"threshold" json:"threshold"`
	Image      string         `db:"image" json:"image"`
	Args       pq.StringArray `db:"args" json:"args"`
	Envs       pq.StringArray `db:"envs" json:"envs"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

const upsertJobQuery = `INSERT INTO job (
    id,
    name,
    workflow_id,
    threshold,
    image,
    args,
    envs
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT(name, workflow_id)
DO UPDATE
SET threshold = $4,
    image = $5,
    args = $6,
    envs = $7`

const deleteJobQuery = `DELETE FROM job
WHERE id = $1`

const getJobByIDQuery = `SELECT
    id,
    name,
    workflow_id,
    threshold,
    image,
    args,
    envs,
    created_at,
    updated_at
FROM job
WHERE id = $1`

const getJobWorkflowIDQuery = `SELECT workflow_id
FROM job
WHERE id = $1`

// JobRepository persists and queries job aggregates.
type JobRepository interface {
	Create(ctx context.Context, db sqlx.ExtContext, job *domain.Job) error
	Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error)
	GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*JobRow, error)
	GetWorkflowID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*uuid.UUID, error)
}

// PgJobRepository is the PostgreSQL JobRepository.
type PgJobRepository struct{}

// Create upserts the job. The conflict key is (name, workflow_id), so
// re-registering a job under the same workflow updates it in place and keeps
// the original id.
func (PgJobRepository) Create(ctx context.Context, db sqlx.ExtContext, job *domain.Job) error {
	if _, err := db.ExecContext(ctx, upsertJobQuery,
		job.ID(), job.Name(), job.WorkflowID(), job.Threshold(), job.Image(),
		pq.StringArray(job.Args()), pq.StringArray(job.Envs()),
	); err != nil {
		return fmt.Errorf("failed to upsert %q into [job]: %w", job.ID(), err)
	}
	return nil
}

// Delete removes the job and cascades to its token and runs. It returns the
// number of job rows deleted.
func (PgJobRepository) Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx, deleteJobQuery, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %q from [job]: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows of [job]: %w", err)
	}
	return affected, nil
}

func (PgJobRepository) GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*JobRow, error) {
	var row JobRow
	if err := sqlx.GetContext(ctx, db, &row, getJobByIDQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select %q from [job]: %w", id, err)
	}
	return &row, nil
}

// GetWorkflowID resolves the owning workflow of a job, letting the policy
// gate climb from a job reference to its workflow.
func (PgJobRepository) GetWorkflowID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*uuid.UUID, error) {
	var workflowID uuid.UUID
	if err := sqlx.GetContext(ctx, db, &workflowID, getJobWorkflowIDQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select workflow of %q from [job]: %w", id, err)
	}
	return &workflowID, nil
}
