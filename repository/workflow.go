package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/domain"
)

// WorkflowRow is the persisted shape of a workflow.
type WorkflowRow struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ProjectID   uuid.UUID `db:"project_id" json:"project_id"`
	Description string    `db:"description" json:"description"`
	Paused      bool      `db:"paused" json:"paused"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const upsertWorkflowQuery = `INSERT INTO workflow (
    id,
    name,
    project_id,
    description,
    paused
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT(id)
DO UPDATE
SET name = $2,
    project_id = $3,
    description = $4,
    paused = $5`

const deleteWorkflowQuery = `DELETE FROM workflow
WHERE id = $1`

const getWorkflowByIDQuery = `SELECT
    id,
    name,
    project_id,
    description,
    paused,
    created_at,
    updated_at
FROM workflow
WHERE id = $1`

const getWorkflowProjectIDQuery = `SELECT project_id
FROM workflow
WHERE id = $1`

// WorkflowRepository persists and queries workflow aggregates.
type WorkflowRepository interface {
	Create(ctx context.Context, db sqlx.ExtContext, workflow *domain.Workflow) error
	Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error)
	GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*WorkflowRow, error)
	GetProjectID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*uuid.UUID, error)
}

// PgWorkflowRepository is the PostgreSQL WorkflowRepository.
type PgWorkflowRepository struct{}

// Create upserts the workflow keyed by id.
func (PgWorkflowRepository) Create(ctx context.Context, db sqlx.ExtContext, workflow *domain.Workflow) error {
	if _, err := db.ExecContext(ctx, upsertWorkflowQuery,
		workflow.ID(), workflow.Name(), workflow.ProjectID(), workflow.Description(), workflow.Paused(),
	); err != nil {
		return fmt.Errorf("failed to upsert %q into [workflow]: %w", workflow.ID(), err)
	}
	return nil
}

// Delete removes the workflow and cascades to its jobs, tokens and runs. It
// returns the number of workflow rows deleted.
func (PgWorkflowRepository) Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx, deleteWorkflowQuery, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %q from [workflow]: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows of [workflow]: %w", err)
	}
	return affected, nil
}

func (PgWorkflowRepository) GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*WorkflowRow, error) {
	var row WorkflowRow
	if err := sqlx.GetContext(ctx, db, &row, getWorkflowByIDQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select %q from [workflow]: %w", id, err)
	}
	return &row, nil
}

// GetProjectID resolves the owning project of a workflow. The policy gate
// uses it to enrich resource references before evaluation.
func (PgWorkflowRepository) GetProjectID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*uuid.UUID, error) {
	var projectID uuid.UUID
	if err := sqlx.GetContext(ctx, db, &projectID, getWorkflowProjectIDQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select project of %q from [workflow]: %w", id, err)
	}
	return &projectID, nil
}
