package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/kotosiro/kotosiro/domain"
)

// ProjectRow is the persisted shape of a project. Config is normalized to an
// empty JSON object when the column is NULL.
type ProjectRow struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Config      types.JSONText `db:"config" json:"config"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ProjectSummaryRow aggregates a project with run counts over the trailing
// hour. Unfinished runs always count.
type ProjectSummaryRow struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Description       string    `db:"description" json:"description"`
	Workflows         int64     `db:"workflows" json:"workflows"`
	RunningJobs       int64     `db:"running_jobs" json:"running_jobs"`
	WaitingJobs       int64     `db:"waiting_jobs" json:"waiting_jobs"`
	FailsLastHour     int64     `db:"fails_last_hour" json:"fails_last_hour"`
	SuccessesLastHour int64     `db:"successes_last_hour" json:"successes_last_hour"`
	ErrorsLastHour    int64     `db:"errors_last_hour" json:"errors_last_hour"`
}

// WorkflowSummaryRow pairs a workflow with its recent run counts.
type WorkflowSummaryRow struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Paused      bool      `db:"paused" json:"paused"`
	Success     int64     `db:"success" json:"success"`
	Running     int64     `db:"running" json:"running"`
	Failure     int64     `db:"failure" json:"failure"`
	Waiting     int64     `db:"waiting" json:"waiting"`
	Error       int64     `db:"error" json:"error"`
}

const upsertProjectQuery = `INSERT INTO project (
    id,
    name,
    description,
    config
) VALUES ($1, $2, $3, $4)
ON CONFLICT(id)
DO UPDATE
SET name = $2,
    description = $3,
    config = COALESCE($4, project.config)`

const deleteProjectQuery = `DELETE FROM project
WHERE id = $1`

const listProjectsQuery = `SELECT
    id,
    name,
    description,
    COALESCE(config, '{}'::jsonb) AS config,
    created_at,
    updated_at
FROM project
ORDER BY name
LIMIT $1`

const getProjectByIDQuery = `SELECT
    id,
    name,
    description,
    COALESCE(config, '{}'::jsonb) AS config,
    created_at,
    updated_at
FROM project
WHERE id = $1`

const getProjectByNameQuery = `SELECT
    id,
    name,
    description,
    COALESCE(config, '{}'::jsonb) AS config,
    created_at,
    updated_at
FROM project
WHERE name = $1`

const getProjectSummaryQuery = `WITH these_jobs AS (
    SELECT
        job.id AS id,
        run.state AS state
    FROM workflow
    JOIN job ON job.workflow_id = workflow.id
    JOIN run ON run.job_id = job.id
    WHERE workflow.project_id = $1
    AND (finished_at IS NULL OR CURRENT_TIMESTAMP - finished_at < INTERVAL '1 hour')
)
SELECT
    id,
    name,
    description,
    (
        SELECT COUNT(1)
        FROM workflow
        WHERE workflow.project_id = $1
    ) AS workflows,
    (
        SELECT COUNT(1)
        FROM these_jobs
        WHERE these_jobs.state = 'running'
    ) AS running_jobs,
    (
        SELECT COUNT(1)
        FROM these_jobs
        WHERE these_jobs.state = 'waiting' OR these_jobs.state = 'active'
    ) AS waiting_jobs,
    (
        SELECT COUNT(1)
        FROM these_jobs
        WHERE these_jobs.state = 'failure'
    ) AS fails_last_hour,
    (
        SELECT COUNT(1)
        FROM these_jobs
        WHERE these_jobs.state = 'success'
    ) AS successes_last_hour,
    (
        SELECT COUNT(1)
        FROM these_jobs
        WHERE these_jobs.state = 'error'
    ) AS errors_last_hour
FROM project
WHERE id = $1`

const getProjectConfigQuery = `SELECT COALESCE(config, '{}'::jsonb) AS config
FROM project
WHERE id = $1`

const listProjectWorkflowsQuery = `WITH these_runs AS (
    SELECT
        job.workflow_id AS workflow_id,
        run.state AS state
    FROM workflow
    JOIN job ON workflow.id = job.workflow_id
    LEFT OUTER JOIN run ON run.job_id = job.id
    WHERE workflow.project_id = $1 AND (
        run.finished_at IS NULL
        OR CURRENT_TIMESTAMP - run.finished_at < INTERVAL '1 hour'
    )
),
summaries AS (
    SELECT
        workflow_id,
        SUM(CASE WHEN state = 'success' THEN 1 ELSE 0 END) AS success,
        SUM(CASE WHEN state = 'running' THEN 1 ELSE 0 END) AS running,
        SUM(CASE WHEN state = 'failure' THEN 1 ELSE 0 END) AS failure,
        SUM(CASE
                WHEN state = 'active' OR state = 'waiting' THEN 1
                ELSE 0
            END) AS waiting,
        SUM(CASE WHEN state = 'error' THEN 1 ELSE 0 END) AS error
    FROM these_runs
    GROUP BY workflow_id
)
SELECT
    id,
    name,
    description,
    paused,
    COALESCE(success, 0) AS success,
    COALESCE(running, 0) AS running,
    COALESCE(failure, 0) AS failure,
    COALESCE(waiting, 0) AS waiting,
    COALESCE(error,   0) AS error
FROM workflow
LEFT OUTER JOIN summaries ON workflow.id = summaries.workflow_id
WHERE
    project_id = $1
    AND ($2::VARCHAR IS NULL OR name = $2)
    AND ($3::VARCHAR IS NULL OR name > $3)
ORDER BY name
LIMIT $4`

// ProjectRepository persists and queries project aggregates.
type ProjectRepository interface {
	Create(ctx context.Context, db sqlx.ExtContext, project *domain.Project) error
	Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error)
	List(ctx context.Context, db sqlx.ExtContext, limit *int64) ([]ProjectRow, error)
	GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*ProjectRow, error)
	GetByName(ctx context.Context, db sqlx.ExtContext, name string) (*ProjectRow, error)
	GetSummaryByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*ProjectSummaryRow, error)
	GetConfigByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (types.JSONText, error)
	ListWorkflowsByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID, name, after *string, limit *int64) ([]WorkflowSummaryRow, error)
}

// PgProjectRepository is the PostgreSQL ProjectRepository.
type PgProjectRepository struct{}

// Create upserts the project keyed by id. A NULL config bind keeps the stored
// config; updates cannot blank it out.
func (PgProjectRepository) Create(ctx context.Context, db sqlx.ExtContext, project *domain.Project) error {
	var config *types.JSONText
	if raw := project.Config(); raw != nil {
		jt := types.JSONText(raw)
		config = &jt
	}
	if _, err := db.ExecContext(ctx, upsertProjectQuery,
		project.ID(), project.Name(), project.Description(), config,
	); err != nil {
		return fmt.Errorf("failed to upsert %q into [project]: %w", project.ID(), err)
	}
	return nil
}

// Delete removes the project and, via cascading foreign keys, everything
// under it. It returns the number of project rows deleted.
func (PgProjectRepository) Delete(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx, deleteProjectQuery, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %q from [project]: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows of [project]: %w", err)
	}
	return affected, nil
}

// List returns projects ordered by name. A nil limit means 100.
func (PgProjectRepository) List(ctx context.Context, db sqlx.ExtContext, limit *int64) ([]ProjectRow, error) {
	rows := []ProjectRow{}
	if err := sqlx.SelectContext(ctx, db, &rows, listProjectsQuery, orDefaultLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list %d project(s) from [project]: %w", orDefaultLimit(limit), err)
	}
	return rows, nil
}

func (PgProjectRepository) GetByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*ProjectRow, error) {
	var row ProjectRow
	if err := sqlx.GetContext(ctx, db, &row, getProjectByIDQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select %q from [project]: %w", id, err)
	}
	return &row, nil
}

func (PgProjectRepository) GetByName(ctx context.Context, db sqlx.ExtContext, name string) (*ProjectRow, error) {
	var row ProjectRow
	if err := sqlx.GetContext(ctx, db, &row, getProjectByNameQuery, name); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select %q from [project]: %w", name, err)
	}
	return &row, nil
}

// GetSummaryByID returns the project with run counts over the trailing hour.
func (PgProjectRepository) GetSummaryByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (*ProjectSummaryRow, error) {
	var row ProjectSummaryRow
	if err := sqlx.GetContext(ctx, db, &row, getProjectSummaryQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to summarize %q from [project]: %w", id, err)
	}
	return &row, nil
}

// GetConfigByID returns the stored config, normalized to {} when NULL, or nil
// when the project does not exist.
func (PgProjectRepository) GetConfigByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID) (types.JSONText, error) {
	var config types.JSONText
	if err := sqlx.GetContext(ctx, db, &config, getProjectConfigQuery, id); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select config of %q from [project]: %w", id, err)
	}
	return config, nil
}

// ListWorkflowsByID pages workflow summaries by name. name filters to an
// exact match, after resumes a keyset page strictly past the given name, and
// a nil limit means 100.
func (PgProjectRepository) ListWorkflowsByID(ctx context.Context, db sqlx.ExtContext, id uuid.UUID, name, after *string, limit *int64) ([]WorkflowSummaryRow, error) {
	rows := []WorkflowSummaryRow{}
	if err := sqlx.SelectContext(ctx, db, &rows, listProjectWorkflowsQuery,
		id, name, after, orDefaultLimit(limit),
	); err != nil {
		return nil, fmt.Errorf("failed to list %d workflow summary(ies) of %q from [project]: %w",
			orDefaultLimit(limit), id, err)
	}
	return rows, nil
}
