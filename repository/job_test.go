package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotosiro/kotosiro/domain"
)

func jobColumns() []string {
	return []string{"id", "name", "workflow_id", "threshold", "image", "args", "envs", "created_at", "updated_at"}
}

func TestJobCreate(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgJobRepository{}

	job, err := domain.NewJob(uuid.New().String(), "extract", uuid.New().String(), 2,
		"registry.local/etl:1.4", []string{"--once"}, []string{"MODE=batch"})
	require.NoError(t, err)

	mock.ExpectExec(upsertJobQuery).
		WithArgs(job.ID(), "extract", job.WorkflowID(), int32(2), "registry.local/etl:1.4",
			pq.StringArray{"--once"}, pq.StringArray{"MODE=batch"}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), pool, job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobDelete(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgJobRepository{}
	id := uuid.New()

	mock.ExpectExec(deleteJobQuery).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Delete(context.Background(), pool, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestJobGetByID(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgJobRepository{}
	id := uuid.New()
	workflowID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(getJobByIDQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(jobColumns()).
			AddRow(id, "extract", workflowID, int32(2), "etl:1.4",
				pq.StringArray{"--once"}, pq.StringArray{}, now, now))

	row, err := repo.GetByID(context.Background(), pool, id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, workflowID, row.WorkflowID)
	assert.Equal(t, pq.StringArray{"--once"}, row.Args)
	assert.Empty(t, row.Envs)
}

func TestJobGetByIDNotFound(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgJobRepository{}
	id := uuid.New()

	mock.ExpectQuery(getJobByIDQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(jobColumns()))

	row, err := repo.GetByID(context.Background(), pool, id)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestJobGetWorkflowID(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgJobRepository{}
	id := uuid.New()
	workflowID := uuid.New()

	mock.ExpectQuery(getJobWorkflowIDQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"workflow_id"}).AddRow(workflowID))

	got, err := repo.GetWorkflowID(context.Background(), pool, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, workflowID, *got)
}

func TestJobGetWorkflowIDNotFound(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgJobRepository{}
	id := uuid.New()

	mock.ExpectQuery(getJobWorkflowIDQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"workflow_id"}))

	got, err := repo.GetWorkflowID(context.Background(), pool, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
