package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotosiro/kotosiro/db"
	"github.com/kotosiro/kotosiro/domain"
)

func TestProjectCreate(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}

	project, err := domain.NewProject(uuid.New().String(), "analytics", "nightly loads", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)

	mock.ExpectExec(upsertProjectQuery).
		WithArgs(project.ID(), "analytics", "nightly loads", []byte(`{"a":1}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), pool, project))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectCreateWithoutConfigBindsNull(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}

	project, err := domain.NewProject(uuid.New().String(), "analytics", "", nil)
	require.NoError(t, err)

	mock.ExpectExec(upsertProjectQuery).
		WithArgs(project.ID(), "analytics", "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), pool, project))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectCreateSurfacesIntegrityError(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}

	project, err := domain.NewProject(uuid.New().String(), "analytics", "", nil)
	require.NoError(t, err)

	mock.ExpectExec(upsertProjectQuery).
		WithArgs(project.ID(), "analytics", "", nil).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), pool, project)
	require.Error(t, err)
	assert.True(t, db.IsIntegrityError(err))
}

func TestProjectDelete(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()

	mock.ExpectExec(deleteProjectQuery).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), pool, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestProjectDeleteMissingRowsZero(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()

	mock.ExpectExec(deleteProjectQuery).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Delete(context.Background(), pool, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func projectColumns() []string {
	return []string{"id", "name", "description", "config", "created_at", "updated_at"}
}

func TestProjectList(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	now := time.Now().UTC()

	rows := sqlmock.NewRows(projectColumns()).
		AddRow(uuid.New(), "alpha", "", []byte(`{}`), now, now).
		AddRow(uuid.New(), "beta", "", []byte(`{}`), now, now)
	mock.ExpectQuery(listProjectsQuery).
		WithArgs(int64(100)).
		WillReturnRows(rows)

	listed, err := repo.List(context.Background(), pool, nil)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "alpha", listed[0].Name)
	assert.Equal(t, "beta", listed[1].Name)
}

func TestProjectListWithExplicitLimit(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	limit := int64(5)

	mock.ExpectQuery(listProjectsQuery).
		WithArgs(limit).
		WillReturnRows(sqlmock.NewRows(projectColumns()))

	listed, err := repo.List(context.Background(), pool, &limit)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestProjectGetByID(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(getProjectByIDQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(projectColumns()).
			AddRow(id, "analytics", "desc", []byte(`{"a":1}`), now, now))

	row, err := repo.GetByID(context.Background(), pool, id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, id, row.ID)
	assert.JSONEq(t, `{"a":1}`, string(row.Config))
}

func TestProjectGetByIDNotFound(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()

	mock.ExpectQuery(getProjectByIDQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(projectColumns()))

	row, err := repo.GetByID(context.Background(), pool, id)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestProjectGetByName(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(getProjectByNameQuery).
		WithArgs("analytics").
		WillReturnRows(sqlmock.NewRows(projectColumns()).
			AddRow(id, "analytics", "", []byte(`{}`), now, now))

	row, err := repo.GetByName(context.Background(), pool, "analytics")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "analytics", row.Name)
}

func TestProjectGetSummaryByID(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()

	columns := []string{
		"id", "name", "description", "workflows",
		"running_jobs", "waiting_jobs",
		"fails_last_hour", "successes_last_hour", "errors_last_hour",
	}
	mock.ExpectQuery(getProjectSummaryQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id, "analytics", "", int64(3), int64(1), int64(2), int64(0), int64(4), int64(0)))

	summary, err := repo.GetSummaryByID(context.Background(), pool, id)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(3), summary.Workflows)
	assert.Equal(t, int64(1), summary.RunningJobs)
	assert.Equal(t, int64(2), summary.WaitingJobs)
	assert.Equal(t, int64(4), summary.SuccessesLastHour)
}

func TestProjectGetConfigByID(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()

	mock.ExpectQuery(getProjectConfigQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).AddRow([]byte(`{"retries":3}`)))

	config, err := repo.GetConfigByID(context.Background(), pool, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"retries":3}`, string(config))
}

func TestProjectGetConfigByIDNotFound(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()

	mock.ExpectQuery(getProjectConfigQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"config"}))

	config, err := repo.GetConfigByID(context.Background(), pool, id)
	require.NoError(t, err)
	assert.Nil(t, config)
}

func workflowSummaryColumns() []string {
	return []string{
		"id", "name", "description", "paused",
		"success", "running", "failure", "waiting", "error",
	}
}

func TestProjectListWorkflowsByID(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()

	mock.ExpectQuery(listProjectWorkflowsQuery).
		WithArgs(id, nil, nil, int64(100)).
		WillReturnRows(sqlmock.NewRows(workflowSummaryColumns()).
			AddRow(uuid.New(), "hourly", "", false, int64(2), int64(1), int64(0), int64(3), int64(0)))

	summaries, err := repo.ListWorkflowsByID(context.Background(), pool, id, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "hourly", summaries[0].Name)
	assert.Equal(t, int64(3), summaries[0].Waiting)
}

func TestProjectListWorkflowsByIDWithFilters(t *testing.T) {
	pool, mock := newMockDB(t)
	repo := PgProjectRepository{}
	id := uuid.New()
	name := "hourly"
	after := "daily"
	limit := int64(10)

	mock.ExpectQuery(listProjectWorkflowsQuery).
		WithArgs(id, name, after, limit).
		WillReturnRows(sqlmock.NewRows(workflowSummaryColumns()))

	summaries, err := repo.ListWorkflowsByID(context.Background(), pool, id, &name, &after, &limit)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
