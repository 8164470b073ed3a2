package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotosiro/kotosiro/opa"
)

var projectColumns = []string{"id", "name", "description", "config", "created_at", "updated_at"}

func TestCreateProjectGeneratesID(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectExec("INSERT INTO project").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do(http.MethodPost, "/api/project", `{"name":"oxidized","description":"data platform"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	id, err := uuid.Parse(body["id"])
	require.NoError(t, err)
	assert.Equal(t, "oxidized", body["name"])
	assert.Equal(t, "data platform", body["description"])

	require.Len(t, srv.gate.events, 1)
	assert.Equal(t, opa.ActionUpdate, srv.gate.events[0].Action())
	assert.Equal(t, "project", srv.gate.events[0].Resource().Kind)

	require.Len(t, srv.notifier.updates, 1)
	published, ok := srv.notifier.updates[0].Project()
	require.True(t, ok)
	assert.Equal(t, id, published)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestCreateProjectKeepsGivenID(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectExec("INSERT INTO project").WillReturnResult(sqlmock.NewResult(0, 1))

	id := "34f3c577-ee79-4bf6-a84d-3474fe61ff18"
	rec := srv.do(http.MethodPut, "/api/project", fmt.Sprintf(`{"id":%q,"name":"oxidized","description":""}`, id))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id, body["id"])
}

func TestCreateProjectValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/project", `{"name":"","description":"x"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Validation errors"}`, rec.Body.String())
	assert.Empty(t, srv.gate.events)
	assert.Empty(t, srv.notifier.updates)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestCreateProjectConflict(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectExec("INSERT INTO project").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	rec := srv.do(http.MethodPost, "/api/project", `{"name":"oxidized","description":""}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Confliction occured"}`, rec.Body.String())
	assert.Empty(t, srv.notifier.updates)
}

func TestCreateProjectDenied(t *testing.T) {
	srv := newTestServer(t)
	srv.gate.err = fmt.Errorf("update on project: %w", opa.ErrUnauthorized)

	rec := srv.do(http.MethodPost, "/api/project", `{"name":"oxidized","description":""}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestCreateProjectGateUnavailable(t *testing.T) {
	srv := newTestServer(t)
	srv.gate.err = errors.New("connection refused")

	rec := srv.do(http.MethodPost, "/api/project", `{"name":"oxidized","description":""}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something went wrong"}`, rec.Body.String())
}

func TestFindProjectByName(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	now := time.Now()
	srv.mock.ExpectQuery("FROM project").
		WithArgs("oxidized").
		WillReturnRows(sqlmock.NewRows(projectColumns).
			AddRow(id, "oxidized", "data platform", []byte(`{}`), now, now))

	rec := srv.do(http.MethodGet, "/api/project?name=oxidized", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id.String(), body["id"])
	assert.Equal(t, "oxidized", body["name"])

	require.Len(t, srv.gate.events, 1)
	assert.Equal(t, opa.ActionGet, srv.gate.events[0].Action())
	require.NotNil(t, srv.gate.events[0].Resource().ProjectID)
	assert.Equal(t, id, *srv.gate.events[0].Resource().ProjectID)
}

func TestFindProjectByNameNotFound(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery("FROM project").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	rec := srv.do(http.MethodGet, "/api/project?name=ghost", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, rec.Body.Len())
	assert.Empty(t, srv.gate.events)
}

func TestListProjects(t *testing.T) {
	srv := newTestServer(t)
	now := time.Now()
	srv.mock.ExpectQuery("FROM project").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(projectColumns).
			AddRow(uuid.New(), "alpha", "", []byte(`{}`), now, now).
			AddRow(uuid.New(), "bravo", "", []byte(`{}`), now, now))

	rec := srv.do(http.MethodGet, "/api/project", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)

	require.Len(t, srv.gate.events, 1)
	assert.Equal(t, opa.ActionList, srv.gate.events[0].Action())
	assert.Nil(t, srv.gate.events[0].Resource().ProjectID)
}

func TestListProjectsEmpty(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery("FROM project").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(projectColumns))

	rec := srv.do(http.MethodGet, "/api/project", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetProjectSummary(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	srv.mock.ExpectQuery("FROM project").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "workflows",
			"running_jobs", "waiting_jobs",
			"fails_last_hour", "successes_last_hour", "errors_last_hour",
		}).AddRow(id, "oxidized", "", int64(3), int64(1), int64(4), int64(0), int64(7), int64(0)))

	rec := srv.do(http.MethodGet, "/api/project/"+id.String(), "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["workflows"])
	assert.EqualValues(t, 7, body["successes_last_hour"])
}

func TestGetProjectSummaryBadID(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/project/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Bad request"}`, rec.Body.String())
}

func TestGetProjectSummaryNotFound(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	srv.mock.ExpectQuery("FROM project").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	rec := srv.do(http.MethodGet, "/api/project/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, srv.gate.events)
}

func TestDeleteProjectNotFound(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	srv.mock.ExpectExec("DELETE FROM project").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := srv.do(http.MethodDelete, "/api/project/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, srv.notifier.updates)
}

func TestDeleteProjectPublishesUpdate(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	srv.mock.ExpectExec("DELETE FROM project").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do(http.MethodDelete, "/api/project/"+id.String(), "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, srv.notifier.updates, 1)
	published, ok := srv.notifier.updates[0].Project()
	require.True(t, ok)
	assert.Equal(t, id, published)
}

func TestListProjectWorkflows(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	srv.mock.ExpectQuery("FROM workflow").
		WithArgs(id, nil, "bravo", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "paused",
			"success", "running", "failure", "waiting", "error",
		}).
			AddRow(uuid.New(), "charlie", "", false, int64(1), int64(0), int64(0), int64(2), int64(0)).
			AddRow(uuid.New(), "delta", "", true, int64(0), int64(0), int64(1), int64(0), int64(0)))

	rec := srv.do(http.MethodGet, "/api/project/"+id.String()+"/workflow?after=bravo&limit=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "charlie", body[0]["name"])

	require.Len(t, srv.gate.events, 1)
	assert.Equal(t, opa.ActionList, srv.gate.events[0].Action())
	require.NotNil(t, srv.gate.events[0].Resource().ProjectID)
	assert.Equal(t, id, *srv.gate.events[0].Resource().ProjectID)
}

func TestListProjectWorkflowsBadLimit(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()

	rec := srv.do(http.MethodGet, "/api/project/"+id.String()+"/workflow?limit=abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.gate.events)
}

func TestGetProjectConfig(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	srv.mock.ExpectQuery("FROM project").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).AddRow([]byte(`{"retries":3}`)))

	rec := srv.do(http.MethodGet, "/internal/project/"+id.String()+"/config", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"retries":3}`, rec.Body.String())
}

func TestGetProjectConfigNotFound(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.New()
	srv.mock.ExpectQuery("FROM project").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	rec := srv.do(http.MethodGet, "/internal/project/"+id.String()+"/config", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
