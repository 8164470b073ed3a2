package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/opa"
)

type createRunRequest struct {
	ID          *string    `json:"id"`
	JobID       string     `json:"job_id"`
	State       *string    `json:"state"`
	Priority    *string    `json:"priority"`
	TriggeredAt *time.Time `json:"triggered_at"`
}

// CreateRun records a freshly triggered run. State defaults to waiting,
// priority to normal and the trigger time to now. Authorization is decided
// against the workflow owning the run's job.
func (h *Handler) CreateRun(c echo.Context) error {
	var req createRunRequest
	if err := c.Bind(&req); err != nil {
		return validationErrors(c)
	}
	id := uuid.NewString()
	if req.ID != nil {
		id = *req.ID
	}
	state := domain.StateWaiting
	if req.State != nil {
		var err error
		if state, err = domain.ParseTokenState(*req.State); err != nil {
			return validationErrors(c)
		}
	}
	priority := domain.DefaultRunPriority
	if req.Priority != nil {
		var err error
		if priority, err = domain.ParseRunPriority(*req.Priority); err != nil {
			return validationErrors(c)
		}
	}
	triggeredAt := time.Now()
	if req.TriggeredAt != nil {
		triggeredAt = *req.TriggeredAt
	}
	run, err := domain.NewRun(id, state, priority, req.JobID, triggeredAt)
	if err != nil {
		return validationErrors(c)
	}
	ctx := c.Request().Context()
	jid := run.JobID()
	// An unknown job leaves the workflow unresolved; the insert below then
	// fails its foreign key and reads as a conflict.
	wid, err := h.jobs.GetWorkflowID(ctx, jid)
	if err != nil {
		return persistError(c, err)
	}
	if err := h.authorizer.Authorize(ctx, opa.Update().OnWorkflow(wid, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	if err := h.runs.Create(ctx, run); err != nil {
		return persistError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       run.ID(),
		"job_id":   run.JobID(),
		"state":    run.State(),
		"priority": run.Priority().String(),
	})
}

// GetRun answers GET /api/run/:id.
func (h *Handler) GetRun(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	row, err := h.runs.GetByID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if row == nil {
		return notFound(c)
	}
	wid, err := h.jobs.GetWorkflowID(ctx, row.JobID)
	if err != nil {
		return persistError(c, err)
	}
	if err := h.authorizer.Authorize(ctx, opa.Get().OnWorkflow(wid, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// DeleteRun removes a run record.
func (h *Handler) DeleteRun(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	row, err := h.runs.GetByID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if row == nil {
		return notFound(c)
	}
	var wid *uuid.UUID
	if wid, err = h.jobs.GetWorkflowID(ctx, row.JobID); err != nil {
		return persistError(c, err)
	}
	if err := h.authorizer.Authorize(ctx, opa.Delete().OnWorkflow(wid, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	rows, err := h.runs.Delete(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if rows == 0 {
		return notFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}
