package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/opa"
	"github.com/kotosiro/kotosiro/queue"
)

type createJobRequest struct {
	ID         *string  `json:"id"`
	Name       string   `json:"name"`
	WorkflowID string   `json:"workflow_id"`
	Threshold  int32    `json:"threshold"`
	Image      string   `json:"image"`
	Args       []string `json:"args"`
	Envs       []string `json:"envs"`
}

// CreateJob upserts a job. Authorization is decided against the parent
// workflow since jobs have no policy kind of their own.
func (h *Handler) CreateJob(c echo.Context) error {
	var req createJobRequest
	if err := c.Bind(&req); err != nil {
		return validationErrors(c)
	}
	id := uuid.NewString()
	if req.ID != nil {
		id = *req.ID
	}
	job, err := domain.NewJob(id, req.Name, req.WorkflowID, req.Threshold, req.Image, req.Args, req.Envs)
	if err != nil {
		return validationErrors(c)
	}
	ctx := c.Request().Context()
	wid := job.WorkflowID()
	if err := h.authorizer.Authorize(ctx, opa.Update().OnWorkflow(&wid, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		return persistError(c, err)
	}
	h.notify(queue.JobConfigUpdate(job.ID()))
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          job.ID(),
		"name":        job.Name(),
		"workflow_id": job.WorkflowID(),
	})
}

// GetJob answers GET /api/job/:id.
func (h *Handler) GetJob(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	row, err := h.jobs.GetByID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if row == nil {
		return notFound(c)
	}
	if err := h.authorizer.Authorize(ctx, opa.Get().OnWorkflow(&row.WorkflowID, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// DeleteJob removes a job and tells the runners its config is gone.
func (h *Handler) DeleteJob(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	wid, err := h.jobs.GetWorkflowID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if wid == nil {
		return notFound(c)
	}
	if err := h.authorizer.Authorize(ctx, opa.Delete().OnWorkflow(wid, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	rows, err := h.jobs.Delete(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if rows == 0 {
		return notFound(c)
	}
	h.notify(queue.JobConfigUpdate(id))
	return c.NoContent(http.StatusNoContent)
}

// GetJobToken answers GET /api/job/:id/token with the job's readiness token.
func (h *Handler) GetJobToken(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	wid, err := h.jobs.GetWorkflowID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if wid == nil {
		return notFound(c)
	}
	if err := h.authorizer.Authorize(ctx, opa.Get().OnWorkflow(wid, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	row, err := h.tokens.GetByJobID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if row == nil {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, row)
}

type putTokenRequest struct {
	Count int32  `json:"count"`
	State string `json:"state"`
}

// PutJobToken stores the job's readiness token as reported by a runner.
func (h *Handler) PutJobToken(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	var req putTokenRequest
	if err := c.Bind(&req); err != nil {
		return validationErrors(c)
	}
	state, err := domain.ParseTokenState(req.State)
	if err != nil {
		return validationErrors(c)
	}
	token, err := domain.NewToken(id.String(), req.Count, state)
	if err != nil {
		return validationErrors(c)
	}
	ctx := c.Request().Context()
	wid, err := h.jobs.GetWorkflowID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if wid == nil {
		return notFound(c)
	}
	if err := h.authorizer.Authorize(ctx, opa.Update().OnWorkflow(wid, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	if err := h.tokens.Upsert(ctx, token); err != nil {
		return persistError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"job_id": token.JobID(),
		"count":  token.Count(),
		"state":  token.State(),
	})
}
