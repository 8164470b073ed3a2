package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/opa"
)

type createWorkflowRequest struct {
	ID          *string `json:"id"`
	Name        string  `json:"name"`
	ProjectID   string  `json:"project_id"`
	Description string  `json:"description"`
	Paused      bool    `json:"paused"`
}

// CreateWorkflow upserts a workflow under its project.
func (h *Handler) CreateWorkflow(c echo.Context) error {
	var req createWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return validationErrors(c)
	}
	id := uuid.NewString()
	if req.ID != nil {
		id = *req.ID
	}
	workflow, err := domain.NewWorkflow(id, req.Name, req.ProjectID, req.Description, req.Paused)
	if err != nil {
		return validationErrors(c)
	}
	ctx := c.Request().Context()
	wid, pid := workflow.ID(), workflow.ProjectID()
	if err := h.authorizer.Authorize(ctx, opa.Update().OnWorkflow(&wid, &pid).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	if err := h.workflows.Create(ctx, workflow); err != nil {
		return persistError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          workflow.ID(),
		"name":        workflow.Name(),
		"project_id":  workflow.ProjectID(),
		"description": workflow.Description(),
		"paused":      workflow.Paused(),
	})
}

// GetWorkflow answers GET /api/workflow/:id.
func (h *Handler) GetWorkflow(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	row, err := h.workflows.GetByID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if row == nil {
		return notFound(c)
	}
	if err := h.authorizer.Authorize(ctx, opa.Get().OnWorkflow(&row.ID, &row.ProjectID).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// DeleteWorkflow removes a workflow. The owning project is left to the gate
// to resolve.
func (h *Handler) DeleteWorkflow(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	if err := h.authorizer.Authorize(ctx, opa.Delete().OnWorkflow(&id, nil).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	rows, err := h.workflows.Delete(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if rows == 0 {
		return notFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}
