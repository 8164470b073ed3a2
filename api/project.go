package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/opa"
	"github.com/kotosiro/kotosiro/queue"
	"github.com/kotosiro/kotosiro/repository"
)

type createProjectRequest struct {
	ID          *string         `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
}

// CreateProject upserts a project. A missing id means a brand new project
// and is filled in before validation.
func (h *Handler) CreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return validationErrors(c)
	}
	id := uuid.NewString()
	if req.ID != nil {
		id = *req.ID
	}
	project, err := domain.NewProject(id, req.Name, req.Description, req.Config)
	if err != nil {
		return validationErrors(c)
	}
	ctx := c.Request().Context()
	pid := project.ID()
	if err := h.authorizer.Authorize(ctx, opa.Update().OnProject(&pid).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	if err := h.projects.Create(ctx, project); err != nil {
		return persistError(c, err)
	}
	h.notify(queue.ProjectConfigUpdate(project.ID()))
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          project.ID(),
		"name":        project.Name(),
		"description": project.Description(),
	})
}

// FindProject answers GET /api/project. With a name query parameter it looks
// up that single project; without one it lists them all.
func (h *Handler) FindProject(c echo.Context) error {
	ctx := c.Request().Context()
	token := bearerToken(c)
	if raw := c.QueryParam("name"); raw != "" {
		name, err := domain.NewName(raw)
		if err != nil {
			return validationErrors(c)
		}
		row, err := h.projects.GetByName(ctx, name)
		if err != nil {
			return persistError(c, err)
		}
		if row == nil {
			return notFound(c)
		}
		if err := h.authorizer.Authorize(ctx, opa.Get().OnProject(&row.ID).WithToken(token)); err != nil {
			return authError(c, err)
		}
		return c.JSON(http.StatusOK, row)
	}
	if err := h.authorizer.Authorize(ctx, opa.List().OnProject(nil).WithToken(token)); err != nil {
		return authError(c, err)
	}
	rows, err := h.projects.List(ctx, nil)
	if err != nil {
		return persistError(c, err)
	}
	if rows == nil {
		rows = []repository.ProjectRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// GetProjectSummary answers GET /api/project/:id with the project row
// aggregated with its trailing-hour run counts.
func (h *Handler) GetProjectSummary(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	row, err := h.projects.GetSummaryByID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if row == nil {
		return notFound(c)
	}
	if err := h.authorizer.Authorize(ctx, opa.Get().OnProject(&row.ID).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// DeleteProject removes a project and everything hanging off it.
func (h *Handler) DeleteProject(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	if err := h.authorizer.Authorize(ctx, opa.Delete().OnProject(&id).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	rows, err := h.projects.Delete(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if rows == 0 {
		return notFound(c)
	}
	h.notify(queue.ProjectConfigUpdate(id))
	return c.NoContent(http.StatusNoContent)
}

// ListProjectWorkflows pages through a project's workflows by name. Invalid
// name and after filters are dropped rather than rejected; a malformed limit
// is a bad request.
func (h *Handler) ListProjectWorkflows(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	var name, after *string
	if raw := c.QueryParam("name"); raw != "" {
		if v, err := domain.NewName(raw); err == nil {
			name = &v
		}
	}
	if raw := c.QueryParam("after"); raw != "" {
		if v, err := domain.NewName(raw); err == nil {
			after = &v
		}
	}
	var limit *int64
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c)
		}
		limit = &v
	}
	ctx := c.Request().Context()
	if err := h.authorizer.Authorize(ctx, opa.List().OnProject(&id).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	rows, err := h.projects.ListWorkflowsByID(ctx, id, name, after, limit)
	if err != nil {
		return persistError(c, err)
	}
	if rows == nil {
		rows = []repository.WorkflowSummaryRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// GetProjectConfig answers the internal config fetch used by runners. A
// project without a stored config reads as the empty document.
func (h *Handler) GetProjectConfig(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c)
	}
	ctx := c.Request().Context()
	if err := h.authorizer.Authorize(ctx, opa.Get().OnProject(&id).WithToken(bearerToken(c))); err != nil {
		return authError(c, err)
	}
	cfg, err := h.projects.GetConfigByID(ctx, id)
	if err != nil {
		return persistError(c, err)
	}
	if cfg == nil {
		return notFound(c)
	}
	return c.JSONBlob(http.StatusOK, cfg)
}
