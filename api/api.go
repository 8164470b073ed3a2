// Package api exposes the control-plane HTTP surface. Every mutating route
// walks the same pipeline: decode the payload, build the domain value,
// consult the policy sidecar, persist, then fan the change out over the
// broker. Read routes skip persistence and fan-out but still pass the gate.
package api

import (
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/kotosiro/kotosiro/service"
)

// Handler bundles the per-aggregate services with the policy gate and the
// config-update publisher behind the echo routes.
type Handler struct {
	authorizer Authorizer
	notifier   ConfigNotifier
	projects   *service.ProjectService
	workflows  *service.WorkflowService
	jobs       *service.JobService
	runs       *service.RunService
	tokens     *service.TokenService
}

// NewHandler builds the route handler over the shared pool.
func NewHandler(pool *sqlx.DB, authorizer Authorizer, notifier ConfigNotifier) *Handler {
	return &Handler{
		authorizer: authorizer,
		notifier:   notifier,
		projects:   service.NewProjectService(pool),
		workflows:  service.NewWorkflowService(pool),
		jobs:       service.NewJobService(pool),
		runs:       service.NewRunService(pool),
		tokens:     service.NewTokenService(pool),
	}
}

// Register mounts all routes on e. POST and PUT share the upsert handlers
// because creation is an insert-or-update in the store.
func (h *Handler) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/project", h.FindProject)
	api.POST("/project", h.CreateProject)
	api.PUT("/project", h.CreateProject)
	api.GET("/project/:id", h.GetProjectSummary)
	api.DELETE("/project/:id", h.DeleteProject)
	api.GET("/project/:id/workflow", h.ListProjectWorkflows)

	api.POST("/workflow", h.CreateWorkflow)
	api.PUT("/workflow", h.CreateWorkflow)
	api.GET("/workflow/:id", h.GetWorkflow)
	api.DELETE("/workflow/:id", h.DeleteWorkflow)

	api.POST("/job", h.CreateJob)
	api.PUT("/job", h.CreateJob)
	api.GET("/job/:id", h.GetJob)
	api.DELETE("/job/:id", h.DeleteJob)
	api.GET("/job/:id/token", h.GetJobToken)
	api.PUT("/job/:id/token", h.PutJobToken)

	api.POST("/run", h.CreateRun)
	api.GET("/run/:id", h.GetRun)
	api.DELETE("/run/:id", h.DeleteRun)

	internal := e.Group("/internal")
	internal.GET("/project/:id/config", h.GetProjectConfig)
}
