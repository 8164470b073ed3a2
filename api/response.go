package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kotosiro/kotosiro/common"
	"github.com/kotosiro/kotosiro/db"
	"github.com/kotosiro/kotosiro/opa"
	"github.com/kotosiro/kotosiro/queue"
)

// Authorizer decides whether a request may proceed. A policy denial is
// reported as opa.ErrUnauthorized; any other error means the decision could
// not be made at all.
type Authorizer interface {
	Authorize(ctx context.Context, event *opa.Event) error
}

// ConfigNotifier fans configuration changes out to the runners.
type ConfigNotifier interface {
	Publish(update queue.ConfigUpdate) error
}

func validationErrors(c echo.Context) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Validation errors"})
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bad request"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
}

func conflict(c echo.Context) error {
	return c.JSON(http.StatusConflict, echo.Map{"error": "Confliction occured"})
}

func notFound(c echo.Context) error {
	return c.NoContent(http.StatusNotFound)
}

func internalError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Something went wrong"})
}

// authError maps an authorization failure onto the wire. Only an explicit
// policy denial becomes 401; a gate that could not reach a decision is a
// server fault.
func authError(c echo.Context, err error) error {
	if errors.Is(err, opa.ErrUnauthorized) {
		return unauthorized(c)
	}
	common.Logger.WithError(err).Error("authorization could not be decided")
	return internalError(c)
}

// persistError maps a store failure onto the wire. Constraint violations
// surface as 409, everything else as 500.
func persistError(c echo.Context, err error) error {
	if db.IsIntegrityError(err) {
		return conflict(c)
	}
	common.Logger.WithError(err).Error("store operation failed")
	return internalError(c)
}

// notify publishes a config update and logs on failure. Fan-out is best
// effort and never fails the request that triggered it.
func (h *Handler) notify(update queue.ConfigUpdate) {
	if err := h.notifier.Publish(update); err != nil {
		common.Logger.WithError(err).Warn("failed to publish config update")
	}
}
