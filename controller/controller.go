// Package controller assembles the control plane: the connection pool, the
// broker session, the policy gate and the HTTP surface, with a lifecycle
// that drains cleanly on shutdown.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kotosiro/kotosiro/api"
	"github.com/kotosiro/kotosiro/common"
	"github.com/kotosiro/kotosiro/config"
	"github.com/kotosiro/kotosiro/db"
	"github.com/kotosiro/kotosiro/opa"
	"github.com/kotosiro/kotosiro/queue"
)

const shutdownTimeout = 10 * time.Second

// Controller is one control-plane instance. ID distinguishes instances in
// logs when several run against the same store.
type Controller struct {
	ID   uuid.UUID
	DB   *sqlx.DB
	MQ   *queue.ConfigPublisher
	Conf *config.Config
}

// New connects the pool and the broker. The returned controller owns both
// and releases them in Close.
func New(ctx context.Context, conf *config.Config) (*Controller, error) {
	pool, err := db.Connect(ctx, conf.DbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	publisher, err := queue.NewConfigPublisher(&queue.RealAMQPDialer{}, conf.MqAddr)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	return &Controller{
		ID:   uuid.New(),
		DB:   pool,
		MQ:   publisher,
		Conf: conf,
	}, nil
}

// Start serves the API until ctx is cancelled, then drains in-flight
// requests before returning.
func (ctrl *Controller) Start(ctx context.Context) error {
	if ctrl.Conf.NoAuth {
		common.Logger.Warn("authorization is disabled, every request will be accepted")
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	authorizer := opa.NewAuthorizer(ctrl.Conf, ctrl.DB)
	api.NewHandler(ctrl.DB, authorizer, ctrl.MQ).Register(e)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(ctrl.Conf.ControllerBind)
	}()
	common.Logger.WithFields(logrus.Fields{
		"id":   ctrl.ID,
		"bind": ctrl.Conf.ControllerBind,
		"addr": ctrl.Conf.ControllerAddr,
	}).Info("controller started")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("controller server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut the controller down cleanly: %w", err)
	}
	common.Logger.WithField("id", ctrl.ID).Info("controller stopped")
	return nil
}

// Close releases the broker session and the pool.
func (ctrl *Controller) Close() error {
	var errs []error
	if err := ctrl.MQ.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close message broker session: %w", err))
	}
	if err := ctrl.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database pool: %w", err))
	}
	return errors.Join(errs...)
}
