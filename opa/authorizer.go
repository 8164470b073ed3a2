package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/kotosiro/kotosiro/common"
	"github.com/kotosiro/kotosiro/config"
	"github.com/kotosiro/kotosiro/repository"
)

// decisionPath is the sidecar document queried for every event.
const decisionPath = "/v1/data/kotosiro/authorize"

// ErrUnauthorized is returned when the policy denies an event. Any other
// error from Authorize means the decision could not be obtained at all.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer evaluates events against the OPA sidecar. When the resource
// names a workflow without its owning project, the authorizer resolves the
// project id from the store first so policies always see the full chain.
type Authorizer struct {
	conf      *config.Config
	db        *sqlx.DB
	workflows repository.WorkflowRepository
	client    *http.Client
}

// NewAuthorizer builds the policy gate over the given pool.
func NewAuthorizer(conf *config.Config, pool *sqlx.DB) *Authorizer {
	return &Authorizer{
		conf:      conf,
		db:        pool,
		workflows: repository.PgWorkflowRepository{},
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Authorize enriches and evaluates one event. It returns nil when the event
// is allowed, ErrUnauthorized when the policy denies it, and any other error
// when no decision could be reached.
func (a *Authorizer) Authorize(ctx context.Context, event *Event) error {
	if a.conf.NoAuth {
		return nil
	}
	if event.resource.WorkflowID != nil && event.resource.ProjectID == nil {
		projectID, err := a.workflows.GetProjectID(ctx, a.db, *event.resource.WorkflowID)
		if err != nil {
			return err
		}
		event.resource.ProjectID = projectID
	}
	allowed, err := a.isAuthorized(ctx, event)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("failed to authorize %s on %s: %w", event.action, event.resource.Kind, ErrUnauthorized)
	}
	return nil
}

func (a *Authorizer) isAuthorized(ctx context.Context, event *Event) (bool, error) {
	if a.conf.OpaAddr == "" {
		return false, fmt.Errorf(
			"OPA sidecar address is unset (to disable auth you must set %s_NO_AUTH=true)",
			config.EnvPrefix)
	}
	endpoint, err := url.JoinPath(a.conf.OpaAddr, decisionPath)
	if err != nil {
		return false, fmt.Errorf("malformed OPA sidecar address %q: %w", a.conf.OpaAddr, err)
	}
	body, err := json.Marshal(query{Input: input{
		Token:    event.token,
		Action:   event.action,
		Resource: event.resource,
	}})
	if err != nil {
		return false, fmt.Errorf("failed to encode OPA query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build OPA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query OPA at %q: %w", a.conf.OpaAddr, err)
	}
	defer res.Body.Close()
	var verdict decision
	if err := json.NewDecoder(res.Body).Decode(&verdict); err != nil {
		return false, fmt.Errorf("failed to parse OPA response: %w", err)
	}
	allowed := verdict.Result != nil && *verdict.Result
	fields := logrus.Fields{
		"action": event.action,
		"kind":   event.resource.Kind,
	}
	if allowed {
		common.Logger.WithFields(fields).Debug("authorized")
	} else {
		common.Logger.WithFields(fields).Warn("unauthorized")
	}
	return allowed, nil
}
