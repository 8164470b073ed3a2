// Package opa gates controller operations through an Open Policy Agent
// sidecar. Every state-changing or reading operation is described as an
// Event (token, action, resource) and posted to the sidecar for a decision.
package opa

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Action is the verb of an authorization event.
type Action string

const (
	ActionGet    Action = "get"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// IsRead reports whether the action only observes state.
func (a Action) IsRead() bool {
	return a == ActionGet || a == ActionList
}

// Token is the caller identity attached to an event. The wire form is
// {"Bearer":"<token>"} when a bearer token is present and the string "None"
// otherwise, so policies can match on the variant.
type Token struct {
	bearer *string
}

// BearerToken wraps a bearer credential taken from the Authorization header.
func BearerToken(value string) Token {
	return Token{bearer: &value}
}

// NoToken is the anonymous identity. Requests without credentials still reach
// the policy; the policy decides what anonymous callers may do.
func NoToken() Token {
	return Token{}
}

// Bearer returns the credential when one is present.
func (t Token) Bearer() (string, bool) {
	if t.bearer == nil {
		return "", false
	}
	return *t.bearer, true
}

func (t Token) MarshalJSON() ([]byte, error) {
	if t.bearer == nil {
		return json.Marshal("None")
	}
	return json.Marshal(map[string]string{"Bearer": *t.bearer})
}

// Resource names what an event acts on. Identifiers stay nil for collection
// level actions; Kind is always set.
type Resource struct {
	ProjectID  *uuid.UUID `json:"project_id"`
	WorkflowID *uuid.UUID `json:"workflow_id"`
	Kind       string     `json:"kind"`
}

type input struct {
	Token    Token    `json:"token"`
	Action   Action   `json:"action"`
	Resource Resource `json:"resource"`
}

type query struct {
	Input input `json:"input"`
}

// decision is the sidecar's answer. A missing result means the policy did
// not produce a value and counts as deny.
type decision struct {
	Result *bool `json:"result"`
}

// Event is one authorization request under construction. Builders return the
// event for chaining:
//
//	opa.Get().WithToken(token).OnProject(&id)
type Event struct {
	token    Token
	action   Action
	resource Resource
}

// Action returns the event's verb.
func (e *Event) Action() Action { return e.action }

// Token returns the caller identity attached to the event.
func (e *Event) Token() Token { return e.token }

// Resource returns the event's target.
func (e *Event) Resource() Resource { return e.resource }

// Get starts a read event for a single resource.
func Get() *Event {
	return &Event{token: NoToken(), action: ActionGet}
}

// List starts a read event for a collection.
func List() *Event {
	return &Event{token: NoToken(), action: ActionList}
}

// Update starts a create-or-update event.
func Update() *Event {
	return &Event{token: NoToken(), action: ActionUpdate}
}

// Delete starts a delete event.
func Delete() *Event {
	return &Event{token: NoToken(), action: ActionDelete}
}

// WithToken attaches the caller identity.
func (e *Event) WithToken(token Token) *Event {
	e.token = token
	return e
}

// OnProject targets a project. A nil id means the project collection.
func (e *Event) OnProject(id *uuid.UUID) *Event {
	e.resource.ProjectID = id
	e.resource.Kind = "project"
	return e
}

// OnWorkflow targets a workflow. When projectID is nil the authorizer
// resolves the owning project before evaluation.
func (e *Event) OnWorkflow(id, projectID *uuid.UUID) *Event {
	e.resource.WorkflowID = id
	e.resource.ProjectID = projectID
	e.resource.Kind = "workflow"
	return e
}

// OfKind overrides the resource kind label.
func (e *Event) OfKind(kind string) *Event {
	e.resource.Kind = kind
	return e
}
