package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Workflow belongs to exactly one project, referenced by id.
type Workflow struct {
	id          uuid.UUID
	name        string
	projectID   uuid.UUID
	description string
	paused      bool
}

// NewWorkflow builds a validated workflow aggregate.
func NewWorkflow(id, name, projectID, description string, paused bool) (*Workflow, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow id: %w", err)
	}
	validName, err := NewName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow name: %w", err)
	}
	parsedProjectID, err := ParseID(projectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}
	validDescription, err := NewDescription(description)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow description: %w", err)
	}
	return &Workflow{
		id:          parsed,
		name:        validName,
		projectID:   parsedProjectID,
		description: validDescription,
		paused:      paused,
	}, nil
}

func (w *Workflow) ID() uuid.UUID { return w.id }

func (w *Workflow) Name() string { return w.name }

func (w *Workflow) ProjectID() uuid.UUID { return w.projectID }

func (w *Workflow) Description() string { return w.description }

func (w *Workflow) Paused() bool { return w.paused }
