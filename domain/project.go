package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Project is the top level aggregate. It owns workflows by id; deleting a
// project cascades to its workflows, jobs, runs and tokens in storage.
type Project struct {
	id          uuid.UUID
	name        string
	description string
	config      json.RawMessage
}

// NewProjectConfig validates an opaque project configuration document.
// The document must be a well-formed JSON object. A nil config means
// "not provided" and preserves the stored value on upsert.
func NewProjectConfig(value json.RawMessage) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	if !json.Valid(value) {
		return nil, fmt.Errorf("config must be valid json")
	}
	return value, nil
}

// NewProject builds a validated project aggregate.
func NewProject(id, name, description string, config json.RawMessage) (*Project, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}
	validName, err := NewName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid project name: %w", err)
	}
	validDescription, err := NewDescription(description)
	if err != nil {
		return nil, fmt.Errorf("invalid project description: %w", err)
	}
	validConfig, err := NewProjectConfig(config)
	if err != nil {
		return nil, fmt.Errorf("invalid project config: %w", err)
	}
	return &Project{
		id:          parsed,
		name:        validName,
		description: validDescription,
		config:      validConfig,
	}, nil
}

func (p *Project) ID() uuid.UUID { return p.id }

func (p *Project) Name() string { return p.name }

func (p *Project) Description() string { return p.description }

// Config returns the opaque configuration document, or nil when the caller
// did not supply one.
func (p *Project) Config() json.RawMessage { return p.config }
