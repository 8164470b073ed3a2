package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Job is a container-image task owned by a workflow. The threshold is the
// token count at which the job becomes runnable.
type Job struct {
	id         uuid.UUID
	name       string
	workflowID uuid.UUID
	threshold  int32
	image      string
	args       []string
	envs       []string
}

// NewThreshold validates a job activation threshold, an integer in [0, 100].
func NewThreshold(value int32) (int32, error) {
	if err := validate.Var(value, "gte=0,lte=100"); err != nil {
		return 0, fmt.Errorf("threshold must be in [0, 100]")
	}
	return value, nil
}

// NewImage validates a container image reference. It may be empty.
func NewImage(value string) (string, error) {
	return value, nil
}

// NewJob builds a validated job aggregate. Argument and environment entries
// are ordered and may be empty strings; both sequences may be empty.
func NewJob(id, name, workflowID string, threshold int32, image string, args, envs []string) (*Job, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid job id: %w", err)
	}
	validName, err := NewName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid job name: %w", err)
	}
	parsedWorkflowID, err := ParseID(workflowID)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow id: %w", err)
	}
	validThreshold, err := NewThreshold(threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid job threshold: %w", err)
	}
	validImage, err := NewImage(image)
	if err != nil {
		return nil, fmt.Errorf("invalid job image: %w", err)
	}
	// Absent argument and environment lists store as empty arrays, not NULL.
	if args == nil {
		args = []string{}
	}
	if envs == nil {
		envs = []string{}
	}
	return &Job{
		id:         parsed,
		name:       validName,
		workflowID: parsedWorkflowID,
		threshold:  validThreshold,
		image:      validImage,
		args:       args,
		envs:       envs,
	}, nil
}

func (j *Job) ID() uuid.UUID { return j.id }

func (j *Job) Name() string { return j.name }

func (j *Job) WorkflowID() uuid.UUID { return j.workflowID }

func (j *Job) Threshold() int32 { return j.threshold }

func (j *Job) Image() string { return j.image }

func (j *Job) Args() []string { return j.args }

func (j *Job) Envs() []string { return j.envs }
