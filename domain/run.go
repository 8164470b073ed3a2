package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunPriority orders runs for dispatch: backfill < low < normal < high.
type RunPriority int

const (
	PriorityBackfill RunPriority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
)

// DefaultRunPriority is used when a run is triggered without an explicit
// priority.
const DefaultRunPriority = PriorityNormal

// ParseRunPriority parses the textual form of a run priority. Parsing is
// case-insensitive; the canonical form is lowercase.
func ParseRunPriority(value string) (RunPriority, error) {
	switch strings.ToLower(value) {
	case "backfill":
		return PriorityBackfill, nil
	case "low":
		return PriorityLow, nil
	case "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("unknown run priority %q", value)
	}
}

func (p RunPriority) String() string {
	switch p {
	case PriorityBackfill:
		return "backfill"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("runpriority(%d)", int(p))
	}
}

// Run is the execution record for one attempt of a job. started_at and
// finished_at are assigned by the store as the run progresses.
type Run struct {
	id          uuid.UUID
	state       TokenState
	priority    RunPriority
	jobID       uuid.UUID
	triggeredAt time.Time
}

// NewRun builds a validated run record. The triggered timestamp is recorded
// in UTC.
func NewRun(id string, state TokenState, priority RunPriority, jobID string, triggeredAt time.Time) (*Run, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid run id: %w", err)
	}
	if _, err := ParseTokenState(string(state)); err != nil {
		return nil, fmt.Errorf("invalid run state: %w", err)
	}
	if _, err := ParseRunPriority(priority.String()); err != nil {
		return nil, fmt.Errorf("invalid run priority: %w", err)
	}
	parsedJobID, err := ParseID(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job id: %w", err)
	}
	return &Run{
		id:          parsed,
		state:       state,
		priority:    priority,
		jobID:       parsedJobID,
		triggeredAt: triggeredAt.UTC(),
	}, nil
}

func (r *Run) ID() uuid.UUID { return r.id }

func (r *Run) State() TokenState { return r.state }

func (r *Run) Priority() RunPriority { return r.priority }

func (r *Run) JobID() uuid.UUID { return r.jobID }

func (r *Run) TriggeredAt() time.Time { return r.triggeredAt }
