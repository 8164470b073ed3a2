package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TokenState is the closed set of readiness and terminal states shared by
// tokens and runs.
//
//	waiting ──activate──▶ active ──dispatch──▶ running ──▶ success | failure | error
//
// Final states are terminal; summary consumers rely on exactly these labels.
type TokenState string

const (
	StateWaiting TokenState = "waiting"
	StateActive  TokenState = "active"
	StateRunning TokenState = "running"
	StateSuccess TokenState = "success"
	StateFailure TokenState = "failure"
	StateError   TokenState = "error"
)

// ParseTokenState parses the textual form of a token state. Parsing is
// case-insensitive; the canonical form is lowercase.
func ParseTokenState(value string) (TokenState, error) {
	switch strings.ToLower(value) {
	case "waiting":
		return StateWaiting, nil
	case "active":
		return StateActive, nil
	case "running":
		return StateRunning, nil
	case "success":
		return StateSuccess, nil
	case "failure":
		return StateFailure, nil
	case "error":
		return StateError, nil
	default:
		return "", fmt.Errorf("unknown token state %q", value)
	}
}

// IsFinal reports whether the state is terminal.
func (s TokenState) IsFinal() bool {
	return s == StateSuccess || s == StateFailure || s == StateError
}

func (s TokenState) String() string { return string(s) }

// NewTokenCount validates a token readiness counter, a non-negative integer.
func NewTokenCount(value int32) (int32, error) {
	if err := validate.Var(value, "gte=0"); err != nil {
		return 0, fmt.Errorf("token count must not be negative")
	}
	return value, nil
}

// Token is the per-job readiness record. The controller stores and exposes
// tokens; it does not advance them.
type Token struct {
	jobID uuid.UUID
	count int32
	state TokenState
}

// NewToken builds a validated token record for a job.
func NewToken(jobID string, count int32, state TokenState) (*Token, error) {
	parsed, err := ParseID(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job id: %w", err)
	}
	validCount, err := NewTokenCount(count)
	if err != nil {
		return nil, fmt.Errorf("invalid token count: %w", err)
	}
	if _, err := ParseTokenState(string(state)); err != nil {
		return nil, fmt.Errorf("invalid token state: %w", err)
	}
	return &Token{jobID: parsed, count: validCount, state: state}, nil
}

func (t *Token) JobID() uuid.UUID { return t.jobID }

func (t *Token) Count() int32 { return t.count }

func (t *Token) State() TokenState { return t.state }
