// Package domain holds the validated value objects and aggregates of the
// kotosiro control plane: projects, workflows, jobs, runs and tokens.
//
// Every entity is built through a validating factory so that constraint
// violations (empty names, malformed identifiers, out-of-range thresholds)
// are caught at the boundary instead of mid-transaction. Entities compare
// by identifier; value objects compare structurally. String fields are
// stored verbatim, nothing is trimmed.
package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is the shared validator instance used by all value constructors.
var validate = validator.New()

// ParseID parses the canonical hyphenated form of an entity identifier.
func ParseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identifier must be a valid uuid: %w", err)
	}
	return id, nil
}

// NewName validates an entity name. Names must be non-empty.
func NewName(value string) (string, error) {
	if err := validate.Var(value, "min=1"); err != nil {
		return "", fmt.Errorf("name must not be empty")
	}
	return value, nil
}

// NewDescription validates an entity description. Descriptions may be empty.
func NewDescription(value string) (string, error) {
	return value, nil
}
