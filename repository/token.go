package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/domain"
)

// TokenRow is the persisted shape of a per-job readiness token.
type TokenRow struct {
	JobID     uuid.UUID `db:"job_id" json:"job_id"`
	Count     int32     `db:"count" json:"count"`
	State     string    `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const upsertTokenQuery = `INSERT INTO token (
    job_id,
    count,
    state
) VALUES ($1, $2, $3)
ON CONFLICT(job_id)
DO UPDATE
SET count = $2,
    state = $3`

const getTokenByJobIDQuery = `SELECT
    job_id,
    count,
    state,
    created_at,
    updated_at
FROM token
WHERE job_id = $1`

// TokenRepository persists and queries job readiness tokens.
type TokenRepository interface {
	Upsert(ctx context.Context, db sqlx.ExtContext, token *domain.Token) error
	GetByJobID(ctx context.Context, db sqlx.ExtContext, jobID uuid.UUID) (*TokenRow, error)
}

// PgTokenRepository is the PostgreSQL TokenRepository.
type PgTokenRepository struct{}

// Upsert stores the token keyed by job id; each job carries at most one.
func (PgTokenRepository) Upsert(ctx context.Context, db sqlx.ExtContext, token *domain.Token) error {
	if _, err := db.ExecContext(ctx, upsertTokenQuery,
		token.JobID(), token.Count(), token.State().String(),
	); err != nil {
		return fmt.Errorf("failed to upsert token of %q into [token]: %w", token.JobID(), err)
	}
	return nil
}

func (PgTokenRepository) GetByJobID(ctx context.Context, db sqlx.ExtContext, jobID uuid.UUID) (*TokenRow, error) {
	var row TokenRow
	if err := sqlx.GetContext(ctx, db, &row, getTokenByJobIDQuery, jobID); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select token of %q from [token]: %w", jobID, err)
	}
	return &row, nil
}
