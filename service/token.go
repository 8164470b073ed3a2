package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/repository"
)

// TokenService exposes token persistence over the pool.
type TokenService struct {
	db   *sqlx.DB
	repo repository.TokenRepository
}

// NewTokenService builds the token façade over pool.
func NewTokenService(pool *sqlx.DB) *TokenService {
	return &TokenService{db: pool, repo: repository.PgTokenRepository{}}
}

func (s *TokenService) Upsert(ctx context.Context, token *domain.Token) error {
	return s.repo.Upsert(ctx, s.db, token)
}

func (s *TokenService) GetByJobID(ctx context.Context, jobID uuid.UUID) (*repository.TokenRow, error) {
	return s.repo.GetByJobID(ctx, s.db, jobID)
}
