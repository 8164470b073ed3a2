package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/repository"
)

// RunService exposes run persistence over the pool.
type RunService struct {
	db   *sqlx.DB
	repo repository.RunRepository
}

// NewRunService builds the run façade over pool.
func NewRunService(pool *sqlx.DB) *RunService {
	return &RunService{db: pool, repo: repository.PgRunRepository{}}
}

func (s *RunService) Create(ctx context.Context, run *domain.Run) error {
	return s.repo.Create(ctx, s.db, run)
}

func (s *RunService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.repo.Delete(ctx, s.db, id)
}

func (s *RunService) GetByID(ctx context.Context, id uuid.UUID) (*repository.RunRow, error) {
	return s.repo.GetByID(ctx, s.db, id)
}
