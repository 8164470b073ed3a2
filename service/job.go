package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/repository"
)

// JobService exposes job persistence over the pool.
type JobService struct {
	db   *sqlx.DB
	repo repository.JobRepository
}

// NewJobService builds the job façade over pool.
func NewJobService(pool *sqlx.DB) *JobService {
	return &JobService{db: pool, repo: repository.PgJobRepository{}}
}

func (s *JobService) Create(ctx context.Context, job *domain.Job) error {
	return s.repo.Create(ctx, s.db, job)
}

func (s *JobService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.repo.Delete(ctx, s.db, id)
}

func (s *JobService) GetByID(ctx context.Context, id uuid.UUID) (*repository.JobRow, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

func (s *JobService) GetWorkflowID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	return s.repo.GetWorkflowID(ctx, s.db, id)
}
