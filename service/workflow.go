package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/repository"
)

// WorkflowService exposes workflow persistence over the pool.
type WorkflowService struct {
	db   *sqlx.DB
	repo repository.WorkflowRepository
}

// NewWorkflowService builds the workflow façade over pool.
func NewWorkflowService(pool *sqlx.DB) *WorkflowService {
	return &WorkflowService{db: pool, repo: repository.PgWorkflowRepository{}}
}

func (s *WorkflowService) Create(ctx context.Context, workflow *domain.Workflow) error {
	return s.repo.Create(ctx, s.db, workflow)
}

func (s *WorkflowService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.repo.Delete(ctx, s.db, id)
}

func (s *WorkflowService) GetByID(ctx context.Context, id uuid.UUID) (*repository.WorkflowRow, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

func (s *WorkflowService) GetProjectID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	return s.repo.GetProjectID(ctx, s.db, id)
}
