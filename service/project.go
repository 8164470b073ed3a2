// Package service binds the repositories to the shared connection pool. Each
// service is a thin façade: one method per repository operation, passing the
// pool as the statement executor. Handlers talk to services, never to
// repositories directly.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/kotosiro/kotosiro/domain"
	"github.com/kotosiro/kotosiro/repository"
)

// ProjectService exposes project persistence over the pool.
type ProjectService struct {
	db   *sqlx.DB
	repo repository.ProjectRepository
}

// NewProjectService builds the project façade over pool.
func NewProjectService(pool *sqlx.DB) *ProjectService {
	return &ProjectService{db: pool, repo: repository.PgProjectRepository{}}
}

func (s *ProjectService) Create(ctx context.Context, project *domain.Project) error {
	return s.repo.Create(ctx, s.db, project)
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.repo.Delete(ctx, s.db, id)
}

func (s *ProjectService) List(ctx context.Context, limit *int64) ([]repository.ProjectRow, error) {
	return s.repo.List(ctx, s.db, limit)
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*repository.ProjectRow, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

func (s *ProjectService) GetByName(ctx context.Context, name string) (*repository.ProjectRow, error) {
	return s.repo.GetByName(ctx, s.db, name)
}

func (s *ProjectService) GetSummaryByID(ctx context.Context, id uuid.UUID) (*repository.ProjectSummaryRow, error) {
	return s.repo.GetSummaryByID(ctx, s.db, id)
}

func (s *ProjectService) GetConfigByID(ctx context.Context, id uuid.UUID) (types.JSONText, error) {
	return s.repo.GetConfigByID(ctx, s.db, id)
}

func (s *ProjectService) ListWorkflowsByID(ctx context.Context, id uuid.UUID, name, after *string, limit *int64) ([]repository.WorkflowSummaryRow, error) {
	return s.repo.ListWorkflowsByID(ctx, s.db, id, name, after, limit)
}
