package repository

import (
	"context"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// RunRepository records the plan and outcome of every run.
// The pgx implementation is in pg_run_repo.go; memory_run_repo.go keeps
// history in-process when no database is configured and backs the tests.
type RunRepository interface {
	Create(ctx context.Context, r *domain.Run) error
	Finish(ctx context.Context, id string, res domain.RunResult) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, limit int) ([]*domain.Run, error)
}
