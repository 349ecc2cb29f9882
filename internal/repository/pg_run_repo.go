package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/topic-channel/internal/domain"
)

type pgRunRepository struct {
	pool *pgxpool.Pool
}

// NewPgRunRepository returns a RunRepository backed by PostgreSQL.
func NewPgRunRepository(pool *pgxpool.Pool) RunRepository {
	return &pgRunRepository{pool: pool}
}

func (r *pgRunRepository) Create(ctx context.Context, run *domain.Run) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO runs
			(id, producers, consumers, capacity, batch_size, dispatch_mode,
			 produced, consumed, outcome, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		run.ID, run.Producers, run.Consumers, run.Capacity, run.BatchSize, run.DispatchMode,
		run.Produced, run.Consumed, run.Outcome, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *pgRunRepository) Finish(ctx context.Context, id string, res domain.RunResult) error {
	var errMsg *string
	if res.Err != nil {
		s := res.Err.Error()
		errMsg = &s
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET produced = $1, consumed = $2, outcome = $3, error_message = $4, finished_at = $5
		WHERE id = $6`,
		res.Produced, res.Consumed, res.Outcome, errMsg, res.FinishedAt, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgRunRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, producers, consumers, capacity, batch_size, dispatch_mode,
		       produced, consumed, outcome, error_message, started_at, finished_at
		FROM runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

func (r *pgRunRepository) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, producers, consumers, capacity, batch_size, dispatch_mode,
		       produced, consumed, outcome, error_message, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	err := row.Scan(
		&run.ID, &run.Producers, &run.Consumers, &run.Capacity, &run.BatchSize, &run.DispatchMode,
		&run.Produced, &run.Consumed, &run.Outcome, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
