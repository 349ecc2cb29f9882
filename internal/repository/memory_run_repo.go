package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// MemoryRunRepository is an in-memory RunRepository. Used when no database is
// configured and in unit tests.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr error
	FinishErr error
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*domain.Run)}
}

func (m *MemoryRunRepository) Create(_ context.Context, r *domain.Run) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *r
	m.runs[r.ID] = &clone
	return nil
}

func (m *MemoryRunRepository) Finish(_ context.Context, id string, res domain.RunResult) error {
	if m.FinishErr != nil {
		return m.FinishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Produced = res.Produced
	r.Consumed = res.Consumed
	r.Outcome = res.Outcome
	if res.Err != nil {
		msg := res.Err.Error()
		r.ErrorMessage = &msg
	}
	finished := res.FinishedAt
	r.FinishedAt = &finished
	return nil
}

func (m *MemoryRunRepository) GetByID(_ context.Context, id string) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

// List returns the newest runs first, at most limit of them.
func (m *MemoryRunRepository) List(_ context.Context, limit int) ([]*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Run, 0, len(m.runs))
	for _, r := range m.runs {
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ RunRepository = (*MemoryRunRepository)(nil)
