package orchestrator

import (
	"sync"
	"sync/atomic"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/queue"
	"github.com/notifyhub/topic-channel/internal/worker"
)

// Snapshot is a point-in-time view of a run, served by the HTTP API.
type Snapshot struct {
	RunID         string       `json:"run_id"`
	Phase         domain.Phase `json:"phase"`
	Plan          domain.Plan  `json:"plan"`
	QueueDepth    int          `json:"queue_depth"`
	QueueCapacity int          `json:"queue_capacity"`
	QueueClosed   bool         `json:"queue_closed"`
	Produced      int          `json:"produced"`
	Consumed      int          `json:"consumed"`
}

type runState struct {
	id   string
	plan domain.Plan
	q    *queue.WorkQueue

	mu    sync.RWMutex
	phase domain.Phase

	nProduced atomic.Int64
	nConsumed atomic.Int64
}

func newRunState(id string, plan domain.Plan, q *queue.WorkQueue) *runState {
	return &runState{id: id, plan: plan, q: q, phase: domain.PhaseSizing}
}

func (s *runState) setPhase(p domain.Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *runState) produced() int { return int(s.nProduced.Load()) }
func (s *runState) consumed() int { return int(s.nConsumed.Load()) }

// countingHooks wraps h so the run keeps its own produced/consumed tally.
func (s *runState) countingHooks(h worker.MetricHooks) worker.MetricHooks {
	onProduced, onConsumed := h.OnProduced, h.OnConsumed
	h.OnProduced = func(t domain.MessageType, depth int) {
		s.nProduced.Add(1)
		if onProduced != nil {
			onProduced(t, depth)
		}
	}
	h.OnConsumed = func(t domain.MessageType, depth int) {
		s.nConsumed.Add(1)
		if onConsumed != nil {
			onConsumed(t, depth)
		}
	}
	return h
}

func (s *runState) snapshot() Snapshot {
	s.mu.RLock()
	phase := s.phase
	s.mu.RUnlock()
	return Snapshot{
		RunID:         s.id,
		Phase:         phase,
		Plan:          s.plan,
		QueueDepth:    s.q.Len(),
		QueueCapacity: s.q.Cap(),
		QueueClosed:   s.q.Closed(),
		Produced:      s.produced(),
		Consumed:      s.consumed(),
	}
}
