package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// WorkQueue is a fixed-capacity FIFO of topics shared by every producer and
// consumer of a run.
//
// Enqueue blocks while the queue is full and Dequeue blocks while it is empty,
// both until the context is done. Close is one-shot: it wakes blocked senders
// with ErrQueueClosed, lets consumers take what is left, and once the last
// item is gone Dequeue reports ErrQueueDrained and Drained() fires.
type WorkQueue struct {
	ch      chan domain.Topic
	closing chan struct{}
	drained chan struct{}

	// sendMu is held for reading by senders and for writing by Close, so the
	// channel is never closed under an in-flight send.
	sendMu sync.RWMutex
	sealed atomic.Bool

	closeOnce sync.Once
	drainOnce sync.Once
}

// New returns an open queue holding at most capacity topics.
func New(capacity int) (*WorkQueue, error) {
	if capacity < 1 {
		return nil, domain.ErrInvalidCapacity
	}
	return &WorkQueue{
		ch:      make(chan domain.Topic, capacity),
		closing: make(chan struct{}),
		drained: make(chan struct{}),
	}, nil
}

// Enqueue appends t, waiting for a free slot if the queue is full.
// It returns ErrQueueClosed if the queue is closed before t is accepted.
func (q *WorkQueue) Enqueue(ctx context.Context, t domain.Topic) error {
	select {
	case <-q.closing:
		return domain.ErrQueueClosed
	default:
	}

	q.sendMu.RLock()
	defer q.sendMu.RUnlock()

	// Re-check under the lock: Close may have started while we waited.
	select {
	case <-q.closing:
		return domain.ErrQueueClosed
	default:
	}

	select {
	case q.ch <- t:
		return nil
	case <-q.closing:
		return domain.ErrQueueClosed
	case <-ctx.Done():
		return fmt.Errorf("enqueue topic %s: %w", t.ID, ctx.Err())
	}
}

// Dequeue removes the oldest topic, waiting while the queue is empty and open.
// Returns ErrQueueDrained once the queue is closed and empty. A waiting topic
// or the drained state is reported even if ctx is already done.
func (q *WorkQueue) Dequeue(ctx context.Context) (domain.Topic, error) {
	if t, ok, ready := q.tryReceive(); ready {
		return q.received(t, ok)
	}

	select {
	case t, ok := <-q.ch:
		return q.received(t, ok)
	case <-ctx.Done():
		if t, ok, ready := q.tryReceive(); ready {
			return q.received(t, ok)
		}
		return domain.Topic{}, fmt.Errorf("dequeue: %w", ctx.Err())
	}
}

func (q *WorkQueue) tryReceive() (t domain.Topic, ok, ready bool) {
	select {
	case t, ok = <-q.ch:
		return t, ok, true
	default:
		return domain.Topic{}, false, false
	}
}

func (q *WorkQueue) received(t domain.Topic, ok bool) (domain.Topic, error) {
	if !ok {
		q.markDrained()
		return domain.Topic{}, domain.ErrQueueDrained
	}
	if q.sealed.Load() && len(q.ch) == 0 {
		q.markDrained()
	}
	return t, nil
}

// Close marks the queue as complete. Safe to call more than once.
func (q *WorkQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.closing)

		q.sendMu.Lock()
		close(q.ch)
		q.sealed.Store(true)
		q.sendMu.Unlock()

		if len(q.ch) == 0 {
			q.markDrained()
		}
	})
}

// Drained returns a channel that is closed once the queue is closed and empty.
func (q *WorkQueue) Drained() <-chan struct{} {
	return q.drained
}

// Closed reports whether Close has been called.
func (q *WorkQueue) Closed() bool {
	select {
	case <-q.closing:
		return true
	default:
		return false
	}
}

// Len returns the number of topics currently waiting.
func (q *WorkQueue) Len() int { return len(q.ch) }

// Cap returns the fixed capacity.
func (q *WorkQueue) Cap() int { return cap(q.ch) }

func (q *WorkQueue) markDrained() {
	q.drainOnce.Do(func() { close(q.drained) })
}
