package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/queue"
)

// Producer writes topics into the shared work queue, one at a time, pausing
// after each write.
type Producer struct {
	id     int
	q      *queue.WorkQueue
	delay  time.Duration
	logger *zap.Logger
	hooks  MetricHooks
}

func NewProducer(id int, q *queue.WorkQueue, delay time.Duration, logger *zap.Logger, hooks MetricHooks) *Producer {
	return &Producer{id: id, q: q, delay: delay, logger: logger, hooks: hooks.withDefaults()}
}

func (p *Producer) ID() int { return p.id }

// Produce enqueues t, waiting on backpressure, then pauses for the pacing
// delay. There are no retries: any failure is returned to the caller.
func (p *Producer) Produce(ctx context.Context, t domain.Topic) error {
	if err := p.q.Enqueue(ctx, t); err != nil {
		return fmt.Errorf("producer %d: %w", p.id, err)
	}
	p.hooks.OnProduced(t.Type, p.q.Len())

	if err := pace(ctx, p.delay); err != nil {
		return fmt.Errorf("producer %d pacing after topic %s: %w", p.id, t.ID, err)
	}

	p.logger.Info("topic produced",
		zap.String("topic_id", t.ID),
		zap.String("type", string(t.Type)),
		zap.String("payload", domain.DisplayForm(t)),
	)
	return nil
}

// ProduceAll produces topics in order and stops at the first failure.
func (p *Producer) ProduceAll(ctx context.Context, topics []domain.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	p.logger.Info("producer started", zap.Int("assigned", len(topics)))
	for _, t := range topics {
		if err := p.Produce(ctx, t); err != nil {
			return err
		}
	}
	p.logger.Info("producer finished", zap.Int("produced", len(topics)))
	return nil
}
