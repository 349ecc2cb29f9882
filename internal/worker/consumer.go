package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/provider"
	"github.com/notifyhub/topic-channel/internal/queue"
	"github.com/notifyhub/topic-channel/internal/ratelimiter"
)

// Delivery is the optional outbound hook run for every consumed topic.
// Limiter may be nil.
type Delivery struct {
	Sender  provider.Sender
	Limiter *ratelimiter.TypeLimiters
}

// Consumer is a single goroutine that drains the work queue until it is
// closed and empty, or until its context is cancelled.
type Consumer struct {
	id       int
	q        *queue.WorkQueue
	delay    time.Duration
	delivery *Delivery
	logger   *zap.Logger
	hooks    MetricHooks
}

// NewConsumer constructs a consumer. delivery may be nil.
func NewConsumer(
	id int,
	q *queue.WorkQueue,
	delay time.Duration,
	delivery *Delivery,
	logger *zap.Logger,
	hooks MetricHooks,
) *Consumer {
	return &Consumer{
		id: id, q: q, delay: delay, delivery: delivery,
		logger: logger, hooks: hooks.withDefaults(),
	}
}

// Run blocks until the queue is drained or ctx is cancelled.
// Cancellation is logged here and never reported to the caller.
func (c *Consumer) Run(ctx context.Context) {
	c.Serve(ctx, ctx)
}

// Serve is Run with a separate context for delivery. Cancelling ctx stops
// dequeueing and pacing; a topic already taken is still delivered under
// deliverCtx.
func (c *Consumer) Serve(ctx, deliverCtx context.Context) {
	c.logger.Info("consumer started", zap.Time("at", time.Now()))

	consumed := 0
	for {
		t, err := c.q.Dequeue(ctx)
		if errors.Is(err, domain.ErrQueueDrained) {
			c.logger.Info("consumer finished, queue drained", zap.Int("consumed", consumed))
			return
		}
		if err != nil {
			c.logger.Warn("consumer cancelled", zap.Int("consumed", consumed), zap.Error(err))
			return
		}

		consumed++
		c.hooks.OnConsumed(t.Type, c.q.Len())
		c.logger.Info("topic consumed",
			zap.String("topic_id", t.ID),
			zap.String("type", string(t.Type)),
			zap.String("payload", domain.DisplayForm(t)),
		)

		c.deliver(deliverCtx, t)

		if err := pace(ctx, c.delay); err != nil {
			c.logger.Warn("consumer cancelled", zap.Int("consumed", consumed), zap.Error(err))
			return
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, t domain.Topic) {
	if c.delivery == nil || c.delivery.Sender == nil {
		return
	}
	log := c.logger.With(zap.String("topic_id", t.ID), zap.String("type", string(t.Type)))

	if c.delivery.Limiter != nil {
		if err := c.delivery.Limiter.Wait(ctx, t.Type); err != nil {
			log.Warn("delivery skipped", zap.Error(err))
			c.hooks.OnDeliveryFailed(t.Type)
			return
		}
	}

	resp, err := c.delivery.Sender.Send(ctx, t)
	if err != nil {
		log.Warn("delivery failed", zap.Error(err))
		c.hooks.OnDeliveryFailed(t.Type)
		return
	}
	log.Debug("topic delivered", zap.String("provider_msg_id", resp.MessageID))
}
