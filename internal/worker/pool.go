package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/topic-channel/internal/queue"
)

// ConsumerPool manages the lifecycle of all consumers of a run.
// Every consumer competes for the same work queue.
type ConsumerPool struct {
	consumers []*Consumer
	wg        sync.WaitGroup
}

// NewConsumerPool creates n identical consumers bound to q.
func NewConsumerPool(
	n int,
	q *queue.WorkQueue,
	delay time.Duration,
	delivery *Delivery,
	logger *zap.Logger,
	hooks MetricHooks,
) *ConsumerPool {
	consumers := make([]*Consumer, n)
	for i := range consumers {
		consumers[i] = NewConsumer(
			i, q, delay, delivery,
			logger.With(zap.Int("consumer_id", i)),
			hooks,
		)
	}
	return &ConsumerPool{consumers: consumers}
}

func (p *ConsumerPool) Size() int { return len(p.consumers) }

// Start launches all consumers as goroutines.
// The provided ctx is forwarded to every consumer; cancelling it stops
// the consumers that are still running.
func (p *ConsumerPool) Start(ctx context.Context) {
	p.StartDelivering(ctx, ctx)
}

// StartDelivering is Start with a separate delivery context, so that
// cancelling ctx after the queue drains does not abort in-flight deliveries.
func (p *ConsumerPool) StartDelivering(ctx, deliverCtx context.Context) {
	for _, c := range p.consumers {
		p.wg.Add(1)
		go func(c *Consumer) {
			defer p.wg.Done()
			c.Serve(ctx, deliverCtx)
		}(c)
	}
}

// Wait blocks until every consumer has returned.
func (p *ConsumerPool) Wait() {
	p.wg.Wait()
}
