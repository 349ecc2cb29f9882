// Package orchestrator sizes a run, wires the queue to the producer and
// consumer pools, and sequences the close, drain and cancel handshake.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/queue"
	"github.com/notifyhub/topic-channel/internal/random"
	"github.com/notifyhub/topic-channel/internal/repository"
	"github.com/notifyhub/topic-channel/internal/worker"
)

// TopicSource supplies the topics of a batch.
type TopicSource interface {
	Batch(n int) []domain.Topic
}

// Options configures every run started by an Orchestrator.
type Options struct {
	Limits
	// BatchSize of 0 produces as many topics as the queue holds.
	BatchSize   int
	Mode        domain.DispatchMode
	ProducePace time.Duration
	ConsumePace time.Duration
}

// Hooks carries the metric callbacks injected by main. Nil fields are no-ops.
type Hooks struct {
	Worker     worker.MetricHooks
	OnPlanned  func(domain.Plan)
	OnFinished func(domain.Outcome, time.Duration)
}

// Orchestrator runs batches end to end. Runs may be started one after
// another; Snapshot always describes the latest one.
type Orchestrator struct {
	opts     Options
	rnd      *random.Bounded
	source   TopicSource
	repo     repository.RunRepository
	delivery *worker.Delivery
	logger   *zap.Logger
	hooks    Hooks

	mu      sync.RWMutex
	current *runState
}

// New constructs an Orchestrator. delivery may be nil.
func New(
	opts Options,
	rnd *random.Bounded,
	source TopicSource,
	repo repository.RunRepository,
	delivery *worker.Delivery,
	logger *zap.Logger,
	hooks Hooks,
) *Orchestrator {
	if hooks.OnPlanned == nil {
		hooks.OnPlanned = func(domain.Plan) {}
	}
	if hooks.OnFinished == nil {
		hooks.OnFinished = func(domain.Outcome, time.Duration) {}
	}
	return &Orchestrator{
		opts: opts, rnd: rnd, source: source, repo: repo,
		delivery: delivery, logger: logger, hooks: hooks,
	}
}

// Plan draws the sizes of the next run.
func (o *Orchestrator) Plan() domain.Plan {
	sizing := Size(o.rnd, o.opts.Limits)
	batch := o.opts.BatchSize
	if batch == 0 {
		batch = sizing.Capacity
	}
	return domain.Plan{Sizing: sizing, BatchSize: batch, Mode: o.opts.Mode}
}

// Run plans and executes one run.
func (o *Orchestrator) Run(ctx context.Context) (*domain.Run, error) {
	return o.Execute(ctx, o.Plan())
}

// Execute runs plan to completion and returns its record.
//
// The returned error is nil on success, wraps domain.ErrRunCancelled and the
// context cause when ctx ended the run before the queue drained, and wraps
// the producer failure otherwise.
func (o *Orchestrator) Execute(ctx context.Context, plan domain.Plan) (*domain.Run, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	q, err := queue.New(plan.Capacity)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	run := &domain.Run{
		ID:           uuid.New().String(),
		Producers:    plan.Producers,
		Consumers:    plan.Consumers,
		Capacity:     plan.Capacity,
		BatchSize:    plan.BatchSize,
		DispatchMode: plan.Mode,
		Outcome:      domain.OutcomeRunning,
		StartedAt:    started.UTC(),
	}
	log := o.logger.With(zap.String("run_id", run.ID))

	if err := o.repo.Create(ctx, run); err != nil {
		log.Warn("failed to record run start", zap.Error(err))
	}

	st := newRunState(run.ID, plan, q)
	o.setCurrent(st)
	o.hooks.OnPlanned(plan)

	log.Info("run planned",
		zap.Int("producers", plan.Producers),
		zap.Int("consumers", plan.Consumers),
		zap.Int("capacity", plan.Capacity),
		zap.Int("batch_size", plan.BatchSize),
		zap.String("dispatch_mode", string(plan.Mode)),
	)

	hooks := st.countingHooks(o.hooks.Worker)

	// One cancellation signal shared by every worker of the run.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumers := worker.NewConsumerPool(plan.Consumers, q, o.opts.ConsumePace, o.delivery, log, hooks)
	// Deliveries follow ctx, not runCtx: the post-drain cancel must not
	// abort the send of a topic that was already consumed.
	consumers.StartDelivering(runCtx, ctx)
	st.setPhase(domain.PhaseQueueOpen)

	prodErr := o.produce(runCtx, q, plan, log, hooks, st)

	drained := false
	if prodErr == nil {
		st.setPhase(domain.PhaseDraining)
		select {
		case <-q.Drained():
			drained = true
			log.Info("consumption of topics finished")
		case <-runCtx.Done():
			select {
			case <-q.Drained():
				drained = true
				log.Info("consumption of topics finished")
			default:
			}
		}
	}

	st.setPhase(domain.PhaseCancelling)
	cancel()
	consumers.Wait()
	st.setPhase(domain.PhaseTerminated)

	res := domain.RunResult{
		Produced:   st.produced(),
		Consumed:   st.consumed(),
		FinishedAt: time.Now().UTC(),
	}
	switch {
	case prodErr == nil && drained:
		res.Outcome = domain.OutcomeSucceeded
	case ctx.Err() != nil:
		res.Outcome = domain.OutcomeCancelled
		res.Err = fmt.Errorf("%w: %w", domain.ErrRunCancelled, context.Cause(ctx))
	default:
		res.Outcome = domain.OutcomeFailed
		res.Err = fmt.Errorf("production failed: %w", prodErr)
	}

	if err := o.repo.Finish(context.WithoutCancel(ctx), run.ID, res); err != nil {
		log.Warn("failed to record run outcome", zap.Error(err))
	}
	o.hooks.OnFinished(res.Outcome, time.Since(started))

	run.Produced, run.Consumed, run.Outcome = res.Produced, res.Consumed, res.Outcome
	run.FinishedAt = &res.FinishedAt
	if res.Err != nil {
		msg := res.Err.Error()
		run.ErrorMessage = &msg
	}

	fields := []zap.Field{zap.Int("produced", res.Produced), zap.Int("consumed", res.Consumed)}
	switch res.Outcome {
	case domain.OutcomeSucceeded:
		log.Info("execution finished successfully", fields...)
	case domain.OutcomeCancelled:
		log.Warn("execution was cancelled", append(fields, zap.Error(res.Err))...)
	default:
		log.Error("execution failed", append(fields, zap.Error(res.Err))...)
	}

	return run, res.Err
}

// produce generates the batch, spreads it over the producer pool, waits for
// every producer and then closes the queue. The queue is closed on every
// path so consumers never wait on a queue nobody will write to.
func (o *Orchestrator) produce(
	ctx context.Context,
	q *queue.WorkQueue,
	plan domain.Plan,
	log *zap.Logger,
	hooks worker.MetricHooks,
	st *runState,
) error {
	defer func() {
		st.setPhase(domain.PhaseClosing)
		q.Close()
	}()

	topics := o.source.Batch(plan.BatchSize)
	groups, err := worker.Distribute(plan.Mode, topics, plan.Producers)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for i, assigned := range groups {
		p := worker.NewProducer(i, q, o.opts.ProducePace, log.With(zap.Int("producer_id", i)), hooks)
		g.Go(func() error {
			return p.ProduceAll(ctx, assigned)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("production of topics finished", zap.Int("topics", len(topics)))
	return nil
}

func (o *Orchestrator) setCurrent(st *runState) {
	o.mu.Lock()
	o.current = st
	o.mu.Unlock()
}

// Snapshot describes the latest run. ok is false before the first run.
func (o *Orchestrator) Snapshot() (snap Snapshot, ok bool) {
	o.mu.RLock()
	st := o.current
	o.mu.RUnlock()
	if st == nil {
		return Snapshot{}, false
	}
	return st.snapshot(), true
}
