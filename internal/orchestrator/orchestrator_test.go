package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/generator"
	"github.com/notifyhub/topic-channel/internal/orchestrator"
	"github.com/notifyhub/topic-channel/internal/provider"
	"github.com/notifyhub/topic-channel/internal/random"
	"github.com/notifyhub/topic-channel/internal/ratelimiter"
	"github.com/notifyhub/topic-channel/internal/repository"
	"github.com/notifyhub/topic-channel/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	orch *orchestrator.Orchestrator
	repo *repository.MemoryRunRepository
	logs *observer.ObservedLogs
}

func newHarness(opts orchestrator.Options) *harness {
	return newDeliveringHarness(opts, nil, orchestrator.Hooks{})
}

func newDeliveringHarness(opts orchestrator.Options, delivery *worker.Delivery, hooks orchestrator.Hooks) *harness {
	core, logs := observer.New(zap.InfoLevel)
	rnd := random.New(1)
	repo := repository.NewMemoryRunRepository()
	orch := orchestrator.New(opts, rnd, generator.NewFactory(rnd), repo, delivery, zap.New(core), hooks)
	return &harness{orch: orch, repo: repo, logs: logs}
}

func fastOptions(mode domain.DispatchMode) orchestrator.Options {
	return orchestrator.Options{
		Limits:      orchestrator.Limits{MaxProducers: 3, MaxConsumers: 3, MaxBufferSize: 6},
		Mode:        mode,
		ProducePace: time.Millisecond,
		ConsumePace: time.Millisecond,
	}
}

func plan(producers, consumers, capacity, batch int, mode domain.DispatchMode) domain.Plan {
	return domain.Plan{
		Sizing:    domain.Sizing{Producers: producers, Consumers: consumers, Capacity: capacity},
		BatchSize: batch,
		Mode:      mode,
	}
}

// indexes returns the positions of log entries with the given message.
func indexes(logs *observer.ObservedLogs, msg string) []int {
	var out []int
	for i, e := range logs.All() {
		if e.Message == msg {
			out = append(out, i)
		}
	}
	return out
}

func TestExecute_TwoProducersThreeConsumers(t *testing.T) {
	for _, mode := range []domain.DispatchMode{domain.DispatchRoundRobin, domain.DispatchLiteral} {
		t.Run(string(mode), func(t *testing.T) {
			h := newHarness(fastOptions(mode))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			run, err := h.orch.Execute(ctx, plan(2, 3, 5, 5, mode))
			require.NoError(t, err)
			require.Equal(t, domain.OutcomeSucceeded, run.Outcome)
			require.Equal(t, 5, run.Produced)
			require.Equal(t, 5, run.Consumed)

			produced := indexes(h.logs, "topic produced")
			consumed := indexes(h.logs, "topic consumed")
			success := indexes(h.logs, "execution finished successfully")
			require.Len(t, produced, 5)
			require.Len(t, consumed, 5)
			require.Len(t, success, 1)
			for _, i := range append(produced, consumed...) {
				require.Less(t, i, success[0])
			}

			seen := map[string]bool{}
			for _, e := range h.logs.FilterMessage("topic consumed").All() {
				id := e.ContextMap()["topic_id"].(string)
				require.False(t, seen[id], "topic %s consumed twice", id)
				seen[id] = true
			}
			require.Len(t, seen, 5)
		})
	}
}

// slowSender records every delivery and whether its context was already
// cancelled when the send started.
type slowSender struct {
	mu        sync.Mutex
	delivered map[string]int
	cancelled int
}

func (s *slowSender) Send(ctx context.Context, t domain.Topic) (*provider.SendResponse, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		s.cancelled++
		return nil, ctx.Err()
	}
	s.delivered[t.ID]++
	return &provider.SendResponse{MessageID: t.Message.ID}, nil
}

func TestExecute_DeliversEveryConsumedTopic(t *testing.T) {
	s := &slowSender{delivered: map[string]int{}}
	var failed atomic.Int32
	h := newDeliveringHarness(
		fastOptions(domain.DispatchRoundRobin),
		&worker.Delivery{Sender: s, Limiter: ratelimiter.New(1000)},
		orchestrator.Hooks{Worker: worker.MetricHooks{
			OnDeliveryFailed: func(domain.MessageType) { failed.Add(1) },
		}},
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run, err := h.orch.Execute(ctx, plan(2, 3, 5, 5, domain.DispatchRoundRobin))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSucceeded, run.Outcome)
	require.Equal(t, 5, run.Consumed)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Zero(t, s.cancelled)
	require.Zero(t, failed.Load())
	require.Len(t, s.delivered, 5)
	for id, n := range s.delivered {
		require.Equal(t, 1, n, "topic %s delivered %d times", id, n)
	}
}

func TestExecute_DrainedRunSucceedsDespiteLateCancel(t *testing.T) {
	// An empty batch drains at once; a parent that is already done must not
	// turn the run into a cancellation.
	for range 20 {
		h := newHarness(fastOptions(domain.DispatchRoundRobin))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run, err := h.orch.Execute(ctx, plan(1, 2, 2, 0, domain.DispatchRoundRobin))
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeSucceeded, run.Outcome)
	}
}

func TestExecute_RoundRobinUsesEveryProducer(t *testing.T) {
	h := newHarness(fastOptions(domain.DispatchRoundRobin))
	_, err := h.orch.Execute(context.Background(), plan(3, 2, 6, 6, domain.DispatchRoundRobin))
	require.NoError(t, err)

	perProducer := map[int64]int{}
	for _, e := range h.logs.FilterMessage("topic produced").All() {
		perProducer[e.ContextMap()["producer_id"].(int64)]++
	}
	require.Equal(t, map[int64]int{0: 2, 1: 2, 2: 2}, perProducer)
}

func TestExecute_LiteralUsesSingleProducer(t *testing.T) {
	h := newHarness(fastOptions(domain.DispatchLiteral))
	_, err := h.orch.Execute(context.Background(), plan(3, 2, 6, 6, domain.DispatchLiteral))
	require.NoError(t, err)

	perProducer := map[int64]int{}
	for _, e := range h.logs.FilterMessage("topic produced").All() {
		perProducer[e.ContextMap()["producer_id"].(int64)]++
	}
	// factor = 6%3+1 = 1, index = 6%1 = 0
	require.Equal(t, map[int64]int{0: 6}, perProducer)
}

func TestExecute_EmptyBatch(t *testing.T) {
	h := newHarness(fastOptions(domain.DispatchRoundRobin))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run, err := h.orch.Execute(ctx, plan(2, 4, 3, 0, domain.DispatchRoundRobin))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSucceeded, run.Outcome)
	require.Zero(t, run.Produced)
	require.Zero(t, run.Consumed)
	require.Zero(t, h.logs.FilterMessage("topic consumed").Len())
	require.Equal(t, 4, h.logs.FilterMessage("consumer finished, queue drained").Len())
	require.Equal(t, 1, h.logs.FilterMessage("execution finished successfully").Len())
}

func TestExecute_TimeoutBeforeProductionCompletes(t *testing.T) {
	opts := fastOptions(domain.DispatchRoundRobin)
	opts.ProducePace = time.Hour
	h := newHarness(opts)

	ctx, cancel := context.WithTimeoutCause(context.Background(), 50*time.Millisecond, domain.ErrRunTimeout)
	defer cancel()

	start := time.Now()
	run, err := h.orch.Execute(ctx, plan(2, 2, 4, 4, domain.DispatchRoundRobin))
	require.Less(t, time.Since(start), 5*time.Second)

	require.ErrorIs(t, err, domain.ErrRunCancelled)
	require.ErrorIs(t, err, domain.ErrRunTimeout)
	require.Equal(t, domain.OutcomeCancelled, run.Outcome)
	require.Zero(t, h.logs.FilterMessage("execution finished successfully").Len())
	require.Equal(t, 1, h.logs.FilterMessage("execution was cancelled").Len())

	stored, err := h.repo.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCancelled, stored.Outcome)
	require.NotNil(t, stored.ErrorMessage)
}

func TestExecute_TimeoutBeforeDrain(t *testing.T) {
	opts := fastOptions(domain.DispatchRoundRobin)
	opts.ProducePace = 0
	opts.ConsumePace = time.Hour
	h := newHarness(opts)

	ctx, cancel := context.WithTimeoutCause(context.Background(), 50*time.Millisecond, domain.ErrRunTimeout)
	defer cancel()

	run, err := h.orch.Execute(ctx, plan(1, 1, 5, 5, domain.DispatchRoundRobin))
	require.ErrorIs(t, err, domain.ErrRunCancelled)
	require.Equal(t, domain.OutcomeCancelled, run.Outcome)
	require.Equal(t, 5, run.Produced)
	require.Equal(t, 1, run.Consumed)
}

func TestExecute_ParentCancelled(t *testing.T) {
	opts := fastOptions(domain.DispatchRoundRobin)
	opts.ProducePace = time.Hour
	h := newHarness(opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := h.orch.Execute(ctx, plan(1, 1, 2, 2, domain.DispatchRoundRobin))
	require.ErrorIs(t, err, domain.ErrRunCancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExecute_InvalidPlan(t *testing.T) {
	h := newHarness(fastOptions(domain.DispatchRoundRobin))
	_, err := h.orch.Execute(context.Background(), plan(0, 1, 1, 1, domain.DispatchRoundRobin))
	require.ErrorIs(t, err, domain.ErrInvalidSizing)
}

func TestExecute_HistoryFailureDoesNotFailRun(t *testing.T) {
	h := newHarness(fastOptions(domain.DispatchRoundRobin))
	h.repo.CreateErr = errors.New("db down")
	h.repo.FinishErr = errors.New("db down")

	run, err := h.orch.Execute(context.Background(), plan(1, 1, 2, 2, domain.DispatchRoundRobin))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSucceeded, run.Outcome)
	require.Equal(t, 1, h.logs.FilterMessage("failed to record run start").Len())
	require.Equal(t, 1, h.logs.FilterMessage("failed to record run outcome").Len())
}

func TestRun_PlansWithinLimits(t *testing.T) {
	h := newHarness(fastOptions(domain.DispatchRoundRobin))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run, err := h.orch.Run(ctx)
	require.NoError(t, err)
	require.LessOrEqual(t, run.Producers, 3)
	require.LessOrEqual(t, run.Consumers, 3)
	require.Equal(t, run.Capacity, run.BatchSize, "batch defaults to queue capacity")
	require.Equal(t, run.BatchSize, run.Consumed)

	stored, err := h.repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSucceeded, stored.Outcome)
	require.Equal(t, run.Consumed, stored.Consumed)
}

func TestPlan_FixedBatchSize(t *testing.T) {
	opts := fastOptions(domain.DispatchLiteral)
	opts.BatchSize = 11
	h := newHarness(opts)

	p := h.orch.Plan()
	require.Equal(t, 11, p.BatchSize)
	require.Equal(t, domain.DispatchLiteral, p.Mode)
	require.NoError(t, p.Validate())
}

func TestSnapshot(t *testing.T) {
	h := newHarness(fastOptions(domain.DispatchRoundRobin))
	_, ok := h.orch.Snapshot()
	require.False(t, ok)

	run, err := h.orch.Execute(context.Background(), plan(2, 2, 3, 3, domain.DispatchRoundRobin))
	require.NoError(t, err)

	snap, ok := h.orch.Snapshot()
	require.True(t, ok)
	require.Equal(t, run.ID, snap.RunID)
	require.Equal(t, domain.PhaseTerminated, snap.Phase)
	require.Equal(t, 3, snap.QueueCapacity)
	require.Zero(t, snap.QueueDepth)
	require.True(t, snap.QueueClosed)
	require.Equal(t, 3, snap.Produced)
	require.Equal(t, 3, snap.Consumed)
}
