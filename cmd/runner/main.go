package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/topic-channel/internal/api"
	"github.com/notifyhub/topic-channel/internal/config"
	"github.com/notifyhub/topic-channel/internal/db"
	"github.com/notifyhub/topic-channel/internal/generator"
	"github.com/notifyhub/topic-channel/internal/metrics"
	"github.com/notifyhub/topic-channel/internal/orchestrator"
	"github.com/notifyhub/topic-channel/internal/provider"
	"github.com/notifyhub/topic-channel/internal/random"
	"github.com/notifyhub/topic-channel/internal/ratelimiter"
	"github.com/notifyhub/topic-channel/internal/repository"
	"github.com/notifyhub/topic-channel/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Error("failed to load config", zap.Error(err))
		_ = boot.Sync()
		return 2
	}

	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- run history ----
	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open run history", zap.Error(err))
		return 1
	}
	defer closeRepo()

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	rnd := random.NewFromTime()
	if cfg.RandomSeed != 0 {
		rnd = random.New(cfg.RandomSeed)
	}

	onProduced, onConsumed, onDeliveryFailed := m.WorkerHooks()
	onPlanned, onFinished := m.RunHooks()

	orch := orchestrator.New(
		orchestrator.Options{
			Limits: orchestrator.Limits{
				MaxProducers:  cfg.MaxProducers,
				MaxConsumers:  cfg.MaxConsumers,
				MaxBufferSize: cfg.MaxBufferSize,
			},
			BatchSize:   cfg.BatchSize,
			Mode:        cfg.DispatchMode,
			ProducePace: cfg.ProducePace,
			ConsumePace: cfg.ConsumePace,
		},
		rnd,
		generator.NewFactory(rnd),
		repo,
		newDelivery(cfg),
		logger,
		orchestrator.Hooks{
			Worker: worker.MetricHooks{
				OnProduced:       onProduced,
				OnConsumed:       onConsumed,
				OnDeliveryFailed: onDeliveryFailed,
			},
			OnPlanned:  onPlanned,
			OnFinished: onFinished,
		},
	)

	// ---- HTTP server ----
	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      api.NewRouter(orch, repo, reg, logger),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}
		go func() {
			logger.Info("server starting", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server error", zap.Error(err))
			}
		}()
	}

	// ---- runs ----
	sched := orchestrator.NewScheduler(orch, cfg.RunCount, cfg.RunInterval, cfg.RunTimeout, logger)
	runs, runErr := sched.Loop(ctx)

	// ---- graceful shutdown ----
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("runner stopped after a failed run", zap.Int("runs", runs), zap.Error(runErr))
		return 1
	}
	logger.Info("runner stopped cleanly", zap.Int("runs", runs))
	return 0
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openRepository selects Postgres when DATABASE_URL is set and falls back to
// an in-memory history otherwise.
func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.RunRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no DATABASE_URL set, keeping run history in memory")
		return repository.NewMemoryRunRepository(), func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("database migrations applied")
	return repository.NewPgRunRepository(pool), closePool(pool), nil
}

func closePool(pool *pgxpool.Pool) func() { return pool.Close }

func newDelivery(cfg *config.Config) *worker.Delivery {
	switch cfg.SendMode {
	case config.SendStub:
		return &worker.Delivery{Sender: provider.NewStubSender()}
	case config.SendWebhook:
		return &worker.Delivery{
			Sender:  provider.NewWebhookSender(cfg.ProviderBaseURL, cfg.ProviderTimeout),
			Limiter: ratelimiter.New(cfg.SendRate),
		}
	default:
		return nil
	}
}
