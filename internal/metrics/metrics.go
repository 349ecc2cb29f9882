package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	TopicsProduced   *prometheus.CounterVec
	TopicsConsumed   *prometheus.CounterVec
	DeliveriesFailed *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
	QueueCapacity    prometheus.Gauge
	Workers          *prometheus.GaugeVec
	Runs             *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TopicsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "topics_produced_total",
			Help: "Total number of topics accepted by the work queue.",
		}, []string{"type"}),

		TopicsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "topics_consumed_total",
			Help: "Total number of topics taken off the work queue.",
		}, []string{"type"}),

		DeliveriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "topic_deliveries_failed_total",
			Help: "Total number of consumed topics the outbound sender rejected.",
		}, []string{"type"}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of topics waiting in the work queue.",
		}),
		QueueCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_capacity",
			Help: "Capacity of the current run's work queue.",
		}),
		Workers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workers",
			Help: "Pool size of the current run by role.",
		}, []string{"role"}),

		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runs_total",
			Help: "Completed runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "run_duration_seconds",
			Help:    "Wall-clock duration of a run from sizing to termination.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.TopicsProduced,
		m.TopicsConsumed,
		m.DeliveriesFailed,
		m.QueueDepth,
		m.QueueCapacity,
		m.Workers,
		m.Runs,
		m.RunDuration,
	)

	return m
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
// Centralises the prometheus observation calls so the worker package stays import-free.
func (m *Metrics) WorkerHooks() (
	onProduced func(domain.MessageType, int),
	onConsumed func(domain.MessageType, int),
	onDeliveryFailed func(domain.MessageType),
) {
	onProduced = func(t domain.MessageType, depth int) {
		m.TopicsProduced.WithLabelValues(string(t)).Inc()
		m.QueueDepth.Set(float64(depth))
	}
	onConsumed = func(t domain.MessageType, depth int) {
		m.TopicsConsumed.WithLabelValues(string(t)).Inc()
		m.QueueDepth.Set(float64(depth))
	}
	onDeliveryFailed = func(t domain.MessageType) {
		m.DeliveriesFailed.WithLabelValues(string(t)).Inc()
	}
	return
}

// RunHooks returns the callbacks expected by orchestrator.RunHooks.
func (m *Metrics) RunHooks() (
	onPlanned func(domain.Plan),
	onFinished func(domain.Outcome, time.Duration),
) {
	onPlanned = func(p domain.Plan) {
		m.QueueCapacity.Set(float64(p.Capacity))
		m.QueueDepth.Set(0)
		m.Workers.WithLabelValues("producer").Set(float64(p.Producers))
		m.Workers.WithLabelValues("consumer").Set(float64(p.Consumers))
	}
	onFinished = func(o domain.Outcome, d time.Duration) {
		m.Runs.WithLabelValues(string(o)).Inc()
		m.RunDuration.Observe(d.Seconds())
	}
	return
}
