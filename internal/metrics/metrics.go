package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the judging pipeline.
type Metrics struct {
	Registry *prometheus.Registry

	BatchesDispatched *prometheus.CounterVec
	BatchSize         prometheus.Histogram
	PollAttempts      prometheus.Histogram
	EngineErrors      *prometheus.CounterVec
	Verdicts          *prometheus.CounterVec
	JudgeDuration     *prometheus.HistogramVec
	ActiveJudgements  prometheus.Gauge
}

// New creates and registers all collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		BatchesDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "judge",
				Name:      "batches_dispatched_total",
				Help:      "Batches submitted to the execution engine by pipeline.",
			},
			[]string{"pipeline"},
		),

		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "judge",
				Name:      "batch_size",
				Help:      "Number of executions per dispatched batch.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			},
		),

		PollAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "judge",
				Name:      "poll_attempts",
				Help:      "Status queries issued before a batch became terminal.",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
			},
		),

		EngineErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "judge",
				Name:      "engine_errors_total",
				Help:      "Execution engine failures by operation.",
			},
			[]string{"operation"},
		),

		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "judge",
				Name:      "verdicts_total",
				Help:      "Aggregated verdicts by language and status.",
			},
			[]string{"language", "status"},
		),

		JudgeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "judge",
				Name:      "duration_seconds",
				Help:      "Wall time from dispatch to verdict.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"pipeline"},
		),

		ActiveJudgements: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "judge",
				Name:      "active_judgements",
				Help:      "Pipelines currently waiting on the execution engine.",
			},
		),
	}

	reg.MustRegister(
		m.BatchesDispatched,
		m.BatchSize,
		m.PollAttempts,
		m.EngineErrors,
		m.Verdicts,
		m.JudgeDuration,
		m.ActiveJudgements,
	)

	return m
}

// The Record helpers tolerate a nil receiver so metrics stay optional.

func (m *Metrics) RecordDispatch(pipeline string, size int) {
	if m == nil {
		return
	}
	m.BatchesDispatched.WithLabelValues(pipeline).Inc()
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) RecordPollAttempts(attempts int) {
	if m == nil {
		return
	}
	m.PollAttempts.Observe(float64(attempts))
}

func (m *Metrics) RecordEngineError(operation string) {
	if m == nil {
		return
	}
	m.EngineErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordVerdict(language, status string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(language, status).Inc()
}

func (m *Metrics) ObserveJudge(pipeline string, seconds float64) {
	if m == nil {
		return
	}
	m.JudgeDuration.WithLabelValues(pipeline).Observe(seconds)
}

func (m *Metrics) TrackActive(delta float64) {
	if m == nil {
		return
	}
	m.ActiveJudgements.Add(delta)
}
