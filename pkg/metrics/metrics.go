// Package metrics exposes Prometheus collectors for command traffic, ask
// outcomes and worker pool load. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ftkevon/mineclanker/pkg/worker"
)

const namespace = "mineclanker"

// Ask outcomes used as the "outcome" label.
const (
	OutcomeOK            = "ok"
	OutcomeNotConfigured = "not_configured"
	OutcomeInvalid       = "invalid"
	OutcomeUpstream      = "upstream_error"
	OutcomeRejected      = "rejected"
	OutcomeThrottled     = "throttled"
)

var _ worker.Observer = (*Metrics)(nil)

// Metrics groups the collectors.
type Metrics struct {
	commands     *prometheus.CounterVec
	asks         *prometheus.CounterVec
	askDuration  prometheus.Histogram
	queueWait    prometheus.Histogram
	jobsActive   prometheus.Gauge
	jobsRejected prometheus.Counter
}

// MustNew constructs Metrics and registers it with reg, panicking on
// duplicate registration. A nil reg means prometheus.DefaultRegisterer.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled, by command name.",
		}, []string{"command"}),
		asks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Questions asked, by outcome.",
		}, []string{"outcome"}),
		askDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ask_duration_seconds",
			Help:      "Time spent waiting on the completion API.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}),
		queueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "queue_wait_seconds",
			Help:      "Time a job waited for a free worker.",
			Buckets:   prometheus.DefBuckets,
		}),
		jobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "jobs_active",
			Help:      "Jobs currently running.",
		}),
		jobsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "jobs_rejected_total",
			Help:      "Jobs refused because the queue was full.",
		}),
	}

	reg.MustRegister(m.commands, m.asks, m.askDuration, m.queueWait, m.jobsActive, m.jobsRejected)

	return m
}

// Command counts one handled command.
func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

// Ask records the outcome of one question. elapsed is ignored for outcomes
// that never reached the API.
func (m *Metrics) Ask(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.asks.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomeUpstream {
		m.askDuration.Observe(elapsed.Seconds())
	}
}

// JobRejected implements worker.Observer.
func (m *Metrics) JobRejected() {
	if m == nil {
		return
	}
	m.jobsRejected.Inc()
}

// JobStarted implements worker.Observer.
func (m *Metrics) JobStarted(wait time.Duration) {
	if m == nil {
		return
	}
	m.jobsActive.Inc()
	m.queueWait.Observe(wait.Seconds())
}

// JobFinished implements worker.Observer.
func (m *Metrics) JobFinished(time.Duration, error) {
	if m == nil {
		return
	}
	m.jobsActive.Dec()
}
