// Package metric defines the Prometheus instrumentation shared by the
// datapoint client packages. Metrics are plain collectors owned by a
// [Metrics] value; callers decide which registry (if any) they are
// registered on, so library code never touches a global registerer.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all client-level collectors.
type Metrics struct {
	// ProbesTotal counts reachability probes by outcome
	// (all, local-only, unreachable, error).
	ProbesTotal *prometheus.CounterVec

	// FetchAttemptsTotal counts individual reference-document fetch
	// attempts, including retried ones.
	FetchAttemptsTotal prometheus.Counter

	// FetchFailuresTotal counts reference-document fetches that
	// exhausted their retry budget.
	FetchFailuresTotal prometheus.Counter

	// DatasetsOpened counts successful dataset opens by cloud format.
	DatasetsOpened *prometheus.CounterVec
}

// New creates the collector set. Pass a nil registerer to keep the
// collectors unregistered (useful in tests).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datapoint",
				Subsystem: "resolver",
				Name:      "probes_total",
				Help:      "Reachability probes by outcome",
			},
			[]string{"outcome"},
		),
		FetchAttemptsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "datapoint",
				Subsystem: "kerchunk",
				Name:      "fetch_attempts_total",
				Help:      "Reference document fetch attempts",
			},
		),
		FetchFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "datapoint",
				Subsystem: "kerchunk",
				Name:      "fetch_failures_total",
				Help:      "Reference document fetches that exhausted retries",
			},
		),
		DatasetsOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datapoint",
				Subsystem: "cloud",
				Name:      "datasets_opened_total",
				Help:      "Successful dataset opens by cloud format",
			},
			[]string{"format"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.ProbesTotal,
			m.FetchAttemptsTotal,
			m.FetchFailuresTotal,
			m.DatasetsOpened,
		)
	}
	return m
}

// Probe records a probe outcome. Safe on a nil receiver so callers can
// leave instrumentation unconfigured.
func (m *Metrics) Probe(outcome string) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(outcome).Inc()
}

// FetchAttempt records one fetch attempt.
func (m *Metrics) FetchAttempt() {
	if m == nil {
		return
	}
	m.FetchAttemptsTotal.Inc()
}

// FetchFailure records an exhausted fetch.
func (m *Metrics) FetchFailure() {
	if m == nil {
		return
	}
	m.FetchFailuresTotal.Inc()
}

// DatasetOpened records a successful open for the given cloud format.
func (m *Metrics) DatasetOpened(format string) {
	if m == nil {
		return
	}
	m.DatasetsOpened.WithLabelValues(format).Inc()
}
