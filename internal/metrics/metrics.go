package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njchilds90/goquad"
)

// ============================================================
// Prometheus metrics for integration runs
// ============================================================

// Metrics implements goquad.Observer on Prometheus collectors.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec   // labels: status
	RunDuration    *prometheus.HistogramVec // labels: status
	ResultsTotal   *prometheus.CounterVec   // labels: method, outcome
	MethodDuration *prometheus.HistogramVec // labels: method
	InvalidSamples *prometheus.CounterVec   // labels: method

	gatherer prometheus.Gatherer
}

var _ goquad.Observer = (*Metrics)(nil)

// Result outcomes.
const (
	OutcomeValid    = "valid"
	OutcomeDegraded = "degraded"
	OutcomeInvalid  = "invalid"
)

// New registers the collectors on reg under namespace. Pass a fresh
// prometheus.NewRegistry() to keep tests isolated.
func New(reg *prometheus.Registry, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Integration runs by final status",
		}, []string{"status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of integration runs",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"status"}),
		ResultsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "method",
			Name:      "results_total",
			Help:      "Per-method results by outcome",
		}, []string{"method", "outcome"}),
		MethodDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "method",
			Name:      "duration_seconds",
			Help:      "Wall time of a single quadrature method",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12),
		}, []string{"method"}),
		InvalidSamples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "method",
			Name:      "invalid_samples_total",
			Help:      "Sample points skipped because the integrand was undefined there",
		}, []string{"method"}),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveRun(status string, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	if status != goquad.StatusRejected {
		m.RunDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveResult(r goquad.Result) {
	method := r.Method.String()
	m.ResultsTotal.WithLabelValues(method, Outcome(r)).Inc()
	m.MethodDuration.WithLabelValues(method).Observe(r.Elapsed.Seconds())
	if skipped := r.Samples - r.ValidSamples; skipped > 0 {
		m.InvalidSamples.WithLabelValues(method).Add(float64(skipped))
	}
}

// Outcome classifies r for the outcome label.
func Outcome(r goquad.Result) string {
	switch {
	case !r.Valid:
		return OutcomeInvalid
	case r.Degraded():
		return OutcomeDegraded
	default:
		return OutcomeValid
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
