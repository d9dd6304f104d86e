// Package metrics exposes Prometheus instrumentation for toolforge.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the toolforge collectors.
type Metrics struct {
	validations   *prometheus.CounterVec
	invocations   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	registered    *prometheus.GaugeVec
	bootstrapRuns *prometheus.CounterVec
}

// New registers the collectors on registerer; nil means the default
// registerer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolforge_validations_total",
				Help: "Candidate tool submissions by outcome (accepted or violation kind)",
			},
			[]string{"outcome"},
		),
		invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolforge_invocations_total",
				Help: "Tool invocations by tool, origin and status",
			},
			[]string{"tool", "origin", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolforge_invocation_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 15, 30},
			},
			[]string{"origin"},
		),
		registered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "toolforge_registered_tools",
				Help: "Number of callable tools by origin",
			},
			[]string{"origin"},
		),
		bootstrapRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolforge_bootstrap_tools_total",
				Help: "Tools processed by bootstrap reconciliation by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveValidation counts one submission; outcome is "accepted" or a
// violation kind.
func (m *Metrics) ObserveValidation(outcome string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// ObserveInvocation counts one invocation. status is "success" or a
// failure kind.
func (m *Metrics) ObserveInvocation(tool, origin, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(tool, origin, status).Inc()
	m.duration.WithLabelValues(origin).Observe(d.Seconds())
}

// SetRegistered sets the callable tool count for an origin.
func (m *Metrics) SetRegistered(origin string, count int) {
	if m == nil {
		return
	}
	m.registered.WithLabelValues(origin).Set(float64(count))
}

// ObserveBootstrap records bootstrap results ("loaded", "skipped", "removed").
func (m *Metrics) ObserveBootstrap(result string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.bootstrapRuns.WithLabelValues(result).Add(float64(count))
}
