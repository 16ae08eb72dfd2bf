package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Calculation outcomes, used as the "outcome" label.
const (
	OutcomeOK         = "ok"
	OutcomeDegenerate = "degenerate"
	OutcomeInvalid    = "invalid"
)

// Metrics holds the planner's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Calculations          *prometheus.CounterVec
	CalculationDuration   prometheus.Histogram
	RateSearchEvaluations prometheus.Histogram
}

// NewMetrics registers a fresh set of collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Calculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "amortization",
				Name:      "calculations_total",
				Help:      "Plan calculations by outcome.",
			},
			[]string{"outcome"},
		),
		CalculationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amortization",
			Name:      "calculation_duration_seconds",
			Help:      "Time spent scheduling and calculating a plan.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		RateSearchEvaluations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amortization",
			Name:      "rate_search_evaluations",
			Help:      "NPV evaluations made by the effective rate search.",
			Buckets:   prometheus.LinearBuckets(25, 25, 8),
		}),
	}
}

// ObserveCalculation records one Plan call. evaluations is ignored unless
// the outcome is OutcomeOK.
func (m *Metrics) ObserveCalculation(outcome string, elapsed time.Duration, evaluations int) {
	m.Calculations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeInvalid {
		return
	}
	m.CalculationDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeOK {
		m.RateSearchEvaluations.Observe(float64(evaluations))
	}
}

// Registry exposes the underlying registry, e.g. for a custom gatherer.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile dumps all collectors in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
