package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes search progress to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	Evaluations prometheus.Counter
	Failures    prometheus.Counter
	Generation  prometheus.Gauge
	BestFitness prometheus.Gauge
	EvalSeconds prometheus.Histogram
}

// NewMetrics creates the search collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounter(prometheus.CounterOpts{
			Name: "firm_search_evaluations_total",
			Help: "Objective evaluations completed, including failures.",
		}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Name: "firm_search_failed_evaluations_total",
			Help: "Objective evaluations that returned an error.",
		}),
		Generation: f.NewGauge(prometheus.GaugeOpts{
			Name: "firm_search_generation",
			Help: "Current differential evolution generation.",
		}),
		BestFitness: f.NewGauge(prometheus.GaugeOpts{
			Name: "firm_search_best_fitness",
			Help: "Lowest fitness in the population.",
		}),
		EvalSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "firm_search_evaluation_seconds",
			Help:    "Wall time of one objective evaluation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

func (m *Metrics) observeEvaluation(seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.Evaluations.Inc()
	m.EvalSeconds.Observe(seconds)
	if failed {
		m.Failures.Inc()
	}
}

func (m *Metrics) observeGeneration(gen int, best float64) {
	if m == nil {
		return
	}
	m.Generation.Set(float64(gen))
	m.BestFitness.Set(best)
}
