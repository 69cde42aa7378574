package synth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "synthkit"

// Metrics holds the dispatcher's Prometheus collectors.
type Metrics struct {
	// DispatchTotal counts dispatches.
	// Labels: backend, outcome (realizable, unrealizable, invalid_system, ...)
	DispatchTotal *prometheus.CounterVec

	// DispatchDuration measures the whole dispatch including the engine call.
	// Labels: backend
	DispatchDuration *prometheus.HistogramVec

	// PrunedStates observes how many states pruning removed per dispatch.
	PrunedStates prometheus.Histogram

	// PrunePasses observes the SCC passes needed to reach the fixed point.
	PrunePasses prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to keep runs isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DispatchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dispatch_total",
				Help:      "Total synthesis dispatches by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		DispatchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Synthesis dispatch duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
			},
			[]string{"backend"},
		),
		PrunedStates: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pruned_states",
			Help:      "States removed by SCC pruning per dispatch",
			Buckets:   []float64{0, 1, 2, 5, 10, 50, 100, 1000},
		}),
		PrunePasses: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "prune_passes",
			Help:      "SCC passes per dispatch until no state was removable",
			Buckets:   []float64{1, 2, 3, 5, 10},
		}),
	}
}
