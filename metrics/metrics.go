// Package metrics exports solver results as Prometheus metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/fabrik/ik"
)

const namespace = "fabrik"

// Outcome label values of fabrik_solves_total
const (
	OutcomeConverged   = "converged"
	OutcomeUnreachable = "unreachable"
	OutcomeExhausted   = "exhausted"
	OutcomeCached      = "cached"
)

// Collector is an ik.Observer recording per-chain solve metrics
type Collector struct {
	solves     *prometheus.CounterVec
	residual   *prometheus.HistogramVec
	iterations *prometheus.HistogramVec
	duration   *prometheus.HistogramVec
	lastResid  *prometheus.GaugeVec
}

var _ ik.Observer = (*Collector)(nil)

// NewCollector creates the collectors and registers them with reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	m := &Collector{
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Chain solves by outcome",
			},
			[]string{"chain", "outcome"},
		),
		residual: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "residual",
				Help:      "End effector distance to target after a solve",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"chain"},
		),
		iterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "iterations",
				Help:      "Backward/forward pass pairs per solve",
				Buckets:   prometheus.LinearBuckets(0, 5, 11),
			},
			[]string{"chain"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Time spent in one chain solve",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"chain"},
		),
		lastResid: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_residual",
				Help:      "Residual of the latest solve",
			},
			[]string{"chain"},
		),
	}

	for _, c := range []prometheus.Collector{m.solves, m.residual, m.iterations, m.duration, m.lastResid} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ChainSolved implements ik.Observer
func (m *Collector) ChainSolved(chain string, r ik.SolveResult) {
	m.solves.WithLabelValues(chain, Outcome(r)).Inc()
	m.lastResid.WithLabelValues(chain).Set(r.Residual)
	if r.Cached {
		return
	}
	m.residual.WithLabelValues(chain).Observe(r.Residual)
	m.iterations.WithLabelValues(chain).Observe(float64(r.Iterations))
	m.duration.WithLabelValues(chain).Observe(r.Elapsed.Seconds())
}

// Outcome classifies a result for the outcome label
func Outcome(r ik.SolveResult) string {
	switch {
	case r.Cached:
		return OutcomeCached
	case r.Converged:
		return OutcomeConverged
	case r.Unreachable:
		return OutcomeUnreachable
	default:
		return OutcomeExhausted
	}
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
