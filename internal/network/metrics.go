package network

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts resource network operations by outcome.
type Metrics struct {
	Ops     *prometheus.CounterVec
	Latency *prometheus.HistogramVec
}

// NewMetrics registers the network collectors against reg, defaulting to the
// global Prometheus registry when nil. Registering twice reuses the existing
// collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resource_network_ops_total",
		Help: "Resource network operations, labeled by op (get/set) and outcome (ok or fail reason).",
	}, []string{"op", "outcome"})
	ops, err := registerCounterVec(reg, ops, "resource_network_ops_total")
	if err != nil {
		return nil, err
	}

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resource_network_op_duration_seconds",
		Help:    "Resource network operation latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"op"})
	latency, err = registerHistogramVec(reg, latency, "resource_network_op_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{Ops: ops, Latency: latency}, nil
}

func (m *Metrics) observe(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(ReasonOf(err))
	}
	m.Ops.WithLabelValues(op, outcome).Inc()
	m.Latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
