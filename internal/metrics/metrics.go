// Package metrics registers the Prometheus instruments the HTTP layer
// and engine increment. All counters live on one struct so tests can
// register against a private registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ScansTotal          *prometheus.CounterVec
	DuplicateScansTotal prometheus.Counter
	EvacuationsTotal    *prometheus.CounterVec
	ShiftClosesTotal    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "scans_total",
			Help:      "Scan requests by action and resulting flow.",
		}, []string{"action", "flow"}),
		DuplicateScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "duplicate_scans_total",
			Help:      "Scans suppressed as duplicate submissions.",
		}),
		EvacuationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "evacuations_total",
			Help:      "Bulk close-out runs by mode.",
		}, []string{"mode"}),
		ShiftClosesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "shift_closes_total",
			Help:      "Completed shift close operations.",
		}),
	}
	reg.MustRegister(
		m.ScansTotal,
		m.DuplicateScansTotal,
		m.EvacuationsTotal,
		m.ShiftClosesTotal,
	)
	return m
}
