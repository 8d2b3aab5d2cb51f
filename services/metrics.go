package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	coinsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microtask",
			Subsystem: "ledger",
			Name:      "coins_moved_total",
			Help:      "Coins credited or debited, by reason.",
		},
		[]string{"direction", "reason"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microtask",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Committed workflow state transitions.",
		},
		[]string{"entity", "status"},
	)

	compensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microtask",
			Subsystem: "workflow",
			Name:      "compensations_total",
			Help:      "Compensating actions run after a failed workflow step.",
		},
		[]string{"workflow", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		coinsMoved,
		transitions,
		compensations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// MetricsHandler exposes the registered collectors.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
