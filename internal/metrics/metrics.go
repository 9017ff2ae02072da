// Package metrics holds the Prometheus collectors shared by the service,
// repository and worker layers. Collectors are usable before Register is
// called; registering only exposes them on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "maderera"

var (
	registerOnce sync.Once

	// MovimientosTotal counts ledger requests by tipo and outcome
	// (ok | rechazado | error).
	MovimientosTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movimientos_total",
		Help:      "Stock movements processed by the ledger, by tipo and result.",
	}, []string{"tipo", "resultado"})

	// LedgerTxRetries counts transactions re-run after a serialization
	// failure or deadlock.
	LedgerTxRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_tx_retries_total",
		Help:      "Transactions retried after a Postgres conflict.",
	})

	DocumentosTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documentos_total",
		Help:      "Documents created, by tipo.",
	}, []string{"tipo"})

	// PrecioCacheTotal counts quote lookups by cache result
	// (hit | miss | error | off).
	PrecioCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "precio_cache_total",
		Help:      "Price quote cache lookups, by result.",
	}, []string{"resultado"})

	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_total",
		Help:      "Background jobs processed, by type and result.",
	}, []string{"type", "result"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})
)

// Register adds every collector to reg (the default registerer when nil).
// Safe to call more than once.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			MovimientosTotal,
			LedgerTxRetries,
			DocumentosTotal,
			PrecioCacheTotal,
			JobsTotal,
			HTTPRequestsTotal,
			HTTPRequestDuration,
		)
	})
}
