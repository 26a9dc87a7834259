// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledger-bank/internal/domain"
)

const namespace = "ledger_bank"

// Metrics owns a private registry so tests and multiple app instances never collide
// on the global default registry. All methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	transactionsTotal   *prometheus.CounterVec
	transactionDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New registers the application collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Ledger transactions processed, by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		transactionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_duration_seconds",
				Help:      "Time spent applying a ledger transaction, lock waits included.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served, by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency, by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveTransaction records one Apply call.
func (m *Metrics) ObserveTransaction(txType domain.TransactionType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := string(txType)
	if !txType.Valid() {
		label = "unknown"
	}
	m.transactionsTotal.WithLabelValues(label, outcome).Inc()
	m.transactionDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TransactionsTotal exposes the counter for a type/outcome pair.
func (m *Metrics) TransactionsTotal(txType domain.TransactionType, outcome string) prometheus.Counter {
	return m.transactionsTotal.WithLabelValues(string(txType), outcome)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
