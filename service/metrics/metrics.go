package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ledger query metrics
	ledgerQueriesTotal         *prometheus.CounterVec
	ledgerQueryDuration        *prometheus.HistogramVec
	ledgerDelegationsTotal     *prometheus.CounterVec
	ledgerTransactionsPerReply *prometheus.HistogramVec

	// Transaction processing metrics
	transactionsNormalizedTotal *prometheus.CounterVec
	rowsEmittedTotal            *prometheus.CounterVec
	rowsFilteredTotal           prometheus.Counter

	// NATS metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		ledgerQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_queries_total",
				Help: "Total number of ledger query calls by method and status",
			},
			[]string{"method", "status", "canister"},
		),
		ledgerQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_query_duration_seconds",
				Help:    "Duration of ledger query calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "canister"},
		),
		ledgerDelegationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_archive_delegations_total",
				Help: "Total number of archive delegations followed",
			},
			[]string{"canister"},
		),
		ledgerTransactionsPerReply: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_transactions_per_reply",
				Help:    "Number of transactions carried by a single ledger or archive reply",
				Buckets: []float64{0, 1, 10, 100, 500, 1000, 2000},
			},
			[]string{"source"},
		),

		transactionsNormalizedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_normalized_total",
				Help: "Total number of raw transactions normalized by kind and status",
			},
			[]string{"kind", "status"},
		),
		rowsEmittedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_rows_emitted_total",
				Help: "Total number of report rows written",
			},
			[]string{"format"},
		),
		rowsFilteredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "report_rows_filtered_total",
				Help: "Total number of rows dropped by jq filters",
			},
		),

		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Ledger query metric helpers

// RecordQuery records a ledger or archive query with duration.
func (m *Metrics) RecordQuery(method, status, canister string, duration float64) {
	if m == nil {
		return
	}
	m.ledgerQueriesTotal.WithLabelValues(method, status, canister).Inc()
	m.ledgerQueryDuration.WithLabelValues(method, canister).Observe(duration)
}

// RecordDelegation records an archive delegation being followed.
func (m *Metrics) RecordDelegation(canister string) {
	if m == nil {
		return
	}
	m.ledgerDelegationsTotal.WithLabelValues(canister).Inc()
}

// RecordReplySize records how many transactions a reply carried.
// source is "ledger" or "archive".
func (m *Metrics) RecordReplySize(source string, count int) {
	if m == nil {
		return
	}
	m.ledgerTransactionsPerReply.WithLabelValues(source).Observe(float64(count))
}

// Transaction processing metric helpers

// RecordNormalized records a normalization attempt.
func (m *Metrics) RecordNormalized(kind, status string) {
	if m == nil {
		return
	}
	m.transactionsNormalizedTotal.WithLabelValues(kind, status).Inc()
}

// RecordRowEmitted records a row written in the given output format.
func (m *Metrics) RecordRowEmitted(format string) {
	if m == nil {
		return
	}
	m.rowsEmittedTotal.WithLabelValues(format).Inc()
}

// RecordRowFiltered records a row dropped by a filter.
func (m *Metrics) RecordRowFiltered() {
	if m == nil {
		return
	}
	m.rowsFilteredTotal.Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	if m == nil {
		return
	}
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Push sends everything gathered so far to a Prometheus Pushgateway.
// A CLI run is too short-lived to be scraped, so metrics are pushed once at exit.
func Push(ctx context.Context, gatewayURL, job string, gatherer prometheus.Gatherer) error {
	if err := push.New(gatewayURL, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
