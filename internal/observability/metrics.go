// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Webhook metrics
	WebhookRequests       *prometheus.CounterVec
	TransactionsProcessed prometheus.Counter
	TransfersProcessed    *prometheus.CounterVec
	ProcessingLatency     prometheus.Histogram

	// Lookup metrics
	MetadataLookups     *prometheus.CounterVec
	PriceLookups        *prometheus.CounterVec
	ExternalCallLatency *prometheus.HistogramVec
	RPCCallLatency      *prometheus.HistogramVec
	PriceGateWait       prometheus.Histogram

	// Delivery metrics
	Notifications *prometheus.CounterVec
	StreamClients prometheus.Gauge

	// Storage metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_alerts"
	}

	return &Metrics{
		WebhookRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Total number of webhook requests by response status",
		}, []string{"status"}),
		TransactionsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transactions_processed_total",
			Help:      "Total number of transactions enriched and rendered",
		}),
		TransfersProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_total",
			Help:      "Total number of transfers by outcome",
		}, []string{"outcome"}),
		ProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transaction_latency_seconds",
			Help:      "Time to enrich, render and deliver one transaction",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),

		MetadataLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "lookups_total",
			Help:      "Token metadata resolutions by result",
		}, []string{"result"}),
		PriceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "lookups_total",
			Help:      "Price resolutions by result",
		}, []string{"result"}),
		ExternalCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_latency_seconds",
			Help:      "External API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "status"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		PriceGateWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "gate_wait_seconds",
			Help:      "Time spent waiting on the shared price lookup gate",
			Buckets:   []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),

		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Alert deliveries by sink and status",
		}, []string{"sink", "status"}),
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "stream_clients",
			Help:      "Connected alert stream websocket clients",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordWebhookRequest counts a webhook request by its response status code.
func RecordWebhookRequest(status string) {
	DefaultMetrics.WebhookRequests.WithLabelValues(status).Inc()
}

// RecordTransaction records one processed transaction.
func RecordTransaction(seconds float64) {
	DefaultMetrics.TransactionsProcessed.Inc()
	DefaultMetrics.ProcessingLatency.Observe(seconds)
}

// RecordTransfer counts a transfer by outcome (enriched, fee_filtered).
func RecordTransfer(outcome string) {
	DefaultMetrics.TransfersProcessed.WithLabelValues(outcome).Inc()
}

// RecordMetadataLookup counts a metadata resolution by result.
func RecordMetadataLookup(result string) {
	DefaultMetrics.MetadataLookups.WithLabelValues(result).Inc()
}

// RecordPriceLookup counts a price resolution by result.
func RecordPriceLookup(result string) {
	DefaultMetrics.PriceLookups.WithLabelValues(result).Inc()
}

// RecordExternalCall records external API latency.
func RecordExternalCall(service, status string, seconds float64) {
	DefaultMetrics.ExternalCallLatency.WithLabelValues(service, status).Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordGateWait records time blocked on the price lookup gate.
func RecordGateWait(seconds float64) {
	DefaultMetrics.PriceGateWait.Observe(seconds)
}

// RecordNotification counts an alert delivery attempt.
func RecordNotification(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.Notifications.WithLabelValues(sink, status).Inc()
}

// SetStreamClients updates the connected stream client gauge.
func SetStreamClients(n int) {
	DefaultMetrics.StreamClients.Set(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
