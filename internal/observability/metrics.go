// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Mint lifecycle metrics
	MintTransitions  *prometheus.CounterVec
	MintOutcomes     *prometheus.CounterVec
	MintConfirmation prometheus.Histogram
	Notifications    *prometheus.CounterVec

	// Contract metrics
	ContractReads *prometheus.CounterVec
	TotalMinted   prometheus.Gauge
	PollErrors    prometheus.Counter

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec

	// Stream metrics
	WSClients prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPoll prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "where_money_moves"
	}

	return &Metrics{
		MintTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "transitions_total",
			Help:      "Total number of mint lifecycle transitions by target state",
		}, []string{"state"}),
		MintOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "outcomes_total",
			Help:      "Total number of settled or rejected mint attempts by outcome",
		}, []string{"outcome"}),
		MintConfirmation: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "confirmation_seconds",
			Help:      "Time from submission to settlement in seconds",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 45},
		}),
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "notifications_total",
			Help:      "Total number of user notifications by severity",
		}, []string{"severity"}),

		ContractReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "reads_total",
			Help:      "Total number of contract reads by function and cache result",
		}, []string{"function", "cache"}),
		TotalMinted: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "total_minted",
			Help:      "Last polled collection-wide minted count",
		}),
		PollErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "poll_errors_total",
			Help:      "Total number of failed supply polls",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evm",
			Name:      "rpc_call_latency_seconds",
			Help:      "EVM JSON-RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "websocket_clients",
			Help:      "Number of connected notification stream clients",
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

		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of last successful supply poll",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordMintTransition counts a lifecycle transition into state.
func RecordMintTransition(state string) {
	DefaultMetrics.MintTransitions.WithLabelValues(state).Inc()
}

// RecordMintOutcome counts a mint outcome (succeeded, inferred, failed, timed_out,
// quota_exceeded, not_connected, wrong_network, ...).
func RecordMintOutcome(outcome string) {
	DefaultMetrics.MintOutcomes.WithLabelValues(outcome).Inc()
}

// RecordConfirmationDuration records the time from submission to settlement.
func RecordConfirmationDuration(d time.Duration) {
	DefaultMetrics.MintConfirmation.Observe(d.Seconds())
}

// RecordNotification counts a user notification.
func RecordNotification(severity string) {
	DefaultMetrics.Notifications.WithLabelValues(severity).Inc()
}

// RecordContractRead counts a contract read served from cache or chain.
func RecordContractRead(function string, cached bool) {
	label := "miss"
	if cached {
		label = "hit"
	}
	DefaultMetrics.ContractReads.WithLabelValues(function, label).Inc()
}

// RecordPoll records the outcome of one supply poll.
func RecordPoll(totalMinted uint64, err error) {
	if err != nil {
		DefaultMetrics.PollErrors.Inc()
		return
	}
	DefaultMetrics.TotalMinted.Set(float64(totalMinted))
	DefaultMetrics.LastSuccessfulPoll.Set(float64(time.Now().Unix()))
}

// SetWSClients updates the connected stream clients gauge.
func SetWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
