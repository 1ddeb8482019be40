// Package telemetry provides application-level observability for the policy auditor.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served on the side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<AUDITOR_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template)
//   - Audit pipeline outcomes and end-to-end duration
//   - Model calls, fallbacks and token consumption per model
//   - Degradation counters (retrieval, response parsing, lost usage records)
//   - Per-model rpm/tpm gauges refreshed by the usage gauge job
//   - Database connection pool gauge (polled every 30 s)
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// The path label holds the Gin route template (e.g. /admin/users/:id/password),
// not the raw URL, to keep cardinality bounded.
//
// Example PromQL queries:
//   - Error rate (%):   sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 per route:    histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)
)

// Audit pipeline metrics.
//
// AuditsTotal is labelled by outcome: success, validation, account, quota,
// rate_limited, provider_error.
//
// Example PromQL queries:
//   - Quota rejections/hour:  increase(auditor_audits_total{outcome="quota"}[1h])
//   - p95 audit latency:      histogram_quantile(0.95, rate(auditor_audit_duration_seconds_bucket[15m]))
var (
	AuditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditor_audits_total",
			Help: "Total number of audit attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	AuditDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auditor_audit_duration_seconds",
			Help:    "End-to-end duration of successful audits.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		},
	)
)

// Model metrics.
//
// ModelCallsTotal counts every generation attempt by model, provider and
// outcome (success, rate_limited, error). ModelFallbacksTotal counts requests
// that reached the fallback hop. ModelTokensTotal accumulates reported usage by
// model and kind (prompt, completion).
var (
	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditor_model_calls_total",
			Help: "Total number of generation calls, by model, provider and outcome.",
		},
		[]string{"model", "provider", "outcome"},
	)

	ModelFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_model_fallbacks_total",
			Help: "Total number of requests served or attempted by the fallback model.",
		},
	)

	ModelTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditor_model_tokens_total",
			Help: "Total tokens reported by generation providers, by model and kind.",
		},
		[]string{"model", "kind"},
	)

	ModelRequestsPerMinute = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auditor_model_requests_per_minute",
			Help: "Usage records per model in the trailing stats window.",
		},
		[]string{"model"},
	)

	ModelTokensPerMinute = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auditor_model_tokens_per_minute",
			Help: "Summed tokens per model in the trailing stats window.",
		},
		[]string{"model"},
	)
)

// Degradation counters. None of these fail a request; an increase means an
// audit was served with reduced fidelity or its accounting was lost.
var (
	RetrievalDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_retrieval_degraded_total",
			Help: "Audits that proceeded with empty legal context because retrieval failed.",
		},
	)

	ParseDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_parse_degraded_total",
			Help: "Model responses that could not be parsed and were replaced by the neutral fallback.",
		},
	)

	UsageRecordsLostTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_usage_records_lost_total",
			Help: "Usage records that failed to persist after a successful model call.",
		},
	)

	// BackgroundPanicsTotal counts panics recovered by safego, by task name.
	BackgroundPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditor_background_panics_total",
			Help: "Panics recovered in background tasks.",
		},
		[]string{"task"},
	)
)

// KnowledgeChunksIngestedTotal counts chunks written to the knowledge store, by source kind (pdf, markdown).
var KnowledgeChunksIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auditor_knowledge_chunks_ingested_total",
		Help: "Total knowledge chunks ingested, by source kind.",
	},
	[]string{"source"},
)

// DBOpenConnections tracks open connections in the sql.DB pool, sampled every
// 30 seconds by StartDBStatsCollector.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector samples sql.DB pool statistics every 30 seconds. The
// goroutine exits once the database stops answering pings, which happens when
// the server closes the pool on shutdown.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
