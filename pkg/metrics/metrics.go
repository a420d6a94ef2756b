package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learn_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learn_http_request_duration_seconds",
			Help:    "HTTP request latency distribution.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learn_db_query_duration_seconds",
			Help:    "Database query latency distribution, by operation and table.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "table"},
	)

	pointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learn_points_awarded_total",
			Help: "Total points appended to the ledger, by entry type.",
		},
		[]string{"type"},
	)

	ledgerDriftGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "learn_points_ledger_drift_users",
			Help: "Number of users whose cached points total disagrees with the ledger sum, as of the last reconciliation run.",
		},
	)
)

// Middleware collects request count and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordDBQuery records a database query observation from the GORM logger.
func RecordDBQuery(operation, table string, elapsed time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}

// RecordPointsAwarded counts points appended to the ledger.
func RecordPointsAwarded(entryType string, delta int) {
	if delta > 0 {
		pointsAwardedTotal.WithLabelValues(entryType).Add(float64(delta))
	}
}

// SetLedgerDrift publishes the user count from the last reconciliation run.
func SetLedgerDrift(users int) {
	ledgerDriftGauge.Set(float64(users))
}
