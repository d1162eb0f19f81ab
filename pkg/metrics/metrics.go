package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Components that skip entries while walking an owner's notes.
const (
	ComponentTree       = "tree"
	ComponentSearch     = "search"
	ComponentReconciler = "reconciler"
)

// Reasons an entry was skipped.
const (
	ReasonPermission = "permission"
	ReasonSymlink    = "symlink"
	ReasonTooLarge   = "too_large"
	ReasonNotText    = "not_text"
	ReasonReadError  = "read_error"
)

var (
	SkippedEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_skipped_entries_total",
			Help: "Entries skipped while walking owner notes",
		},
		[]string{"component", "reason"},
	)

	MetadataSyncFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_metadata_sync_failures_total",
			Help: "Filesystem mutations whose metadata update failed",
		},
		[]string{"operation"},
	)

	ReconciledRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_reconciled_records_total",
			Help: "File records removed because their file no longer exists",
		},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Skipped records an entry that a traversal passed over.
func Skipped(component, reason string) {
	SkippedEntries.WithLabelValues(component, reason).Inc()
}

// SyncFailed records a metadata update that failed after its filesystem
// mutation had already been applied.
func SyncFailed(operation string) {
	MetadataSyncFailures.WithLabelValues(operation).Inc()
}

// Middleware records request counts and latency keyed by the matched route
// so path parameters don't explode the label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			var ee *errcodes.Error
			switch {
			case errors.As(err, &ee):
				status = ee.HTTPCode
			case errors.As(err, &he):
				status = he.Code
			case err != nil:
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			RequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			RequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RegisterRoutes exposes the default registry at /metrics.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
