// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vidshare_uploads_total",
		Help: "Total number of upload requests by outcome",
	}, []string{"status"})

	uploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidshare_upload_bytes_total",
		Help: "Total bytes written to object storage by uploads",
	})

	viewerDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vidshare_viewer_decisions_total",
		Help: "Viewer requests by policy outcome",
	}, []string{"action"})

	clicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidshare_clicks_total",
		Help: "Total number of counted redirect clicks",
	})

	storageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidshare_storage_operation_duration_seconds",
		Help:    "Duration of object storage operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"provider", "operation", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidshare_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Registry is the registry served on /metrics. It also carries the Go and
// process collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		uploadsTotal,
		uploadBytes,
		viewerDecisions,
		clicksTotal,
		storageDuration,
		httpDuration,
	)
}

// RecordUpload counts an upload outcome ("success", "missing_file", "invalid", "too_large", "failed").
func RecordUpload(status string, size int64) {
	uploadsTotal.WithLabelValues(status).Inc()
	if size > 0 {
		uploadBytes.Add(float64(size))
	}
}

// RecordViewerDecision counts one viewer policy outcome.
func RecordViewerDecision(action string) {
	viewerDecisions.WithLabelValues(action).Inc()
}

// RecordClick counts one redirect click.
func RecordClick() {
	clicksTotal.Inc()
}

// RecordStorageOperation observes one object-store call.
func RecordStorageOperation(provider, operation string, ok bool, d time.Duration) {
	status := "success"
	if !ok {
		status = "failed"
	}
	storageDuration.WithLabelValues(provider, operation, status).Observe(d.Seconds())
}

// GinMiddleware observes request latency labelled by route template, so
// /video/:id is one series regardless of id.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
