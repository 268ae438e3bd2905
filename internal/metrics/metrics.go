// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	InvoiceSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_syncs_total",
			Help: "Invoice sync attempts by platform and outcome.",
		},
		[]string{"platform", "result"},
	)

	InvoiceSyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invoice_sync_duration_seconds",
			Help:    "End to end invoice sync latency by platform.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"platform"},
	)

	InvoiceEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_emails_total",
			Help: "Invoice emails by delivery outcome.",
		},
		[]string{"status"},
	)
)
