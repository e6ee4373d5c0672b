// Package metrics provides the centralized Prometheus metrics registry for
// the Discogs collector. All metrics are defined in their respective
// packages (scheduler, cache) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the collector.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/scheduler):
//   - discogs_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - discogs_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - discogs_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, auth, not_found)
//   - discogs_request_queue_depth (Gauge): Requests waiting in the scheduler queue
//
// Retry and Pacing Metrics (pkg/scheduler):
//   - discogs_retries_total{error_class} (Counter): Retry attempts by error class
//   - discogs_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//   - discogs_rate_limit_cooldowns_total (Counter): 429-triggered worker cooldowns
//   - discogs_rate_window_waits_total (Counter): Waits for the per-minute window to roll over
//
// Cache Metrics (pkg/cache):
//   - discogs_cache_hits_total (Counter): Response cache hits
//   - discogs_cache_misses_total (Counter): Response cache misses
//   - discogs_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(discogs_cache_hits_total[5m])) /
//   (sum(rate(discogs_cache_hits_total[5m])) + sum(rate(discogs_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(discogs_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(discogs_request_duration_seconds_bucket[5m]))
//
//   # Queue Pressure
//   discogs_request_queue_depth > 50
