// Package metrics exposes the Prometheus HTTP handler.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, history) and register on the default registry via promauto.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Acquisition Metrics (pkg/history):
//   - chronos_acquisitions_total{outcome} (Counter): Acquisitions by outcome
//     (cache_hit, fetched, or the apperr kind of the failure)
//   - chronos_acquisition_duration_seconds (Histogram): End-to-end acquisition duration
//
// Rate Limit Metrics (pkg/ratelimit):
//   - chronos_rate_limit_checks_total{resource, result} (Counter): Checks by result (allowed, limited)
//
// Cache Metrics (pkg/cache):
//   - chronos_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - chronos_cache_misses_total{layer} (Counter): Cache misses by layer
//   - chronos_cache_evictions_total (Counter): LRU evictions from the memory store
//   - chronos_cache_errors_total{operation} (Counter): Redis operation errors
//
// Upstream Metrics (pkg/client):
//   - chronos_upstream_requests_total{status} (Counter): Attempts by HTTP status or network_error
//   - chronos_upstream_request_duration_seconds (Histogram): Per-attempt duration
//   - chronos_upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - chronos_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - chronos_upstream_retry_exhausted_total{error_class} (Counter): Calls that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(chronos_cache_hits_total[5m])) /
//   (sum(rate(chronos_cache_hits_total[5m])) + sum(rate(chronos_cache_misses_total[5m])))
//
//   # Rate Limited Share
//   sum(rate(chronos_rate_limit_checks_total{result="limited"}[5m])) /
//   sum(rate(chronos_rate_limit_checks_total[5m]))
//
//   # Upstream Error Rate
//   sum(rate(chronos_upstream_requests_total{status!="200"}[5m]))
//
//   # P95 Acquisition Latency
//   histogram_quantile(0.95, rate(chronos_acquisition_duration_seconds_bucket[5m]))
