// Package ratelimit implements sliding-window request budgets keyed by
// resource and identifier. It is a soft, best-effort guard: state is not
// persisted across restarts in the memory implementation.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for rate limit decisions.
var (
	rateLimitChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_rate_limit_checks_total",
		Help: "Total rate limit checks by resource and result",
	}, []string{"resource", "result"})
)

const (
	resultAllowed = "allowed"
	resultLimited = "limited"
)

// Limiter gates requests with a sliding window.
type Limiter interface {
	// CheckLimit reports whether identifier has exhausted maxRequests for
	// resource within the trailing window. An allowed call is recorded;
	// a limited one is not.
	CheckLimit(ctx context.Context, identifier, resource string, maxRequests int, window time.Duration) (limited bool, err error)

	// Remaining reports how many requests are left in the current window
	// without recording anything.
	Remaining(ctx context.Context, identifier, resource string, maxRequests int, window time.Duration) (int, error)
}

// Key builds the storage key for a resource/identifier pair.
func Key(resource, identifier string) string {
	return resource + ":" + identifier
}

func observe(resource string, limited bool) {
	result := resultAllowed
	if limited {
		result = resultLimited
	}
	rateLimitChecksTotal.WithLabelValues(resource, result).Inc()
}
