package client

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/chronos/pkg/apperr"
)

// Prometheus metrics for retry operations.
var (
	upstreamRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_upstream_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	upstreamRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronos_upstream_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	upstreamRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_upstream_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// backoff returns the wait before retry number attempt (zero based):
// min(initial * 2^attempt, maxBackoff).
func backoff(attempt int, initial, maxBackoff time.Duration) time.Duration {
	d := initial
	for i := 0; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryWithBackoff runs fn up to 1+MaxRetries times. Only retryable classes
// are retried; on exhaustion the last error is returned unchanged.
func (c *Client) retryWithBackoff(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				c.logger.Info().
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		errorClass := classify(err)
		if !shouldRetry(errorClass) {
			return lastErr
		}

		if attempt >= c.config.MaxRetries {
			upstreamRetryExhaustedTotal.WithLabelValues(string(errorClass)).Inc()
			c.logger.Warn().
				Str("error_class", string(errorClass)).
				Int("max_retries", c.config.MaxRetries).
				Msg("Retry attempts exhausted")
			return lastErr
		}

		wait := backoff(attempt, c.config.InitialBackoff, c.config.MaxBackoff)
		upstreamRetriesTotal.WithLabelValues(string(errorClass)).Inc()
		upstreamRetryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(wait.Seconds())

		c.logger.Debug().
			Str("error_class", string(errorClass)).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		if err := c.sleep(ctx, wait); err != nil {
			c.logger.Warn().
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return apperr.Transport(err)
		}
	}
}
