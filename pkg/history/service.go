// Package history orchestrates acquisition of "on this day" feeds: rate
// gate, input validation, cache probe, remote fetch, validation,
// sanitization and cache write-back.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/chronos/pkg/apperr"
	"github.com/Sternrassler/chronos/pkg/cache"
	"github.com/Sternrassler/chronos/pkg/feed"
	"github.com/Sternrassler/chronos/pkg/ratelimit"
)

// Prometheus metrics for acquisitions.
var (
	acquisitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_acquisitions_total",
		Help: "Total feed acquisitions by outcome",
	}, []string{"outcome"})

	acquisitionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chronos_acquisition_duration_seconds",
		Help:    "Feed acquisition duration in seconds",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

const (
	outcomeCacheHit = "cache_hit"
	outcomeFetched  = "fetched"
)

// Pipeline stages, used as the "stage" log field.
const (
	stageRateLimit  = "rate_limit"
	stageValidate   = "validate_input"
	stageCacheRead  = "cache_read"
	stageFetch      = "fetch"
	stageSchema     = "schema"
	stageSanitize   = "sanitize"
	stageCacheWrite = "cache_write"
	stageDone       = "done"
)

// Fetcher retrieves the raw upstream payload for a date.
type Fetcher interface {
	FetchOnThisDay(ctx context.Context, month, day int) ([]byte, error)
}

// Config holds the acquisition policy.
type Config struct {
	// Rate gate
	Identifier  string
	Resource    string
	MaxRequests int
	Window      time.Duration

	// CacheTTL for sanitized feeds.
	CacheTTL time.Duration

	// MaxEvents per collection after sanitization.
	MaxEvents int

	// CacheWriteNonFatal downgrades write-back failures to a warning.
	CacheWriteNonFatal bool
}

// DefaultConfig returns the default acquisition policy.
func DefaultConfig() Config {
	return Config{
		Identifier:  "anonymous",
		Resource:    "fetch-history",
		MaxRequests: 30,
		Window:      60 * time.Second,
		CacheTTL:    cache.StrategyHistoryData,
		MaxEvents:   feed.DefaultMaxEvents,
	}
}

// Service acquires sanitized feeds.
type Service struct {
	limiter   ratelimit.Limiter
	store     cache.Store
	fetcher   Fetcher
	sanitizer *feed.Sanitizer
	config    Config
	logger    zerolog.Logger
}

// New creates a Service. All collaborators are required.
func New(cfg Config, limiter ratelimit.Limiter, store cache.Store, fetcher Fetcher, logger zerolog.Logger) (*Service, error) {
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.MaxRequests <= 0 {
		return nil, fmt.Errorf("max_requests must be > 0 (got %d)", cfg.MaxRequests)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("window must be > 0 (got %s)", cfg.Window)
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = feed.DefaultMaxEvents
	}

	return &Service{
		limiter:   limiter,
		store:     store,
		fetcher:   fetcher,
		sanitizer: feed.NewSanitizer(feed.WithMaxEvents(cfg.MaxEvents)),
		config:    cfg,
		logger:    logger.With().Str("component", "history").Logger(),
	}, nil
}

// AcquireFeed returns the sanitized feed for month/day. Every failure is an
// *apperr.Error whose kind is preserved from the stage that produced it.
func (s *Service) AcquireFeed(ctx context.Context, month, day int, bypassCache bool) (result feed.Feed, err error) {
	startTime := time.Now()
	outcome := outcomeFetched
	defer func() {
		if err != nil {
			outcome = string(apperr.KindOf(err))
		}
		acquisitionsTotal.WithLabelValues(outcome).Inc()
		acquisitionDuration.Observe(time.Since(startTime).Seconds())
	}()

	logger := s.logger.With().Int("month", month).Int("day", day).Logger()

	// Step 1: Rate gate
	limited, err := s.limiter.CheckLimit(ctx, s.config.Identifier, s.config.Resource, s.config.MaxRequests, s.config.Window)
	if err != nil {
		// Limiter backend failures fail open.
		logger.Warn().Err(err).Str("stage", stageRateLimit).Msg("Rate limit check failed, allowing request")
	} else if limited {
		logger.Warn().
			Str("stage", stageRateLimit).
			Str("identifier", s.config.Identifier).
			Str("resource", s.config.Resource).
			Msg("Rate limit exceeded")
		return feed.Feed{}, apperr.RateLimited()
	}

	// Step 2: Input validation
	if err := ValidateDate(month, day); err != nil {
		logger.Warn().Err(err).Str("stage", stageValidate).Msg("Invalid date")
		return feed.Feed{}, err
	}

	cacheKey := cache.FeedKey(month, day)

	// Step 3: Cache probe
	if !bypassCache {
		cached, err := s.store.Get(ctx, cacheKey)
		switch {
		case err == nil:
			events, births, deaths := cached.Counts()
			logger.Info().
				Str("stage", stageCacheRead).
				Str("cache_key", cacheKey).
				Int("events", events).
				Int("births", births).
				Int("deaths", deaths).
				Msg("Cache hit")
			outcome = outcomeCacheHit
			return cached, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			logger.Warn().Err(err).Str("stage", stageCacheRead).Str("cache_key", cacheKey).Msg("Cache get error")
		}
	}

	// Step 4: Remote fetch
	logger.Info().Str("stage", stageFetch).Bool("bypass_cache", bypassCache).Msg("Fetching Wikipedia data")
	raw, err := s.fetcher.FetchOnThisDay(ctx, month, day)
	if err != nil {
		logger.Error().
			Err(err).
			Str("stage", stageFetch).
			Str("error_kind", string(apperr.KindOf(err))).
			Int("status", apperr.StatusOf(err)).
			Msg("Wikipedia API fetch failed")
		return feed.Feed{}, err
	}

	// Step 5: Validate
	validated, err := feed.Validate(raw)
	if err != nil {
		logger.Error().Err(err).Str("stage", stageSchema).Msg("Wikipedia data validation failed")
		return feed.Feed{}, err
	}
	events, births, deaths := validated.Counts()
	logger.Debug().
		Str("stage", stageSchema).
		Int("events", events).
		Int("births", births).
		Int("deaths", deaths).
		Msg("Wikipedia data validated")

	// Step 6: Sanitize
	sanitized := s.sanitizer.Sanitize(validated)
	logger.Debug().Str("stage", stageSanitize).Msg("Wikipedia data sanitized")

	// Step 7: Cache write-back
	if err := s.store.Set(ctx, cacheKey, sanitized, s.config.CacheTTL); err != nil {
		if !s.config.CacheWriteNonFatal {
			logger.Error().Err(err).Str("stage", stageCacheWrite).Str("cache_key", cacheKey).Msg("Cache set failed")
			return feed.Feed{}, apperr.Cache(err)
		}
		logger.Warn().Err(err).Str("stage", stageCacheWrite).Str("cache_key", cacheKey).Msg("Cache set failed, serving uncached")
	}

	events, births, deaths = sanitized.Counts()
	logger.Info().
		Str("stage", stageDone).
		Int("events", events).
		Int("births", births).
		Int("deaths", deaths).
		Dur("duration", time.Since(startTime)).
		Msg("Successfully fetched history")

	return sanitized, nil
}

// Remaining reports the requests left in the current rate window.
func (s *Service) Remaining(ctx context.Context) (int, error) {
	return s.limiter.Remaining(ctx, s.config.Identifier, s.config.Resource, s.config.MaxRequests, s.config.Window)
}

// Invalidate drops every cached feed.
func (s *Service) Invalidate(ctx context.Context) error {
	if err := s.store.InvalidateAll(ctx); err != nil {
		return apperr.Cache(err)
	}
	s.logger.Info().Msg("Cache invalidated")
	return nil
}
