// Package client provides the Wikipedia "on this day" HTTP client with
// bounded retries, per-attempt timeouts and optional request pacing.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Sternrassler/chronos/pkg/apperr"
)

// Prometheus metrics for upstream requests.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_upstream_requests_total",
		Help: "Total Wikipedia requests by status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chronos_upstream_request_duration_seconds",
		Help:    "Wikipedia request duration in seconds, per attempt",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
)

const (
	// DefaultBaseURL is the Wikipedia REST API root.
	DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

	// DefaultUserAgent identifies the application to Wikipedia.
	DefaultUserAgent = "chronos/1.0 (https://github.com/Sternrassler/chronos)"

	// maxBodyBytes caps the feed payload read into memory.
	maxBodyBytes = 16 << 20

	healthTimeout = 5 * time.Second
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the REST API, without trailing slash.
	BaseURL string

	// UserAgent is sent as Api-User-Agent (Wikimedia etiquette).
	UserAgent string

	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// RequestsPerSecond paces upstream attempts. Zero disables pacing.
	RequestsPerSecond float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		UserAgent:      DefaultUserAgent,
		Timeout:        10 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     5 * time.Second,
	}
}

// Client fetches raw on-this-day payloads.
type Client struct {
	httpClient *http.Client
	pacer      *rate.Limiter
	config     Config
	logger     zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.InitialBackoff <= 0 || cfg.MaxBackoff < cfg.InitialBackoff {
		return nil, fmt.Errorf("invalid backoff bounds (initial %s, max %s)", cfg.InitialBackoff, cfg.MaxBackoff)
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %g)", cfg.RequestsPerSecond)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var pacer *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{},
		pacer:      pacer,
		config:     cfg,
		logger:     log.With().Str("component", "wikipedia-client").Logger(),
		sleep:      sleepContext,
	}, nil
}

// FetchOnThisDay returns the raw JSON feed for month/day. Errors are
// classified as apperr.KindRemote or apperr.KindTransport.
func (c *Client) FetchOnThisDay(ctx context.Context, month, day int) ([]byte, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: "Invalid date.",
			Err:     fmt.Errorf("%w: %d/%d", ErrInvalidDate, month, day),
		}
	}

	endpoint := fmt.Sprintf("%s/feed/onthisday/all/%02d/%02d", c.config.BaseURL, month, day)

	var body []byte
	err := c.retryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.fetchOnce(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// fetchOnce performs a single attempt bounded by Config.Timeout.
func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]byte, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, apperr.Transport(fmt.Errorf("pacing: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Transport(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Api-User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Msg("Executing Wikipedia request")

	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, apperr.Transport(err)
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Wikipedia request error")
		return nil, apperr.Remote(resp.StatusCode, fmt.Errorf("GET %s: %s", endpoint, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Transport(fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}
