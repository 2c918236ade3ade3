package client

import (
	"context"
	"net/http"
)

// HealthStatus is the reachability of the upstream API.
type HealthStatus string

const (
	HealthOK        HealthStatus = "ok"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// CheckUpstream probes the API root with a HEAD request. It never retries.
func (c *Client) CheckUpstream(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.config.BaseURL+"/", nil)
	if err != nil {
		return HealthUnhealthy
	}
	req.Header.Set("Api-User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Upstream health check failed")
		return HealthUnhealthy
	}
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return HealthOK
	}
	c.logger.Warn().Int("status", resp.StatusCode).Msg("Upstream health check degraded")
	return HealthDegraded
}
