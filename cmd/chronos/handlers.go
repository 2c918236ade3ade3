package main

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/chronos/pkg/apperr"
	"github.com/Sternrassler/chronos/pkg/cache"
	"github.com/Sternrassler/chronos/pkg/client"
)

const maxRequestBody = 1 << 10

type historyRequest struct {
	Month       json.Number `json:"month"`
	Day         json.Number `json:"day"`
	BypassCache bool        `json:"bypassCache"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// historyHandler serves POST /api/history.
func historyHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		var req historyRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
		if err := dec.Decode(&req); err != nil {
			writeError(w, apperr.Validation("Invalid request body"))
			return
		}

		month, err := parseInt(req.Month, "Month")
		if err != nil {
			writeError(w, err)
			return
		}
		day, err := parseInt(req.Day, "Day")
		if err != nil {
			writeError(w, err)
			return
		}

		data, err := a.service.AcquireFeed(r.Context(), month, day, req.BypassCache)

		if remaining, rerr := a.service.Remaining(r.Context()); rerr == nil {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}

		if err != nil {
			logger.Error().
				Err(err).
				Str("error_kind", string(apperr.KindOf(err))).
				Int("month", month).
				Int("day", day).
				Msg("History request failed")
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, data)
	}
}

// parseInt accepts JSON numbers and numeric strings with an integral value.
func parseInt(n json.Number, field string) (int, error) {
	if n == "" {
		return 0, apperr.Validation(field + " is required")
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != math.Trunc(f) {
			return 0, apperr.Validation(field + " must be an integer")
		}
		// Integral but huge: clamp so date validation reports the range.
		if math.Abs(f) > math.MaxInt32 {
			return int(math.Copysign(math.MaxInt32, f)), nil
		}
		v = int64(f)
	}
	return int(max(min(v, math.MaxInt32), math.MinInt32)), nil
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    float64           `json:"uptime"`
}

// healthHandler serves GET /api/health.
func healthHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services: map[string]string{
				"wikipedia": string(a.upstream.CheckUpstream(r.Context())),
				"cache":     cacheHealth(r, a.store),
			},
			Uptime: time.Since(a.started).Seconds(),
		}

		if resp.Services["wikipedia"] == string(client.HealthUnhealthy) || resp.Services["cache"] != "ok" {
			resp.Status = "degraded"
		}

		status := http.StatusOK
		if resp.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func cacheHealth(r *http.Request, store cache.Store) string {
	pinger, ok := store.(cache.Pinger)
	if !ok {
		return "ok"
	}
	if err := pinger.Ping(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Cache health check failed")
		return "unhealthy"
	}
	return "ok"
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		err = apperr.Wrap(apperr.KindUnknown, err)
	}
	writeJSON(w, apperr.HTTPStatus(err), errorResponse{Error: apperr.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
