package client

import (
	"errors"
	"net/http"

	"github.com/Sternrassler/chronos/pkg/apperr"
)

// ErrorClass represents a classification of upstream failures, used as a
// metric label.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents upstream 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// ErrInvalidDate is returned for a month/day outside the calendar ranges.
var ErrInvalidDate = errors.New("invalid month or day")

// classify maps a fetch error to its ErrorClass.
func classify(err error) ErrorClass {
	switch apperr.KindOf(err) {
	case apperr.KindTransport:
		return ErrorClassNetwork
	case apperr.KindRemote:
		status := apperr.StatusOf(err)
		switch {
		case status == http.StatusTooManyRequests:
			return ErrorClassRateLimit
		case status >= 500:
			return ErrorClassServer
		default:
			return ErrorClassClient
		}
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		// 4xx, including 429, is never retried.
		return false
	}
}
