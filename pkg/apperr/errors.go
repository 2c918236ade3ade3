// Package apperr defines the classified error taxonomy shared by the
// acquisition pipeline. Every failure surfaced to callers carries a Kind
// that callers switch on instead of inspecting message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindRateLimited means the caller exceeded its request budget.
	KindRateLimited Kind = "rate_limited"

	// KindValidation means the month/day input was rejected.
	KindValidation Kind = "validation"

	// KindRemote means the upstream answered with a non-2xx status.
	KindRemote Kind = "remote"

	// KindTransport means the upstream could not be reached (timeout, reset, DNS).
	KindTransport Kind = "transport"

	// KindSchema means the upstream payload could not be coerced into a feed.
	KindSchema Kind = "schema"

	// KindCache means the cache backend failed.
	KindCache Kind = "cache"

	// KindUnknown is the catch-all.
	KindUnknown Kind = "unknown"
)

// Public messages returned to end users. Diagnostic detail stays in Err.
const (
	msgRateLimited     = "Too many requests. Please try again later."
	msgUpstreamLimited = "Too many requests to Wikipedia. Please try again later."
	msgRemote          = "Wikipedia API error. Please try again later."
	msgTransport       = "Wikipedia is unreachable. Please try again later."
	msgSchema          = "Received malformed data from Wikipedia."
	msgCache           = "Temporary storage failure. Please try again later."
	msgUnknown         = "An unexpected error occurred."
)

// Error is a classified pipeline error.
type Error struct {
	Kind Kind

	// Status is the upstream HTTP status for KindRemote, zero otherwise.
	Status int

	// Message is safe to show to end users.
	Message string

	// Err is the underlying cause, for logs only.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s error (status %d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
		}
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind with a public message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind using the kind's default public message.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: defaultMessage(kind), Err: err}
}

// RateLimited returns the error for an exhausted request budget.
func RateLimited() *Error {
	return New(KindRateLimited, msgRateLimited)
}

// Validation returns an input validation error; message is user facing.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Remote returns the error for an upstream non-2xx response.
func Remote(status int, err error) *Error {
	msg := msgRemote
	if status == http.StatusTooManyRequests {
		msg = msgUpstreamLimited
	}
	return &Error{Kind: KindRemote, Status: status, Message: msg, Err: err}
}

// Transport returns the error for a failed upstream round trip.
func Transport(err error) *Error {
	return Wrap(KindTransport, err)
}

// Schema returns the error for an unusable upstream payload.
func Schema(err error) *Error {
	return Wrap(KindSchema, err)
}

// Cache returns the error for a failed cache operation.
func Cache(err error) *Error {
	return Wrap(KindCache, err)
}

// KindOf reports the kind of err. Unclassified errors are KindUnknown;
// a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the upstream status carried by err, or zero.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// PublicMessage returns the message that may be shown to end users.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return msgUnknown
}

// HTTPStatus maps err to the status a presentation layer should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindRateLimited:
		return msgRateLimited
	case KindRemote:
		return msgRemote
	case KindTransport:
		return msgTransport
	case KindSchema:
		return msgSchema
	case KindCache:
		return msgCache
	default:
		return msgUnknown
	}
}
