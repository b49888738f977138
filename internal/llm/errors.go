package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// ErrExternalService matches every ServiceError via errors.Is
var ErrExternalService = errors.New("external service error")

// ErrorKind classifies a failed call to the external service
type ErrorKind string

// Error kinds. Only KindRateLimit is retried automatically.
const (
	KindTimeout   ErrorKind = "timeout"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindServer    ErrorKind = "server_error"
)

// ServiceError is the failure taxonomy of the external text-understanding service
type ServiceError struct {
	Kind       ErrorKind
	Provider   Provider
	StatusCode int
	// RetryAfter is the provider-reported wait before retrying, zero when not reported
	RetryAfter time.Duration
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrExternalService, e.Kind)
	if e.Provider != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Provider)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrExternalService
func (e *ServiceError) Is(target error) bool {
	return target == ErrExternalService
}

// Retryable reports whether the error kind may be retried
func (e *ServiceError) Retryable() bool {
	return e.Kind == KindRateLimit
}

// AsServiceError returns the ServiceError in err's chain, if any
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// kindForStatus maps an HTTP status code onto the error taxonomy
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindServer
	}
}

// isTimeout reports whether err is a deadline or network timeout
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter reads a Retry-After header value in seconds or HTTP-date form
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// newServiceError builds a ServiceError for a failure that carries no provider status
func newServiceError(provider Provider, err error) *ServiceError {
	kind := KindServer
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &ServiceError{Kind: kind, Provider: provider, Cause: err}
}
