package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNoForumsConfigured is returned by ResolveForums when the forum
// list contains no enabled entries. It is fatal and reported before
// any network activity.
var ErrNoForumsConfigured = errors.New("no forums configured")

// ErrAllStrategiesExhausted marks a forum whose whole fallback chain
// failed.
var ErrAllStrategiesExhausted = errors.New("all transport strategies exhausted")

// FetchCause classifies why a strategy attempt failed.
type FetchCause string

// Fetch failure causes. Network-layer causes are kept separate from
// MalformedResponse so operators can tell "got garbage" apart from
// "couldn't reach the server".
const (
	CauseNetworkUnreachable FetchCause = "network_unreachable"
	CauseTimeout            FetchCause = "timeout"
	CauseHTTPStatus         FetchCause = "http_status"
	CauseAuthRejected       FetchCause = "auth_rejected"
	CauseMalformedResponse  FetchCause = "malformed_response"
	CauseEmpty              FetchCause = "empty"
)

// FetchError is the typed failure returned by strategies and the
// validator. StatusCode is set only for CauseHTTPStatus and
// CauseAuthRejected.
type FetchError struct {
	Cause      FetchCause
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s (http %d): %v", e.Cause, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (http %d)", e.Cause, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Cause, e.Err)
	default:
		return string(e.Cause)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether retrying the same strategy could help.
// Only transient causes qualify: unreachable network, timeouts, and
// HTTP 429/5xx.
func (e *FetchError) Retryable() bool {
	switch e.Cause {
	case CauseNetworkUnreachable, CauseTimeout:
		return true
	case CauseHTTPStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}

// StatusError builds a FetchError for an unexpected HTTP status.
func StatusError(code int) *FetchError {
	return &FetchError{Cause: CauseHTTPStatus, StatusCode: code}
}

// AuthError builds a FetchError for a rejected credential or token.
func AuthError(code int, err error) *FetchError {
	return &FetchError{Cause: CauseAuthRejected, StatusCode: code, Err: err}
}

// TransportError classifies a raw transport error into a FetchError.
// Deadline expiry (from the per-attempt context or the net layer)
// becomes CauseTimeout; everything else is CauseNetworkUnreachable.
func TransportError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Cause: CauseTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Cause: CauseTimeout, Err: err}
	}
	return &FetchError{Cause: CauseNetworkUnreachable, Err: err}
}

// IsRetryable reports whether err is a transient FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return false
}
