package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a provider failure. The agent's retry policy keys off the
// kind, never off provider-specific error strings.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfigMissing means the provider cannot be constructed because a
	// required credential or endpoint is not configured.
	KindConfigMissing
	// KindAuth means the provider rejected the configured credential.
	KindAuth
	// KindRateLimited means the provider throttled the request. RetryAfter
	// may carry the provider's suggested wait.
	KindRateLimited
	// KindUnavailable means the provider failed server-side (5xx).
	KindUnavailable
	// KindUnreachable means the provider endpoint could not be reached at
	// the transport level.
	KindUnreachable
	// KindTimeout means the per-call deadline expired.
	KindTimeout
	// KindInvalid means the request or the provider's response was malformed.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindConfigMissing:
		return "config_missing"
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is the uniform provider error. Adapters translate their SDK or
// transport failures into this type so callers can branch on Kind alone.
type Error struct {
	Kind     Kind
	Provider string
	Message  string

	// RetryAfter is the provider-suggested wait for KindRateLimited, zero
	// when the provider gave none.
	RetryAfter time.Duration

	Cause error
}

func (e *Error) Error() string {
	prefix := e.Provider
	if prefix == "" {
		prefix = "provider"
	}
	if e.Cause != nil && e.Message == "" {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the kind from any error in the chain, KindUnknown when the
// error is not a provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Retryable reports whether the failure is transient: rate limiting, a
// server-side outage, or an unreachable endpoint. Auth, config, timeout and
// malformed-request failures never benefit from a retry.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindUnavailable, KindUnreachable:
		return true
	default:
		return false
	}
}

// SuggestedDelay returns the provider-suggested retry wait, if any.
func SuggestedDelay(err error) (time.Duration, bool) {
	var pe *Error
	if errors.As(err, &pe) && pe.RetryAfter > 0 {
		return pe.RetryAfter, true
	}
	return 0, false
}

// classifyHTTPStatus maps an HTTP status from a cloud provider to the shared
// taxonomy. retryAfter is the raw Retry-After header value, which may be
// empty, a second count, or an HTTP date.
func classifyHTTPStatus(provider string, status int, retryAfter string, cause error) *Error {
	e := &Error{Provider: provider, Cause: cause}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
		e.Message = fmt.Sprintf("request rejected (HTTP %d): check the configured API key", status)
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = "rate limited (HTTP 429)"
		e.RetryAfter = parseRetryAfter(retryAfter)
	case status >= 500:
		e.Kind = KindUnavailable
		e.Message = fmt.Sprintf("provider error (HTTP %d)", status)
	default:
		e.Kind = KindInvalid
		e.Message = fmt.Sprintf("request failed (HTTP %d)", status)
	}
	return e
}

// parseRetryAfter understands both Retry-After forms. Unparseable values
// yield zero, which callers treat as "no suggestion".
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
