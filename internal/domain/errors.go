package domain

import "errors"

var (
	// ErrNotFoundUpstream is returned when a resource vanished upstream before
	// the fetch completed. Callers treat it as a soft delete signal.
	ErrNotFoundUpstream = errors.New("resource not found upstream")

	// ErrRateLimitExceeded is returned by the gateway after retry attempts for
	// a throttled call are exhausted.
	ErrRateLimitExceeded = errors.New("upstream rate limit exceeded")

	// ErrSignatureInvalid is returned when a webhook HMAC does not match.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrLockHeld is returned when a per-resource sync lock could not be
	// acquired within the wait budget.
	ErrLockHeld = errors.New("resource sync lock held")
)
