package entity

import (
	"errors"
	"fmt"
)

// Scope names which throttle rejected a request.
type Scope string

const (
	ScopeSourceWindow   Scope = "source-window"
	ScopeSourceDaily    Scope = "source-daily"
	ScopeIdentityGap    Scope = "identity-gap"
	ScopeIdentityHourly Scope = "identity-hourly"
	ScopeIdentityDaily  Scope = "identity-daily"
)

var (
	ErrInvalidIdentityFormat = errors.New("otp: invalid phone number format")
	// ErrNotFound covers both a missing and an expired code.
	ErrNotFound              = errors.New("otp: code expired or not found")
	ErrAttemptsExceeded      = errors.New("otp: too many wrong attempts")
	ErrDeliveryFailed        = errors.New("otp: delivery failed")
	ErrRepositoryUnavailable = errors.New("otp: repository unavailable")
)

// RateLimitedError rejects a request because one throttle is exhausted.
type RateLimitedError struct {
	Scope Scope
	// RetryAfterSeconds is 0 when no precise hint exists.
	RetryAfterSeconds int
	// Limit is the cap that was hit.
	Limit int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("otp: rate limited (%s, retry after %ds)", e.Scope, e.RetryAfterSeconds)
}

// MismatchError is a wrong code with guesses still left.
type MismatchError struct {
	Remaining int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("otp: invalid code, %d attempts remaining", e.Remaining)
}
