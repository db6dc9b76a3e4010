package entity

import "time"

// Record is one issued code. At most one unused record exists per identity.
type Record struct {
	ID         int64
	Identity   string
	Code       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	IsUsed     bool
	Attempts   int
	VerifiedAt *time.Time
}

// Active reports whether the record can still be verified at now.
func (r Record) Active(now time.Time) bool {
	return !r.IsUsed && now.Before(r.ExpiresAt)
}

// GateResult is the decision of the identity gate.
type GateResult int

const (
	GateAllowed GateResult = iota
	GateTooSoon
	GateHourlyExceeded
	GateDailyExceeded
)

func (g GateResult) String() string {
	switch g {
	case GateAllowed:
		return "allowed"
	case GateTooSoon:
		return "too_soon"
	case GateHourlyExceeded:
		return "hourly_exceeded"
	case GateDailyExceeded:
		return "daily_exceeded"
	default:
		return "unknown"
	}
}

// GateOutcome carries the gate decision and, for GateTooSoon, the wait in seconds.
type GateOutcome struct {
	Result            GateResult
	RetryAfterSeconds int
}

// VerifyResult is the outcome of checking a submitted code.
type VerifyResult int

const (
	VerifySuccess VerifyResult = iota
	VerifyNotFound
	VerifyAttemptsExceeded
	VerifyMismatch
)

func (v VerifyResult) String() string {
	switch v {
	case VerifySuccess:
		return "success"
	case VerifyNotFound:
		return "not_found"
	case VerifyAttemptsExceeded:
		return "attempts_exceeded"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// VerifyOutcome carries the verify result and, for VerifyMismatch, the guesses left.
type VerifyOutcome struct {
	Result    VerifyResult
	Remaining int
}
