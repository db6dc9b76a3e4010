package usecase

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// toIssueError turns admission and generation failures into client facing errors.
func (s *Usecase) toIssueError(err error) error {
	var rl *entity.RateLimitedError
	switch {
	case errors.As(err, &rl):
		return goerror.NewTooManyRequest(s.rateLimitMessage(rl), rl.RetryAfterSeconds)
	case errors.Is(err, entity.ErrInvalidIdentityFormat):
		return goerror.NewInvalidInput(nil, "phone", "Invalid phone number format")
	default:
		return goerror.NewServerWithMessage(err, "Failed to send OTP. Please try again.")
	}
}

func (s *Usecase) toVerifyError(err error) error {
	var (
		rl *entity.RateLimitedError
		mm *entity.MismatchError
	)
	switch {
	case errors.As(err, &rl):
		return goerror.NewTooManyRequest(s.rateLimitMessage(rl), rl.RetryAfterSeconds)
	case errors.As(err, &mm):
		return goerror.NewBusinessWithFields(
			fmt.Sprintf("Invalid OTP. %d attempts remaining.", mm.Remaining),
			goerror.CodeRejected,
			"remaining_attempts", strconv.Itoa(mm.Remaining),
		)
	case errors.Is(err, entity.ErrNotFound):
		return goerror.NewBusiness("OTP expired or not found. Request a new one.", goerror.CodeRejected)
	case errors.Is(err, entity.ErrAttemptsExceeded):
		return goerror.NewBusiness("Too many wrong attempts. Request a new OTP.", goerror.CodeLockedOut)
	case errors.Is(err, entity.ErrInvalidIdentityFormat):
		return goerror.NewInvalidInput(nil, "phone", "Invalid phone number format")
	default:
		return goerror.NewServerWithMessage(err, "Verification failed. Please try again.")
	}
}

func (s *Usecase) rateLimitMessage(rl *entity.RateLimitedError) string {
	switch rl.Scope {
	case entity.ScopeSourceWindow:
		return fmt.Sprintf("Too many OTP requests, please try again after %d minutes", int(s.settings().sourceWindow.Minutes()))
	case entity.ScopeSourceDaily:
		return "Daily OTP limit exceeded. Try again tomorrow."
	case entity.ScopeIdentityGap:
		return fmt.Sprintf("Please wait %d seconds before requesting new OTP", rl.RetryAfterSeconds)
	case entity.ScopeIdentityHourly:
		return fmt.Sprintf("OTP limit reached. Maximum %d OTPs per hour.", rl.Limit)
	case entity.ScopeIdentityDaily:
		return "Daily OTP limit reached. Try again tomorrow."
	default:
		return "Too many requests"
	}
}
