package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
)

type VerifyOTPInput struct {
	Source string `validate:"required"`
	Phone  string `validate:"required"`
	Code   string `validate:"required,digits"`
}

type VerifyOTPOutput struct {
	Verified bool
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.AdmitVerify(ctx, in.Source); err != nil {
		return nil, s.toVerifyError(err)
	}

	identity, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, s.toVerifyError(entity.ErrInvalidIdentityFormat)
	}

	out, err := s.Verify(ctx, identity, in.Code)
	if err != nil {
		return nil, s.toVerifyError(err)
	}

	switch out.Result {
	case entity.VerifySuccess:
		return &VerifyOTPOutput{Verified: true}, nil
	case entity.VerifyMismatch:
		return nil, s.toVerifyError(&entity.MismatchError{Remaining: out.Remaining})
	case entity.VerifyAttemptsExceeded:
		return nil, s.toVerifyError(entity.ErrAttemptsExceeded)
	default:
		return nil, s.toVerifyError(entity.ErrNotFound)
	}
}
