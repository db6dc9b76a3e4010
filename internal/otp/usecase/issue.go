package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type SendOTPInput struct {
	Source string `validate:"required"`
	Phone  string `validate:"required"`
}

type SendOTPOutput struct {
	ExpiresIn int
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identity, err := s.admitSource(ctx, in.Source, in.Phone)
	if err != nil {
		return nil, s.toIssueError(err)
	}

	out, err := s.generate(ctx, identity, func(ctx context.Context) error {
		return s.admitIdentity(ctx, identity)
	})
	if err != nil {
		return nil, s.toIssueError(err)
	}

	return &SendOTPOutput{ExpiresIn: out.ExpiresInSeconds}, nil
}
