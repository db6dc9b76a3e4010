package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AdmitIssue runs source window, source daily, identity format and identity gate in that order.
// It returns the normalized identity when every check passes. The gate read is not held
// under the identity lock; SendOTP runs it inside generate instead.
func (s *Usecase) AdmitIssue(ctx context.Context, source, rawPhone string) (string, error) {
	ctx, span := s.startSpan(ctx, "AdmitIssue")
	defer span.End()

	identity, err := s.admitSource(ctx, source, rawPhone)
	if err != nil {
		return "", err
	}

	if err := s.admitIdentity(ctx, identity); err != nil {
		return "", err
	}

	return identity, nil
}

// admitSource consumes the source budgets and normalizes the phone.
func (s *Usecase) admitSource(ctx context.Context, source, rawPhone string) (string, error) {
	if err := s.admitSourceWindow(ctx, source); err != nil {
		return "", err
	}

	st := s.settings()
	res, err := s.daily.AdmitDaily(ctx, source, st.sourceDailyMax)
	if err != nil {
		slog.ErrorContext(ctx, "failed to admit source daily", "source", source, "error", err)
		return "", errors.Join(entity.ErrRepositoryUnavailable, err)
	}
	if !res.Allowed {
		return "", s.reject(ctx, &entity.RateLimitedError{
			Scope:             entity.ScopeSourceDaily,
			RetryAfterSeconds: res.RetryAfterSeconds(s.clock.Now()),
			Limit:             st.sourceDailyMax,
		})
	}

	identity, err := phone.Normalize(rawPhone)
	if err != nil {
		return "", entity.ErrInvalidIdentityFormat
	}

	return identity, nil
}

// admitIdentity turns a non-allowed gate outcome into a RateLimitedError.
func (s *Usecase) admitIdentity(ctx context.Context, identity string) error {
	st := s.settings()

	out, err := s.CheckGate(ctx, identity, s.clock.Now())
	if err != nil {
		return err
	}

	switch out.Result {
	case entity.GateTooSoon:
		return s.reject(ctx, &entity.RateLimitedError{
			Scope:             entity.ScopeIdentityGap,
			RetryAfterSeconds: out.RetryAfterSeconds,
			Limit:             int(st.minGap.Seconds()),
		})
	case entity.GateHourlyExceeded:
		return s.reject(ctx, &entity.RateLimitedError{Scope: entity.ScopeIdentityHourly, Limit: st.maxPerHour})
	case entity.GateDailyExceeded:
		return s.reject(ctx, &entity.RateLimitedError{Scope: entity.ScopeIdentityDaily, Limit: st.maxPerDay})
	}

	return nil
}

// AdmitVerify applies only the source window, sharing the budget with issuance.
func (s *Usecase) AdmitVerify(ctx context.Context, source string) error {
	ctx, span := s.startSpan(ctx, "AdmitVerify")
	defer span.End()

	return s.admitSourceWindow(ctx, source)
}

func (s *Usecase) admitSourceWindow(ctx context.Context, source string) error {
	st := s.settings()

	res, err := s.window.Admit(ctx, source, st.sourceWindow, st.sourceWindowMax)
	if err != nil {
		slog.ErrorContext(ctx, "failed to admit source window", "source", source, "error", err)
		return errors.Join(entity.ErrRepositoryUnavailable, err)
	}
	if !res.Allowed {
		return s.reject(ctx, &entity.RateLimitedError{
			Scope:             entity.ScopeSourceWindow,
			RetryAfterSeconds: res.RetryAfterSeconds(s.clock.Now()),
			Limit:             st.sourceWindowMax,
		})
	}

	return nil
}

func (s *Usecase) reject(ctx context.Context, err *entity.RateLimitedError) error {
	slog.WarnContext(ctx, "otp request rate limited", "scope", err.Scope, "retry_after", err.RetryAfterSeconds)
	s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", string(err.Scope))))
	return err
}
