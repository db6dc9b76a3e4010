package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
	"github.com/shandysiswandi/otpgate/internal/pkg/throttle"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	FindLatest(ctx context.Context, identity string) (*entity.Record, error)
	FindActive(ctx context.Context, identity string, now time.Time) (*entity.Record, error)
	CountSince(ctx context.Context, identity string, since time.Time) (int, error)

	InvalidateAndInsert(ctx context.Context, rec entity.Record) error
	IncrementAttempts(ctx context.Context, id int64, expected int) (bool, error)
	MarkUsed(ctx context.Context, id int64, verifiedAt *time.Time) (bool, error)

	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type deliverer interface {
	Deliver(ctx context.Context, identity, message string) error
}

type windowCounter interface {
	Admit(ctx context.Context, source string, window time.Duration, maxHits int) (throttle.Result, error)
}

type dailyCounter interface {
	AdmitDaily(ctx context.Context, source string, maxPerDay int) (throttle.Result, error)
}

type locker interface {
	Lock(ctx context.Context, key string) (lock.Unlock, error)
}

type Usecase struct {
	repoDB    repoDB
	deliverer deliverer
	window    windowCounter
	daily     dailyCounter
	locker    locker
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	loc       *time.Location
	ins       instrument.Instrumentation

	issued   metric.Int64Counter
	rejected metric.Int64Counter
	verified metric.Int64Counter
}

type Dependency struct {
	RepoDB     repoDB
	Deliverer  deliverer
	Window     windowCounter
	Daily      dailyCounter
	Locker     locker
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Location   *time.Location
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	loc := dep.Location
	if loc == nil {
		loc = time.UTC
	}

	meter := dep.Instrument.Meter("otp.usecase")
	issued, _ := meter.Int64Counter("otp.issued", metric.WithDescription("codes generated and handed to delivery"))
	rejected, _ := meter.Int64Counter("otp.rejected", metric.WithDescription("requests rejected by a throttle"))
	verified, _ := meter.Int64Counter("otp.verified", metric.WithDescription("verify outcomes"))

	return &Usecase{
		repoDB:    dep.RepoDB,
		deliverer: dep.Deliverer,
		window:    dep.Window,
		daily:     dep.Daily,
		locker:    dep.Locker,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		loc:       loc,
		ins:       dep.Instrument,
		issued:    issued,
		rejected:  rejected,
		verified:  verified,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

// withIdentityLock runs fn while holding the per-identity lock.
func (s *Usecase) withIdentityLock(ctx context.Context, identity string, fn func(ctx context.Context) error) error {
	lctx, cancel := context.WithTimeout(ctx, s.settings().lockTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(lctx, "otp:"+identity)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire identity lock", "identity", identity, "error", err)
		return errors.Join(entity.ErrRepositoryUnavailable, err)
	}
	defer unlock()

	return fn(ctx)
}

func (s *Usecase) repoCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.settings().repositoryTimeout)
}
